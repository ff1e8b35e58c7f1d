package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/smear-video/smear/internal/entities"
	"github.com/smear-video/smear/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()

	var mux *http.ServeMux
	fxtest.New(t,
		web.Dependencies(func(c *entities.Config) {
			c.WorkDir = t.TempDir()
		}),
		fx.Populate(&mux),
	)
	return mux
}

// SPS, IDR, P, IDR, P: frames 0..3 with IDR frames at 0 and 2
func writeStream(t *testing.T) (string, []byte) {
	t.Helper()

	var stream []byte
	for i, h := range []byte{0x67, 0x65, 0x41, 0x65, 0x41} {
		stream = append(stream, 0, 0, 1, h)
		stream = append(stream, bytes.Repeat([]byte{0x90 + byte(i)}, 10)...)
	}
	path := filepath.Join(t.TempDir(), "in.264")
	require.NoError(t, os.WriteFile(path, stream, 0o644))
	return path, stream
}

func TestProbeHandler(t *testing.T) {
	mux := newMux(t)
	src, _ := writeStream(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe?source="+url.QueryEscape(src), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report entities.StreamReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.StartCodeLength)
	assert.Equal(t, 4, report.Frames)
	require.Len(t, report.IDRFrames, 2)
	assert.Equal(t, 2, report.IDRFrames[1].Frame)
}

func TestProbeHandler_Errors(t *testing.T) {
	mux := newMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/probe?source=a.h264", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	garbage := filepath.Join(t.TempDir(), "garbage.h264")
	require.NoError(t, os.WriteFile(garbage, bytes.Repeat([]byte{0xff}, 64), 0o644))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe?source="+url.QueryEscape(garbage), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSmearHandler(t *testing.T) {
	mux := newMux(t)
	src, stream := writeStream(t)
	dst := filepath.Join(t.TempDir(), "out.h264")

	body, err := json.Marshal(entities.SmearRequest{Source: src, Destination: dst, IDRIndices: []int{1}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/smear", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result entities.SmearResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []int{2}, result.Stats.RemovedFrames)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	// the fourth unit (second IDR) is 14 bytes long and starts at 42
	assert.Equal(t, append(append([]byte{}, stream[:42]...), stream[56:]...), got)
}

func TestSmearHandler_Errors(t *testing.T) {
	mux := newMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/smear", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/smear", bytes.NewReader([]byte("{"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	src, _ := writeStream(t)
	body, err := json.Marshal(entities.SmearRequest{Source: src, Destination: filepath.Join(t.TempDir(), "out.h264"), FrameNumbers: []int{9}})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/smear", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
