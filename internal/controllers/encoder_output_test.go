package controllers_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/smear-video/smear/h264"
	"github.com/smear-video/smear/internal/controllers"
	"github.com/smear-video/smear/internal/teststreaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBitstreamEditor_EncoderOutput(t *testing.T) {
	if !teststreaming.Available() {
		t.Skip("ffmpeg is not installed")
	}
	fixture := teststreaming.FFMPEG_ANNEXB_H264
	dir := t.TempDir()
	src, err := fixture.Generate(dir)
	require.NoError(t, err)
	stream, err := os.ReadFile(src)
	require.NoError(t, err)

	for _, chunkSize := range []int{h264.DefaultChunkSize, 13} {
		t.Run(fmt.Sprintf("chunk size %d", chunkSize), func(t *testing.T) {
			ctx := context.Background()
			l := zaptest.NewLogger(t).Sugar()

			p, err := h264.Open(src, h264.WithChunkSize(chunkSize))
			require.NoError(t, err)
			defer p.Close()
			units, err := p.Parse(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, units)

			assert.Equal(t, p.FirstStartCode(), units[0].Range.Start())
			for i := 1; i < len(units); i++ {
				require.Equal(t, units[i-1].Range.End(), units[i].Range.Start(), "unit %d", i)
			}
			// only a residue too short to carry a header byte may be left over
			tail := int64(len(stream)) - units[len(units)-1].Range.End()
			assert.GreaterOrEqual(t, tail, int64(0))
			assert.LessOrEqual(t, tail, int64(p.StartCodeLength()))
			for i, u := range units {
				header := stream[u.Range.Start()+int64(p.StartCodeLength())]
				require.Equal(t, h264.NALUnitTypeFromHeader(header), u.Type, "unit %d", i)
			}

			assert.Equal(t, []int{0, 30, 60}, controllers.LocateIDRFrames(units))
			frameUnits := controllers.FrameUnits(units)
			assert.Len(t, frameUnits, fixture.ExpectedFrames())

			identical := filepath.Join(dir, fmt.Sprintf("identical-%d.h264", chunkSize))
			_, err = controllers.NewBitstreamEditor(l, units).Rewrite(ctx, src, identical)
			require.NoError(t, err)
			out, err := os.ReadFile(identical)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(stream, out), "rewrite without removal differs from the input")

			idr := units[frameUnits[30]]
			require.Equal(t, h264.CodedSliceIDRPicture, idr.Type)

			editor := controllers.NewBitstreamEditor(l, units)
			editor.MarkForRemoval(30)
			removed := filepath.Join(dir, fmt.Sprintf("removed-%d.h264", chunkSize))
			stats, err := editor.Rewrite(ctx, src, removed)
			require.NoError(t, err)
			out, err = os.ReadFile(removed)
			require.NoError(t, err)

			assert.Equal(t, idr.Range.Len(), stats.BytesRemoved)
			assert.Equal(t, int64(len(stream))-idr.Range.Len(), int64(len(out)))
			want := bytes.Join([][]byte{
				stream[:idr.Range.Start()],
				stream[idr.Range.End():],
			}, nil)
			assert.True(t, bytes.Equal(want, out), "output is not the input without frame 30")
		})
	}
}
