package h264_test

import (
	"math/rand"
	"testing"

	"github.com/smear-video/smear/h264"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end int64) h264.ByteRange {
	t.Helper()
	r, err := h264.NewByteRange(start, end)
	require.NoError(t, err)
	return r
}

// buildStream lays out one unit per header byte with random payloads that never
// contain a start code. It returns the stream and the units a parser must find.
func buildStream(t *testing.T, startCodeLength int, seed int64, headers []byte) ([]byte, []h264.NALUnit) {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))

	var stream []byte
	var units []h264.NALUnit
	for _, header := range headers {
		start := int64(len(stream))
		stream = append(stream, h264.StartCode(startCodeLength)...)
		stream = append(stream, header)
		stream = append(stream, payload(rnd, 1+rnd.Intn(60))...)
		units = append(units, h264.NALUnit{
			Type:  h264.NALUnitTypeFromHeader(header),
			Range: mustRange(t, start, int64(len(stream))),
		})
	}
	return stream, units
}

func payload(rnd *rand.Rand, n int) []byte {
	p := make([]byte, 0, n+3)
	for len(p) < n {
		if rnd.Intn(10) == 0 {
			// emulation prevention sequence, never a start code
			p = append(p, 0x00, 0x00, 0x03)
			continue
		}
		p = append(p, byte(1+rnd.Intn(254)))
	}
	return append(p, 0x80)
}
