package h264_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/smear-video/smear/h264"
	"github.com/stretchr/testify/assert"
)

var longStartCode = []byte{0, 0, 0, 1}

func TestRanges_NeedleAtStart(t *testing.T) {
	ranges := h264.Ranges([]byte{0, 0, 0, 1, 9, 9, 9, 9}, longStartCode)

	assert.Equal(t, []h264.ByteRange{mustRange(t, 0, 4)}, ranges)
}

func TestRanges_NeedleInMiddle(t *testing.T) {
	ranges := h264.Ranges([]byte{8, 8, 8, 0, 0, 0, 1, 9, 9, 9, 9}, longStartCode)

	assert.Equal(t, []h264.ByteRange{mustRange(t, 3, 7)}, ranges)
}

func TestRanges_NeedleAtEnd(t *testing.T) {
	ranges := h264.Ranges([]byte{9, 9, 9, 9, 0, 0, 0, 1}, longStartCode)

	assert.Equal(t, []h264.ByteRange{mustRange(t, 4, 8)}, ranges)
}

func TestRanges_TwoNeedles(t *testing.T) {
	ranges := h264.Ranges([]byte{9, 9, 9, 9, 0, 0, 0, 1, 8, 0, 0, 0, 1}, longStartCode)

	assert.Equal(t, []h264.ByteRange{mustRange(t, 4, 8), mustRange(t, 9, 13)}, ranges)
}

func TestRanges_NeedlesAtStartAndEnd(t *testing.T) {
	ranges := h264.Ranges([]byte{0, 0, 0, 1, 8, 0, 0, 0, 1}, longStartCode)

	assert.Equal(t, []h264.ByteRange{mustRange(t, 0, 4), mustRange(t, 5, 9)}, ranges)
}

func TestRanges_DoesNotOverlap(t *testing.T) {
	ranges := h264.Ranges([]byte{1, 1, 1, 1, 1}, []byte{1, 1})

	assert.Equal(t, []h264.ByteRange{mustRange(t, 0, 2), mustRange(t, 2, 4)}, ranges)
}

func TestRanges_EmptyNeedle(t *testing.T) {
	assert.Empty(t, h264.Ranges([]byte{0, 0, 1}, nil))
}

func TestRanges_HaystackShorterThanNeedle(t *testing.T) {
	assert.Empty(t, h264.Ranges([]byte{0, 0, 0}, longStartCode))
}

func TestRangesWithin_SkipsBytesOutsideSubRange(t *testing.T) {
	haystack := []byte{0, 0, 0, 1, 7, 0, 0, 0, 1, 7, 0, 0, 0, 1}

	ranges := h264.RangesWithin(haystack, longStartCode, mustRange(t, 1, 12))

	assert.Equal(t, []h264.ByteRange{mustRange(t, 5, 9)}, ranges)
}

func TestRangesWithin_ClampsToHaystack(t *testing.T) {
	haystack := []byte{7, 0, 0, 1}

	ranges := h264.RangesWithin(haystack, []byte{0, 0, 1}, mustRange(t, 0, 100))

	assert.Equal(t, []h264.ByteRange{mustRange(t, 1, 4)}, ranges)
}

func TestRanges_RandomHaystacks(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	needle := []byte{0, 0, 1}

	for i := 0; i < 200; i++ {
		haystack := make([]byte, rnd.Intn(256))
		for j := range haystack {
			// small alphabet so the needle shows up often
			haystack[j] = byte(rnd.Intn(3))
		}

		ranges := h264.Ranges(haystack, needle)

		last := int64(-1)
		for _, r := range ranges {
			assert.Greater(t, r.Start(), last)
			assert.Equal(t, needle, haystack[r.Start():r.End()])
			last = r.End() - 1
		}
		assert.Equal(t, bytes.Count(haystack, needle), len(ranges))
	}
}
