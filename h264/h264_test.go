package h264_test

import (
	"testing"

	"github.com/smear-video/smear/h264"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNAL_Header(t *testing.T) {
	nal, err := h264.ParseNAL([]byte{0x65, 0x88, 0x84})

	require.NoError(t, err)
	assert.Equal(t, h264.CodedSliceIDRPicture, nal.UnitType)
	assert.Equal(t, byte(3), nal.RefIDC)
	assert.False(t, nal.ForbiddenZeroBit)
	assert.Equal(t, []byte{0x88, 0x84}, nal.RBSPByte)
}

func TestParseNAL_ForbiddenZeroBit(t *testing.T) {
	nal, err := h264.ParseNAL([]byte{0xe1, 0x00})

	require.NoError(t, err)
	assert.True(t, nal.ForbiddenZeroBit)
	assert.Equal(t, h264.CodedSliceNonIDRPicture, nal.UnitType)
}

func TestParseNAL_RemovesEmulationPrevention(t *testing.T) {
	nal, err := h264.ParseNAL([]byte{0x41, 0x00, 0x00, 0x03, 0x01, 0x09})

	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x09}, nal.RBSPByte)
}

func TestParseNAL_SEI(t *testing.T) {
	nal, err := h264.ParseNAL([]byte{0x06, 0x05, 0x10, 0xdc, 0x45})

	require.NoError(t, err)
	assert.Equal(t, h264.SupplementalEnhancementInformation, nal.UnitType)
	assert.Equal(t, 5, nal.PayloadType)
	assert.Equal(t, 16, nal.PayloadSize)
	assert.Equal(t, 2, nal.PayloadOffset)
}

func TestParseNAL_SEIExtendedPayloadType(t *testing.T) {
	nal, err := h264.ParseNAL([]byte{0x06, 0xff, 0x01, 0xff, 0xff, 0x02})

	require.NoError(t, err)
	assert.Equal(t, 256, nal.PayloadType)
	assert.Equal(t, 512, nal.PayloadSize)
	assert.Equal(t, 5, nal.PayloadOffset)
}

func TestParseNAL_SEIExtendedPayloadSize(t *testing.T) {
	nal, err := h264.ParseNAL([]byte{0x06, 0x04, 0xff, 0x2d, 0xb5, 0x00, 0x31})

	require.NoError(t, err)
	assert.Equal(t, 4, nal.PayloadType)
	assert.Equal(t, 300, nal.PayloadSize)
	assert.Equal(t, 3, nal.PayloadOffset)
	assert.Equal(t, []byte{0xb5, 0x00, 0x31}, nal.RBSPByte[nal.PayloadOffset:])
}

func TestParseNAL_TruncatedSEI(t *testing.T) {
	_, err := h264.ParseNAL([]byte{0x06, 0xff})

	assert.ErrorIs(t, err, h264.ErrTruncatedSEI)
}

func TestParseNAL_Empty(t *testing.T) {
	_, err := h264.ParseNAL(nil)

	assert.ErrorIs(t, err, h264.ErrEmptyNAL)
}

func TestNALUnitType_IsCodedSlice(t *testing.T) {
	for typ := h264.NALUnitType(0); typ < 32; typ++ {
		expected := typ >= h264.CodedSliceNonIDRPicture && typ <= h264.CodedSliceIDRPicture
		assert.Equal(t, expected, typ.IsCodedSlice(), typ.String())
	}
}

func TestNewByteRange_RejectsInvertedRange(t *testing.T) {
	_, err := h264.NewByteRange(10, 9)

	assert.ErrorIs(t, err, h264.ErrInvariantViolation)
}

func TestByteRange_Shift(t *testing.T) {
	r, err := h264.NewByteRange(3, 10)
	require.NoError(t, err)

	shifted, err := r.Shift(100)
	require.NoError(t, err)
	assert.Equal(t, int64(103), shifted.Start())
	assert.Equal(t, int64(110), shifted.End())
	assert.Equal(t, r.Len(), shifted.Len())

	_, err = r.Shift(-4)
	assert.ErrorIs(t, err, h264.ErrInvariantViolation)
}
