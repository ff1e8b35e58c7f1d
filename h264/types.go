package h264

import (
	"encoding/json"
	"fmt"
)

type NALUnitType byte

const (
	// Rec. ITU-T H.264 (08/2021) p.65
	Unspecified0                                            = NALUnitType(0)  //	Unspecified
	CodedSliceNonIDRPicture                                 = NALUnitType(1)  //	Coded slice of a non-IDR picture
	CodedSliceDataPartitionA                                = NALUnitType(2)  //	Coded slice data partition A
	CodedSliceDataPartitionB                                = NALUnitType(3)  //	Coded slice data partition B
	CodedSliceDataPartitionC                                = NALUnitType(4)  //	Coded slice data partition C
	CodedSliceIDRPicture                                    = NALUnitType(5)  //	Coded slice of an IDR picture
	SupplementalEnhancementInformation                      = NALUnitType(6)  //	Supplemental enhancement information (SEI)
	SequenceParameterSet                                    = NALUnitType(7)  //	Sequence parameter set
	PictureParameterSet                                     = NALUnitType(8)  //	Picture parameter set
	AccessUnitDelimiter                                     = NALUnitType(9)  //	Access unit delimiter
	EndOfSequence                                           = NALUnitType(10) //	End of sequence
	EndOfStream                                             = NALUnitType(11) //	End of stream
	FillerData                                              = NALUnitType(12) //	Filler data
	SequenceParameterSetExtension                           = NALUnitType(13) //	Sequence parameter set extension
	PrefixNALUnit                                           = NALUnitType(14) //	Prefix NAL unit
	SubsetSequenceParameterSet                              = NALUnitType(15) //	Subset sequence parameter set
	DepthParameterSet                                       = NALUnitType(16) //	Depth parameter set
	Reserved17                                              = NALUnitType(17) //	Reserved
	Reserved18                                              = NALUnitType(18) //	Reserved
	CodedSliceAuxiliaryCodedPictureWithoutPartitioning      = NALUnitType(19) //	Coded slice of an auxiliary coded  picture without partitioning
	CodedSliceExtension                                     = NALUnitType(20) //	Coded slice extension
	CodedSliceExtensionDepthViewComponentOr3DAVCTextureView = NALUnitType(21) //	Coded slice extension for a depth view component or a 3D-AVC texture view component
	Reserved22                                              = NALUnitType(22) //	Reserved
	Reserved23                                              = NALUnitType(23) //	Reserved
	Unspecified24                                           = NALUnitType(24) //	Unspecified
	Unspecified25                                           = NALUnitType(25) //	Unspecified
	Unspecified26                                           = NALUnitType(26) //	Unspecified
	Unspecified27                                           = NALUnitType(27) //	Unspecified
	Unspecified28                                           = NALUnitType(28) //	Unspecified
	Unspecified29                                           = NALUnitType(29) //	Unspecified
	Unspecified30                                           = NALUnitType(30) //	Unspecified
	Unspecified31                                           = NALUnitType(31) //	Unspecified
)

var nalUnitTypeNames = [32]string{
	"Unspecified0",
	"CodedSliceNonIDR",
	"CodedSliceDataPartitionA",
	"CodedSliceDataPartitionB",
	"CodedSliceDataPartitionC",
	"CodedSliceIDR",
	"SEI",
	"SPS",
	"PPS",
	"AccessUnitDelimiter",
	"EndOfSequence",
	"EndOfStream",
	"FillerData",
	"SPSExtension",
	"Prefix",
	"SubsetSPS",
	"DepthParameterSet",
	"Reserved17",
	"Reserved18",
	"CodedSliceAux",
	"CodedSliceExtension",
	"CodedSliceDepth",
	"Reserved22",
	"Reserved23",
	"Unspecified24",
	"Unspecified25",
	"Unspecified26",
	"Unspecified27",
	"Unspecified28",
	"Unspecified29",
	"Unspecified30",
	"Unspecified31",
}

// NALUnitTypeFromHeader reads nal_unit_type from the low 5 bits of a NAL header byte.
func NALUnitTypeFromHeader(b byte) NALUnitType {
	return NALUnitType(b & 0x1f)
}

// IsCodedSlice reports whether units of this type are counted as video frames.
func (t NALUnitType) IsCodedSlice() bool {
	switch t {
	case CodedSliceNonIDRPicture,
		CodedSliceDataPartitionA,
		CodedSliceDataPartitionB,
		CodedSliceDataPartitionC,
		CodedSliceIDRPicture:
		return true
	}
	return false
}

func (t NALUnitType) String() string {
	if int(t) < len(nalUnitTypeNames) {
		return nalUnitTypeNames[t]
	}
	return fmt.Sprintf("NALUnitType(%d)", byte(t))
}

// ByteRange is a half-open interval [start, end) of absolute stream offsets.
type ByteRange struct {
	start int64
	end   int64
}

func NewByteRange(start, end int64) (ByteRange, error) {
	if start < 0 || end < start {
		return ByteRange{}, fmt.Errorf("%w: byte range [%d, %d)", ErrInvariantViolation, start, end)
	}
	return ByteRange{start: start, end: end}, nil
}

func (r ByteRange) Start() int64 { return r.start }
func (r ByteRange) End() int64   { return r.end }
func (r ByteRange) Len() int64   { return r.end - r.start }

// Shift moves the range by off bytes, used to translate in-chunk offsets into stream offsets.
func (r ByteRange) Shift(off int64) (ByteRange, error) {
	return NewByteRange(r.start+off, r.end+off)
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.start, r.end)
}

func (r ByteRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	}{r.start, r.end})
}

func (r *ByteRange) UnmarshalJSON(b []byte) error {
	var v struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := NewByteRange(v.Start, v.End)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// NALUnit is one start-code-prefixed unit of an Annex-B stream. Range includes the start code.
type NALUnit struct {
	Type  NALUnitType
	Range ByteRange
}
