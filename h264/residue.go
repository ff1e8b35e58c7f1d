package h264

import (
	"bytes"
	"fmt"
)

// Residue holds the bytes of a NAL unit whose terminating start code has not been seen yet.
// A nil *Residue means no unit is pending.
type Residue struct {
	Data  []byte
	Start int64
}

func (r *Residue) Range() (ByteRange, error) {
	return NewByteRange(r.Start, r.Start+int64(len(r.Data)))
}

// ProcessChunk advances the parser state by one chunk read at chunkOffset.
// It returns the units closed by this chunk and the residue to carry into the next one.
func ProcessChunk(startCodeLength int, prev *Residue, chunk []byte, chunkOffset int64) ([]NALUnit, *Residue, error) {
	startCode := StartCode(startCodeLength)

	if prev == nil {
		codes := Ranges(chunk, startCode)
		if len(codes) == 0 {
			// nothing opened yet, bytes before the first start code are dropped
			return nil, nil, nil
		}
		return splitUnits(startCodeLength, chunk, chunkOffset, codes)
	}

	if prev.Start+int64(len(prev.Data)) != chunkOffset {
		return nil, nil, fmt.Errorf("%w: residue [%d, %d) does not end at chunk offset %d",
			ErrInvariantViolation, prev.Start, prev.Start+int64(len(prev.Data)), chunkOffset)
	}
	if len(prev.Data) < startCodeLength {
		return nil, nil, fmt.Errorf("%w: residue at %d is shorter than its start code",
			ErrInvariantViolation, prev.Start)
	}

	joined := append(prev.Data, chunk...)

	// a start code may straddle the chunk edge, so the scan backs up into the residue
	from := int64(len(prev.Data) - (startCodeLength - 1))
	if from < int64(startCodeLength) {
		from = int64(startCodeLength)
	}
	found := RangesWithin(joined, startCode, ByteRange{start: from, end: int64(len(joined))})
	if len(found) == 0 {
		return nil, &Residue{Data: joined, Start: prev.Start}, nil
	}

	codes := make([]ByteRange, 0, len(found)+1)
	codes = append(codes, ByteRange{start: 0, end: int64(startCodeLength)})
	codes = append(codes, found...)
	return splitUnits(startCodeLength, joined, prev.Start, codes)
}

// Flush closes the pending residue at end of input. Residues too short to carry a
// header byte are trailing garbage and yield no unit.
func Flush(startCodeLength int, r *Residue) (*NALUnit, error) {
	if r == nil || len(r.Data) < startCodeLength+1 {
		return nil, nil
	}
	u, err := newNALUnit(startCodeLength, r.Data, r.Start, 0, int64(len(r.Data)))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// splitUnits emits a unit for every adjacent pair of codes in buf; the tail from the last
// code becomes the new residue. base is the stream offset of buf[0].
func splitUnits(startCodeLength int, buf []byte, base int64, codes []ByteRange) ([]NALUnit, *Residue, error) {
	units := make([]NALUnit, 0, len(codes)-1)
	for i := 0; i+1 < len(codes); i++ {
		u, err := newNALUnit(startCodeLength, buf, base, codes[i].start, codes[i+1].start)
		if err != nil {
			return nil, nil, err
		}
		units = append(units, u)
	}

	last := codes[len(codes)-1].start
	return units, &Residue{Data: bytes.Clone(buf[last:]), Start: base + last}, nil
}

func newNALUnit(startCodeLength int, buf []byte, base, from, to int64) (NALUnit, error) {
	if to-from < int64(startCodeLength)+1 {
		return NALUnit{}, fmt.Errorf("%w: nal unit at offset %d has no header byte", ErrMalformedStream, base+from)
	}
	r, err := NewByteRange(from, to)
	if err != nil {
		return NALUnit{}, err
	}
	if r, err = r.Shift(base); err != nil {
		return NALUnit{}, err
	}
	return NALUnit{
		Type:  NALUnitTypeFromHeader(buf[from+int64(startCodeLength)]),
		Range: r,
	}, nil
}
