package h264

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	DefaultSniffSize = 1024

	ShortStartCodeLength = 3
	LongStartCodeLength  = 4
)

var (
	shortStartCode = []byte{0x00, 0x00, 0x01}
	longStartCode  = []byte{0x00, 0x00, 0x00, 0x01}
)

// StartCode returns the Annex-B start code prefix of the given width (3 or 4).
func StartCode(length int) []byte {
	if length == LongStartCodeLength {
		return longStartCode
	}
	return shortStartCode
}

// SniffStartCodeLength decides the start code width from the first sniffSize bytes of rs and
// seeks rs to the absolute offset of the first start code.
//
// A window holding both widths (x264 writes 4-byte codes only before parameter sets and the
// first unit of an access unit) is reported as 3: every 4-byte code then splits as a 3-byte
// one and its leading zero stays with the previous unit.
func SniffStartCodeLength(rs io.ReadSeeker, sniffSize int) (int, int64, error) {
	if sniffSize <= 0 {
		return 0, 0, ErrInvalidSniffSize
	}

	base, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, fmt.Errorf("error while locating sniff position: %w", err)
	}

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(rs, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, 0, fmt.Errorf("error while sniffing start code: %w", err)
	}
	buf = buf[:n]

	length := LongStartCodeLength
	idx := bytes.Index(buf, longStartCode)
	if idx < 0 || hasShortStartCode(buf) {
		length = ShortStartCodeLength
		idx = bytes.Index(buf, shortStartCode)
	}
	if idx < 0 {
		return 0, 0, fmt.Errorf("%w: no start code in the first %d bytes", ErrMalformedStream, n)
	}

	offset := base + int64(idx)
	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return 0, 0, fmt.Errorf("error while seeking to the first start code: %w", err)
	}
	return length, offset, nil
}

// hasShortStartCode reports whether buf holds a 3-byte start code that is not the tail of a 4-byte one.
func hasShortStartCode(buf []byte) bool {
	for _, r := range Ranges(buf, shortStartCode) {
		if r.start == 0 || buf[r.start-1] != 0x00 {
			return true
		}
	}
	return false
}
