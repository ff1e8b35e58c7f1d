package h264

import "bytes"

// Ranges returns every occurrence of needle in haystack, left to right.
// Matches never overlap: each search resumes after the end of the previous match.
func Ranges(haystack, needle []byte) []ByteRange {
	return RangesWithin(haystack, needle, ByteRange{start: 0, end: int64(len(haystack))})
}

// RangesWithin is Ranges restricted to the within sub-range of haystack.
// Returned ranges are in haystack coordinates.
func RangesWithin(haystack, needle []byte, within ByteRange) []ByteRange {
	start, end := within.start, within.end
	if end > int64(len(haystack)) {
		end = int64(len(haystack))
	}
	if len(needle) == 0 || start >= end || end-start < int64(len(needle)) {
		return nil
	}

	var ranges []ByteRange
	n := int64(len(needle))
	for pos := start; pos+n <= end; {
		i := bytes.Index(haystack[pos:end], needle)
		if i < 0 {
			break
		}
		at := pos + int64(i)
		ranges = append(ranges, ByteRange{start: at, end: at + n})
		pos = at + n
	}
	return ranges
}
