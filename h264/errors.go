package h264

import "errors"

var ErrMalformedStream = errors.New("malformed annex-b stream")
var ErrInvariantViolation = errors.New("nal unit bookkeeping invariant violated")
var ErrParserFinished = errors.New("parser has already consumed its input")
var ErrInvalidChunkSize = errors.New("chunk size is too small")
var ErrInvalidSniffSize = errors.New("sniff size must be positive")

// NAL header
var ErrEmptyNAL = errors.New("nal unit has no header byte")
var ErrTruncatedSEI = errors.New("sei message is truncated")
