package entities

import (
	"errors"
	"fmt"
)

var ErrHTTPGetOnly = errors.New("you must use http GET verb")
var ErrHTTPPostOnly = errors.New("you must use http POST verb")
var ErrMissingRequestParams = errors.New("request params must not be nil")

var ErrMissingSource = errors.New("source path must not be empty")
var ErrMissingDestination = errors.New("destination path must not be empty")
var ErrSameSourceAndDestination = errors.New("destination must differ from source")
var ErrNegativeFrameNumber = errors.New("frame numbers and IDR indices must not be negative")

var ErrFrameOutOfRange = errors.New("frame number is beyond the last coded slice")
var ErrIDRIndexOutOfRange = errors.New("IDR index is beyond the last IDR frame")

var ErrMissingMuxer = errors.New("there is no muxer")

// External multiplexer
var ErrMuxerTool = errors.New("muxer tool error")
var ErrMuxerToolNotFound = fmt.Errorf("%w executable not found", ErrMuxerTool)
var ErrMuxerToolFailed = fmt.Errorf("%w exited with failure", ErrMuxerTool)

// FFmpeg/LibAV
var ErrFFMpegLibAV = errors.New("ffmpeg/libav error")
var ErrFFmpegLibAVFormatContextIsNil = fmt.Errorf("%w format context is nil", ErrFFMpegLibAV)
var ErrFFmpegLibAVFormatContextOpenInputFailed = fmt.Errorf("%w format context open input has failed", ErrFFMpegLibAV)
var ErrFFmpegLibAVFindStreamInfo = fmt.Errorf("%w could not find stream info", ErrFFMpegLibAV)
var ErrFFmpegLibAVNoVideoStream = fmt.Errorf("%w no video stream", ErrFFMpegLibAV)
var ErrFFmpegLibAVReadFrame = fmt.Errorf("%w reading frame failed", ErrFFMpegLibAV)
