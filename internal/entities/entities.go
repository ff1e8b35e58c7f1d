package entities

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/smear-video/smear/h264"
)

type MuxerTool string

const (
	FFmpegMuxer MuxerTool = "ffmpeg"
	MP4BoxMuxer MuxerTool = "mp4box"
)

// Extensions of raw Annex-B elementary stream files, anything else is treated as a container.
var ElementaryStreamExtensions = []string{".h264", ".264", ".avc", ".h26l", ".es"}

func IsElementaryStream(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ElementaryStreamExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

type ProbeRequest struct {
	Source string `json:"source"`
}

func (p *ProbeRequest) Valid() error {
	if p == nil {
		return ErrMissingRequestParams
	}

	if p.Source == "" {
		return ErrMissingSource
	}

	return nil
}

type SmearRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	// FrameNumbers count every coded slice in stream order.
	FrameNumbers []int `json:"frame_numbers"`
	// IDRIndices index into the IDR frames only, as shown by a thumbnail strip.
	IDRIndices []int `json:"idr_indices"`
}

func (p *SmearRequest) Valid() error {
	if p == nil {
		return ErrMissingRequestParams
	}

	if p.Source == "" {
		return ErrMissingSource
	}

	if p.Destination == "" {
		return ErrMissingDestination
	}

	if filepath.Clean(p.Source) == filepath.Clean(p.Destination) {
		return ErrSameSourceAndDestination
	}

	for _, f := range p.FrameNumbers {
		if f < 0 {
			return ErrNegativeFrameNumber
		}
	}

	for _, i := range p.IDRIndices {
		if i < 0 {
			return ErrNegativeFrameNumber
		}
	}

	return nil
}

type Unit struct {
	Index  int            `json:"index"`
	Type   string         `json:"type"`
	TypeID byte           `json:"type_id"`
	Range  h264.ByteRange `json:"range"`
	Size   int64          `json:"size"`
	// Frame is the frame number of coded slices, -1 for every other unit.
	Frame int `json:"frame"`

	RefIDC           byte `json:"ref_idc"`
	ForbiddenZeroBit bool `json:"forbidden_zero_bit,omitempty"`
	SEIPayloadType   *int `json:"sei_payload_type,omitempty"`
	SEIPayloadSize   *int `json:"sei_payload_size,omitempty"`

	// Caption is the EIA-608 text completed by this unit, if any.
	Caption string `json:"caption,omitempty"`
}

type FrameTime struct {
	// Frame is the frame number, counted the same way the editor counts coded slices.
	Frame int           `json:"frame"`
	PTS   time.Duration `json:"pts"`
	Key   bool          `json:"key"`
}

type IDRFrame struct {
	Index int `json:"index"`
	Frame int `json:"frame"`
	// PTS is only known when the source is a container.
	PTS *time.Duration `json:"pts,omitempty"`
}

type StreamReport struct {
	Source           string     `json:"source"`
	ElementaryStream string     `json:"elementary_stream"`
	StartCodeLength  int        `json:"start_code_length"`
	Units            []Unit     `json:"units"`
	Frames           int        `json:"frames"`
	IDRFrames        []IDRFrame `json:"idr_frames"`
}

type RewriteStats struct {
	UnitsWritten  int   `json:"units_written"`
	UnitsRemoved  int   `json:"units_removed"`
	BytesWritten  int64 `json:"bytes_written"`
	BytesRemoved  int64 `json:"bytes_removed"`
	RemovedFrames []int `json:"removed_frames"`
}

type SmearResult struct {
	Source      string       `json:"source"`
	Destination string       `json:"destination"`
	Stats       RewriteStats `json:"stats"`
}

type Config struct {
	HTTPPort int32  `required:"true" default:"8080"`
	HTTPHost string `required:"true" default:"0.0.0.0"`

	Debug bool `default:"false"`

	// Parser
	ChunkSizeBytes int `required:"true" default:"16384"`
	SniffSizeBytes int `required:"true" default:"1024"`

	// External multiplexer
	MuxerTool  MuxerTool `required:"true" default:"ffmpeg"`
	FFmpegPath string    `required:"true" default:"ffmpeg"`
	MP4BoxPath string    `required:"true" default:"MP4Box"`
	// MP4Box track selector, 1-based
	VideoTrack int `required:"true" default:"1"`
	// used when remuxing and the source frame rate is unknown
	FrameRate float64 `required:"true" default:"30"`

	// Intermediate elementary streams go here, empty means os.TempDir()
	WorkDir          string `default:""`
	KeepIntermediate bool   `default:"false"`
}

type TrackTiming struct {
	// FrameRate is 0 when the container does not tell
	FrameRate float64     `json:"frame_rate"`
	Frames    []FrameTime `json:"frames"`
}
