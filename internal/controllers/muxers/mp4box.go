package muxers

import (
	"context"
	"strconv"

	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MP4Box drives GPAC's MP4Box. Only ISO BMFF containers are supported.
type MP4Box struct {
	c *entities.Config
	l *zap.SugaredLogger
}

type ResultMP4Box struct {
	fx.Out
	MP4BoxMuxer Muxer `group:"muxers"`
}

// NewMP4Box creates a new MP4Box Muxer
func NewMP4Box(c *entities.Config, l *zap.SugaredLogger) ResultMP4Box {
	return ResultMP4Box{
		MP4BoxMuxer: &MP4Box{
			c: c,
			l: l,
		},
	}
}

func (m *MP4Box) Match(tool entities.MuxerTool) bool {
	return tool == entities.MP4BoxMuxer
}

func (m *MP4Box) Demux(ctx context.Context, container, elementary string) error {
	return run(ctx, m.l, m.c.MP4BoxPath, m.demuxArgs(container, elementary)...)
}

func (m *MP4Box) Remux(ctx context.Context, elementary, container string, frameRate float64) error {
	return run(ctx, m.l, m.c.MP4BoxPath, m.remuxArgs(elementary, container, frameRate)...)
}

func (m *MP4Box) demuxArgs(container, elementary string) []string {
	return []string{"-raw", strconv.Itoa(m.c.VideoTrack), container, "-out", elementary}
}

func (m *MP4Box) remuxArgs(elementary, container string, frameRate float64) []string {
	return []string{"-add", elementary + ":fps=" + formatFrameRate(frameRate), "-new", container}
}
