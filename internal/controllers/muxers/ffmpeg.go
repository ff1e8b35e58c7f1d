package muxers

import (
	"context"
	"fmt"

	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type FFmpeg struct {
	c *entities.Config
	l *zap.SugaredLogger
}

type ResultFFmpeg struct {
	fx.Out
	FFmpegMuxer Muxer `group:"muxers"`
}

// NewFFmpeg creates a new ffmpeg Muxer
func NewFFmpeg(c *entities.Config, l *zap.SugaredLogger) ResultFFmpeg {
	return ResultFFmpeg{
		FFmpegMuxer: &FFmpeg{
			c: c,
			l: l,
		},
	}
}

func (m *FFmpeg) Match(tool entities.MuxerTool) bool {
	return tool == entities.FFmpegMuxer
}

func (m *FFmpeg) Demux(ctx context.Context, container, elementary string) error {
	return run(ctx, m.l, m.c.FFmpegPath, m.demuxArgs(container, elementary)...)
}

func (m *FFmpeg) Remux(ctx context.Context, elementary, container string, frameRate float64) error {
	return run(ctx, m.l, m.c.FFmpegPath, m.remuxArgs(elementary, container, frameRate)...)
}

func (m *FFmpeg) demuxArgs(container, elementary string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostats", "-y",
		"-i", container,
		// VideoTrack is 1-based, ffmpeg stream specifiers are not
		"-map", fmt.Sprintf("0:v:%d", m.c.VideoTrack-1),
		"-c:v", "copy",
		"-bsf:v", "h264_mp4toannexb",
		"-f", "h264",
		elementary,
	}
}

func (m *FFmpeg) remuxArgs(elementary, container string, frameRate float64) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostats", "-y",
		"-framerate", formatFrameRate(frameRate),
		"-f", "h264",
		"-i", elementary,
		"-c:v", "copy",
		container,
	}
}
