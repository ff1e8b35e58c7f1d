package muxers

import (
	"context"

	"github.com/smear-video/smear/internal/entities"
)

type Muxer interface {
	// Demux extracts the video track of container into an Annex-B elementary stream file.
	Demux(ctx context.Context, container, elementary string) error
	// Remux wraps an Annex-B elementary stream file into container.
	Remux(ctx context.Context, elementary, container string, frameRate float64) error
	Match(tool entities.MuxerTool) bool
}
