package probers

import (
	"context"

	"github.com/smear-video/smear/internal/entities"
)

// FrameTimer looks up the presentation timestamp of every frame of a container's video track.
type FrameTimer interface {
	FrameTimes(ctx context.Context, container string) (*entities.TrackTiming, error)
	Match(source string) bool
}
