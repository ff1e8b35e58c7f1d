package mapper

import (
	"fmt"
	"sort"

	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/zap"
)

type Mapper struct {
	l *zap.SugaredLogger
}

func NewMapper(l *zap.SugaredLogger) *Mapper {
	return &Mapper{l: l}
}

// FromIDRIndicesToFrameNumbers translates indices into the IDR subset (what a thumbnail
// strip shows) into frame numbers.
func (m *Mapper) FromIDRIndicesToFrameNumbers(idrFrames []int, indices []int) ([]int, error) {
	frames := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(idrFrames) {
			return nil, fmt.Errorf("IDR index %d of %d: %w", i, len(idrFrames), entities.ErrIDRIndexOutOfRange)
		}
		frames = append(frames, idrFrames[i])
	}
	return frames, nil
}

// FromFrameNumbersToRemovalSet merges frame numbers, dropping duplicates.
func (m *Mapper) FromFrameNumbersToRemovalSet(frameSets ...[]int) []int {
	unique := map[int]struct{}{}
	for _, frames := range frameSets {
		for _, f := range frames {
			unique[f] = struct{}{}
		}
	}

	result := make([]int, 0, len(unique))
	for f := range unique {
		result = append(result, f)
	}
	sort.Ints(result)
	return result
}

// FromIDRFramesToEntities attaches presentation timestamps to IDR frames when timing is known.
func (m *Mapper) FromIDRFramesToEntities(idrFrames []int, timing *entities.TrackTiming) []entities.IDRFrame {
	result := make([]entities.IDRFrame, 0, len(idrFrames))
	for i, f := range idrFrames {
		idr := entities.IDRFrame{Index: i, Frame: f}
		if timing != nil {
			if f < len(timing.Frames) {
				pts := timing.Frames[f].PTS
				idr.PTS = &pts
			} else {
				m.l.Infow("no presentation time for frame",
					"frame", f,
				)
			}
		}
		result = append(result, idr)
	}
	return result
}
