package controllers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/smear-video/smear/h264"
	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/zap"
)

// LocateIDRFrames returns the frame numbers of IDR slices. Frame numbers count coded
// slices only, in stream order, starting at 0.
func LocateIDRFrames(units []h264.NALUnit) []int {
	var idrFrames []int
	frame := 0
	for _, u := range units {
		if u.Type == h264.CodedSliceIDRPicture {
			idrFrames = append(idrFrames, frame)
		}
		if u.Type.IsCodedSlice() {
			frame++
		}
	}
	return idrFrames
}

// FrameUnits maps every frame number to the index of its unit in units.
func FrameUnits(units []h264.NALUnit) []int {
	var frameUnits []int
	for i, u := range units {
		if u.Type.IsCodedSlice() {
			frameUnits = append(frameUnits, i)
		}
	}
	return frameUnits
}

// FrameNumbers is the inverse of FrameUnits: the frame number of every unit, -1 for non slices.
func FrameNumbers(units []h264.NALUnit) []int {
	frames := make([]int, len(units))
	frame := 0
	for i, u := range units {
		frames[i] = -1
		if u.Type.IsCodedSlice() {
			frames[i] = frame
			frame++
		}
	}
	return frames
}

// BitstreamEditor drops coded slices from an Annex-B stream, leaving every other byte in place.
type BitstreamEditor struct {
	l       *zap.SugaredLogger
	units   []h264.NALUnit
	removed map[int]struct{}
}

func NewBitstreamEditor(l *zap.SugaredLogger, units []h264.NALUnit) *BitstreamEditor {
	return &BitstreamEditor{
		l:       l,
		units:   units,
		removed: map[int]struct{}{},
	}
}

func (e *BitstreamEditor) IDRFrames() []int {
	return LocateIDRFrames(e.units)
}

// MarkForRemoval adds frame numbers (not IDR indices, not unit indices) to the removal set.
func (e *BitstreamEditor) MarkForRemoval(frames ...int) {
	for _, f := range frames {
		e.removed[f] = struct{}{}
	}
}

func (e *BitstreamEditor) RemovedFrames() []int {
	frames := make([]int, 0, len(e.removed))
	for f := range e.removed {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

// RemovalSet translates the marked frame numbers into unit indices.
func (e *BitstreamEditor) RemovalSet() (map[int]struct{}, error) {
	frameUnits := FrameUnits(e.units)
	set := make(map[int]struct{}, len(e.removed))
	for f := range e.removed {
		if f < 0 || f >= len(frameUnits) {
			return nil, fmt.Errorf("frame %d of %d: %w", f, len(frameUnits), entities.ErrFrameOutOfRange)
		}
		set[frameUnits[f]] = struct{}{}
	}
	return set, nil
}

// Rewrite copies sourcePath to destPath without the marked frames. The output is written
// to a temporary file next to destPath and renamed into place only once it is synced.
func (e *BitstreamEditor) Rewrite(ctx context.Context, sourcePath, destPath string) (*entities.RewriteStats, error) {
	removal, err := e.RemovalSet()
	if err != nil {
		return nil, err
	}
	if err := checkContiguous(e.units); err != nil {
		return nil, err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("error while opening source %s: %w", sourcePath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("error while reading source %s: %w", sourcePath, err)
	}
	if n := len(e.units); n > 0 && e.units[n-1].Range.End() > info.Size() {
		return nil, fmt.Errorf("%w: units end at %d, source %s has %d bytes",
			h264.ErrInvariantViolation, e.units[n-1].Range.End(), sourcePath, info.Size())
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("error while creating output for %s: %w", destPath, err)
	}

	stats, err := e.writeRetained(ctx, src, tmp, removal)
	if err == nil {
		err = tmp.Chmod(info.Mode().Perm())
	}
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("error while closing output: %w", closeErr)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), destPath)
	}
	if err != nil {
		os.Remove(tmp.Name())
		e.l.Errorw("failed to rewrite elementary stream",
			"source", sourcePath,
			"destination", destPath,
			"error", err,
		)
		return nil, err
	}

	e.l.Infow("rewrote elementary stream",
		"source", sourcePath,
		"destination", destPath,
		"removed_frames", stats.RemovedFrames,
		"units_removed", stats.UnitsRemoved,
		"bytes_removed", humanize.Bytes(uint64(stats.BytesRemoved)),
	)
	return stats, nil
}

func (e *BitstreamEditor) writeRetained(ctx context.Context, src *os.File, dst io.Writer, removal map[int]struct{}) (*entities.RewriteStats, error) {
	w := bufio.NewWriter(dst)
	stats := &entities.RewriteStats{RemovedFrames: e.RemovedFrames()}

	// bytes ahead of the first start code are kept as they are
	var head int64
	if len(e.units) > 0 {
		head = e.units[0].Range.Start()
	}
	if err := copyExactly(w, src, head); err != nil {
		return nil, err
	}
	stats.BytesWritten += head

	for i, u := range e.units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, ok := removal[i]; ok {
			if _, err := src.Seek(u.Range.Len(), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("error while skipping unit %d: %w", i, err)
			}
			stats.UnitsRemoved++
			stats.BytesRemoved += u.Range.Len()
			continue
		}

		if err := copyExactly(w, src, u.Range.Len()); err != nil {
			return nil, fmt.Errorf("unit %d at %s: %w", i, u.Range, err)
		}
		stats.UnitsWritten++
		stats.BytesWritten += u.Range.Len()
	}

	// trailing bytes too short to form a unit
	tail, err := io.Copy(w, src)
	if err != nil {
		return nil, fmt.Errorf("error while copying trailing bytes: %w", err)
	}
	stats.BytesWritten += tail

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("error while flushing output: %w", err)
	}
	return stats, nil
}

func copyExactly(w io.Writer, r io.Reader, n int64) error {
	if _, err := io.CopyN(w, r, n); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: source is shorter than its units", h264.ErrInvariantViolation)
		}
		return fmt.Errorf("error while copying: %w", err)
	}
	return nil
}

func checkContiguous(units []h264.NALUnit) error {
	for i := 1; i < len(units); i++ {
		if units[i].Range.Start() != units[i-1].Range.End() {
			return fmt.Errorf("%w: unit %d starts at %d, previous ends at %d",
				h264.ErrInvariantViolation, i, units[i].Range.Start(), units[i-1].Range.End())
		}
	}
	return nil
}
