package muxers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"

	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/zap"
)

// run executes the tool and waits for it. Its stderr ends up in the returned error.
func run(ctx context.Context, l *zap.SugaredLogger, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	l.Infow("running muxer",
		"cmd", bin,
		"args", strings.Join(args, " "),
	)

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", bin, entities.ErrMuxerToolNotFound)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Errorw("muxer failed",
			"cmd", bin,
			"stderr", stderr.String(),
			"error", err,
		)
		return fmt.Errorf("%s: %w: %v: %s", bin, entities.ErrMuxerToolFailed, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func formatFrameRate(frameRate float64) string {
	return strconv.FormatFloat(frameRate, 'f', -1, 64)
}
