package probers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type LibAVFFmpeg struct {
	c *entities.Config
	l *zap.SugaredLogger
}

type ResultLibAVFFmpeg struct {
	fx.Out
	LibAVFFmpegProber FrameTimer `group:"probers"`
}

// NewLibAVFFmpeg creates a new LibAVFFmpeg FrameTimer
func NewLibAVFFmpeg(
	c *entities.Config,
	l *zap.SugaredLogger,
) ResultLibAVFFmpeg {
	astiav.SetLogLevel(astiav.LogLevelError)
	astiav.SetLogCallback(func(ll astiav.LogLevel, fmt, msg, parent string) {
		l.Infow("ffmpeg log",
			"level", ll,
			"msg", strings.TrimSpace(msg),
		)
	})

	return ResultLibAVFFmpeg{
		LibAVFFmpegProber: &LibAVFFmpeg{
			c: c,
			l: l,
		},
	}
}

// Match returns true for container sources, elementary streams carry no timestamps
func (c *LibAVFFmpeg) Match(source string) bool {
	return !entities.IsElementaryStream(source)
}

// FrameTimes reads every packet of the selected video track, without decoding, in stream order.
func (c *LibAVFFmpeg) FrameTimes(ctx context.Context, container string) (*entities.TrackTiming, error) {
	closer := astikit.NewCloser()
	defer closer.Close()

	var inputFormatContext *astiav.FormatContext
	if inputFormatContext = astiav.AllocFormatContext(); inputFormatContext == nil {
		return nil, entities.ErrFFmpegLibAVFormatContextIsNil
	}
	closer.Add(inputFormatContext.Free)

	if err := inputFormatContext.OpenInput(container, nil, nil); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", container, entities.ErrFFmpegLibAVFormatContextOpenInputFailed, err)
	}
	closer.Add(inputFormatContext.CloseInput)

	if err := inputFormatContext.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", container, entities.ErrFFmpegLibAVFindStreamInfo, err)
	}

	video := c.videoStream(inputFormatContext)
	if video == nil {
		return nil, fmt.Errorf("%s track %d: %w", container, c.c.VideoTrack, entities.ErrFFmpegLibAVNoVideoStream)
	}

	timing := &entities.TrackTiming{}
	if r := inputFormatContext.GuessFrameRate(video, nil); r.Num() > 0 && r.Den() > 0 {
		timing.FrameRate = r.ToDouble()
	}

	pkt := astiav.AllocPacket()
	closer.Add(pkt.Free)
	timeBase := video.TimeBase()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := inputFormatContext.ReadFrame(pkt); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				break
			}
			return nil, fmt.Errorf("%w: %w", entities.ErrFFmpegLibAVReadFrame, err)
		}

		// AV_NOPTS_VALUE is INT64_MIN
		if pkt.StreamIndex() == video.Index() && pkt.Size() > 0 && pkt.Pts() != math.MinInt64 {
			timing.Frames = append(timing.Frames, entities.FrameTime{
				Frame: len(timing.Frames),
				PTS:   toDuration(pkt.Pts(), timeBase),
				Key:   pkt.Flags().Has(astiav.PacketFlagKey),
			})
		}
		pkt.Unref()
	}

	c.l.Infow("read frame times",
		"container", container,
		"frames", len(timing.Frames),
		"frame_rate", timing.FrameRate,
	)
	return timing, nil
}

// videoStream picks the VideoTrack-th video stream, 1-based.
func (c *LibAVFFmpeg) videoStream(fc *astiav.FormatContext) *astiav.Stream {
	n := 0
	for _, is := range fc.Streams() {
		if is.CodecParameters().MediaType() != astiav.MediaTypeVideo {
			c.l.Infow("skipping media type",
				"type", is.CodecParameters().MediaType().String(),
			)
			continue
		}
		n++
		if n == c.c.VideoTrack {
			return is
		}
	}
	return nil
}

func toDuration(ts int64, timeBase astiav.Rational) time.Duration {
	if timeBase.Den() == 0 {
		return 0
	}
	return time.Duration(float64(ts) * float64(timeBase.Num()) / float64(timeBase.Den()) * float64(time.Second))
}
