package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smear-video/smear/internal/controllers"
	"github.com/smear-video/smear/internal/controllers/muxers"
	"github.com/smear-video/smear/internal/controllers/probers"
	"github.com/smear-video/smear/internal/entities"
	"github.com/smear-video/smear/internal/mapper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type SmearEngineParams struct {
	fx.In
	C       *entities.Config
	L       *zap.SugaredLogger
	Muxers  []muxers.Muxer       `group:"muxers"`
	Probers []probers.FrameTimer `group:"probers"`
	H264    *controllers.H264Controller
	Mapper  *mapper.Mapper
}

// SmearEngineController runs demux, parse, frame removal and remux for one request at a time.
type SmearEngineController struct {
	p SmearEngineParams
}

func NewSmearEngineController(p SmearEngineParams) *SmearEngineController {
	return &SmearEngineController{p}
}

func (c *SmearEngineController) Probe(ctx context.Context, req *entities.ProbeRequest) (*entities.StreamReport, error) {
	if err := req.Valid(); err != nil {
		return nil, err
	}

	ws, err := c.newWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	es, err := c.elementaryStream(ctx, req.Source, ws)
	if err != nil {
		return nil, err
	}

	units, startCodeLength, err := c.p.H264.Parse(ctx, es)
	if err != nil {
		return nil, err
	}

	summaries, err := c.p.H264.Inspect(ctx, es, units, startCodeLength)
	if err != nil {
		return nil, err
	}

	var timing *entities.TrackTiming
	if prober := c.selectProberFor(req.Source); prober != nil {
		if timing, err = prober.FrameTimes(ctx, req.Source); err != nil {
			c.p.L.Errorw("failed to read frame times",
				"source", req.Source,
				"error", err,
			)
			return nil, err
		}
	}

	report := &entities.StreamReport{
		Source:          req.Source,
		StartCodeLength: startCodeLength,
		Units:           summaries,
		Frames:          len(controllers.FrameUnits(units)),
		IDRFrames:       c.p.Mapper.FromIDRFramesToEntities(controllers.LocateIDRFrames(units), timing),
	}
	if es == req.Source || ws.keep {
		report.ElementaryStream = es
	}
	return report, nil
}

func (c *SmearEngineController) Smear(ctx context.Context, req *entities.SmearRequest) (*entities.SmearResult, error) {
	if err := req.Valid(); err != nil {
		return nil, err
	}

	ws, err := c.newWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	es, err := c.elementaryStream(ctx, req.Source, ws)
	if err != nil {
		return nil, err
	}

	units, _, err := c.p.H264.Parse(ctx, es)
	if err != nil {
		return nil, err
	}

	editor := controllers.NewBitstreamEditor(c.p.L, units)
	idrFrames, err := c.p.Mapper.FromIDRIndicesToFrameNumbers(editor.IDRFrames(), req.IDRIndices)
	if err != nil {
		return nil, err
	}
	editor.MarkForRemoval(c.p.Mapper.FromFrameNumbersToRemovalSet(req.FrameNumbers, idrFrames)...)

	if entities.IsElementaryStream(req.Destination) {
		stats, err := editor.Rewrite(ctx, es, req.Destination)
		if err != nil {
			return nil, err
		}
		return &entities.SmearResult{Source: req.Source, Destination: req.Destination, Stats: *stats}, nil
	}

	edited := filepath.Join(ws.dir, "edited.h264")
	stats, err := editor.Rewrite(ctx, es, edited)
	if err != nil {
		return nil, err
	}

	if err := c.remux(ctx, req.Source, edited, req.Destination); err != nil {
		return nil, err
	}
	return &entities.SmearResult{Source: req.Source, Destination: req.Destination, Stats: *stats}, nil
}

// elementaryStream returns source itself for Annex-B files, otherwise demuxes it into ws.
func (c *SmearEngineController) elementaryStream(ctx context.Context, source string, ws *workspace) (string, error) {
	if entities.IsElementaryStream(source) {
		return source, nil
	}

	muxer := c.selectMuxerFor(c.p.C.MuxerTool)
	if muxer == nil {
		return "", fmt.Errorf("muxer %q: %w", c.p.C.MuxerTool, entities.ErrMissingMuxer)
	}

	es := filepath.Join(ws.dir, "source.h264")
	if err := muxer.Demux(ctx, source, es); err != nil {
		c.p.L.Errorw("failed to demux source",
			"source", source,
			"error", err,
		)
		return "", err
	}
	return es, nil
}

// remux wraps edited into destination. The container is written next to destination
// and renamed over it once the muxer succeeds.
func (c *SmearEngineController) remux(ctx context.Context, source, edited, destination string) error {
	muxer := c.selectMuxerFor(c.p.C.MuxerTool)
	if muxer == nil {
		return fmt.Errorf("muxer %q: %w", c.p.C.MuxerTool, entities.ErrMissingMuxer)
	}

	frameRate := c.p.C.FrameRate
	if prober := c.selectProberFor(source); prober != nil {
		timing, err := prober.FrameTimes(ctx, source)
		if err != nil {
			c.p.L.Errorw("failed to read source frame rate, using the configured one",
				"source", source,
				"frame_rate", frameRate,
				"error", err,
			)
		} else if timing.FrameRate > 0 {
			frameRate = timing.FrameRate
		}
	}

	tmp := filepath.Join(filepath.Dir(destination), ".smear-tmp-"+filepath.Base(destination))
	if err := muxer.Remux(ctx, edited, tmp, frameRate); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, destination); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error while moving remuxed output to %s: %w", destination, err)
	}
	return nil
}

func (c *SmearEngineController) selectMuxerFor(tool entities.MuxerTool) muxers.Muxer {
	for _, m := range c.p.Muxers {
		if m.Match(tool) {
			return m
		}
	}
	return nil
}

func (c *SmearEngineController) selectProberFor(source string) probers.FrameTimer {
	for _, p := range c.p.Probers {
		if p.Match(source) {
			return p
		}
	}
	return nil
}

type workspace struct {
	dir  string
	keep bool
	l    *zap.SugaredLogger
}

func (c *SmearEngineController) newWorkspace() (*workspace, error) {
	dir, err := os.MkdirTemp(c.p.C.WorkDir, "smear-*")
	if err != nil {
		return nil, fmt.Errorf("error while creating work dir: %w", err)
	}
	return &workspace{dir: dir, keep: c.p.C.KeepIntermediate, l: c.p.L}, nil
}

func (w *workspace) Close() {
	if w.keep {
		w.l.Infow("keeping intermediate files",
			"dir", w.dir,
		)
		return
	}
	if err := os.RemoveAll(w.dir); err != nil {
		w.l.Errorw("failed to remove work dir",
			"dir", w.dir,
			"error", err,
		)
	}
}
