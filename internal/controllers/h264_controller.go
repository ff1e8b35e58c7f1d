package controllers

import (
	"context"
	"fmt"
	"os"

	"github.com/smear-video/smear/h264"
	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/zap"
)

type H264Controller struct {
	c *entities.Config
	l *zap.SugaredLogger
}

func NewH264Controller(c *entities.Config, l *zap.SugaredLogger) *H264Controller {
	return &H264Controller{
		c: c,
		l: l,
	}
}

// Parse splits the elementary stream at path into NAL units and reports its start code width.
func (c *H264Controller) Parse(ctx context.Context, path string) ([]h264.NALUnit, int, error) {
	p, err := h264.Open(path,
		h264.WithChunkSize(c.c.ChunkSizeBytes),
		h264.WithSniffSize(c.c.SniffSizeBytes),
	)
	if err != nil {
		c.l.Errorw("failed to open elementary stream",
			"path", path,
			"error", err,
		)
		return nil, 0, err
	}
	defer p.Close()

	units, err := p.Parse(ctx)
	if err != nil {
		c.l.Errorw("failed to parse elementary stream",
			"path", path,
			"error", err,
		)
		return nil, 0, err
	}

	c.l.Infow("parsed elementary stream",
		"path", path,
		"units", len(units),
		"start_code_length", p.StartCodeLength(),
		"first_start_code", p.FirstStartCode(),
	)
	return units, p.StartCodeLength(), nil
}

// Inspect reads every unit back from path and decodes its header, the first
// sei_message of SEI units and any EIA-608 caption they complete.
func (c *H264Controller) Inspect(ctx context.Context, path string, units []h264.NALUnit, startCodeLength int) ([]entities.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error while opening %s: %w", path, err)
	}
	defer f.Close()

	frames := FrameNumbers(units)
	captions := NewCaptionReader()
	result := make([]entities.Unit, 0, len(units))
	var buf []byte

	for i, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if int64(cap(buf)) < u.Range.Len() {
			buf = make([]byte, u.Range.Len())
		}
		data := buf[:u.Range.Len()]
		if _, err := f.ReadAt(data, u.Range.Start()); err != nil {
			return nil, fmt.Errorf("error while reading unit %d at %s: %w", i, u.Range, err)
		}

		unit := entities.Unit{
			Index:  i,
			Type:   u.Type.String(),
			TypeID: byte(u.Type),
			Range:  u.Range,
			Size:   u.Range.Len(),
			Frame:  frames[i],
		}

		body := data[startCodeLength:]
		if u.Type != h264.SupplementalEnhancementInformation {
			// only the header byte matters for everything but SEI
			body = body[:1]
		}
		nal, err := h264.ParseNAL(body)
		if err != nil {
			c.l.Infow("could not decode nal unit",
				"index", i,
				"type", u.Type.String(),
				"error", err,
			)
		}
		unit.RefIDC = nal.RefIDC
		unit.ForbiddenZeroBit = nal.ForbiddenZeroBit
		if u.Type == h264.SupplementalEnhancementInformation && err == nil {
			payloadType, payloadSize := nal.PayloadType, nal.PayloadSize
			unit.SEIPayloadType = &payloadType
			unit.SEIPayloadSize = &payloadSize

			if unit.Caption, err = captions.Read(nal); err != nil {
				c.l.Infow("could not decode captions",
					"index", i,
					"error", err,
				)
			}
		}

		result = append(result, unit)
	}

	return result, nil
}
