package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/smear-video/smear/internal/controllers/engine"
	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/zap"
)

type SmearHandler struct {
	c      *entities.Config
	l      *zap.SugaredLogger
	engine *engine.SmearEngineController
}

func NewSmearHandler(
	c *entities.Config,
	l *zap.SugaredLogger,
	engine *engine.SmearEngineController,
) *SmearHandler {
	return &SmearHandler{
		c:      c,
		l:      l,
		engine: engine,
	}
}

func (h *SmearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		h.l.Errorw("unexpected method")
		return entities.ErrHTTPPostOnly
	}

	params := entities.SmearRequest{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.l.Errorw("error while decoding request params json",
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if err := params.Valid(); err != nil {
		h.l.Errorw("invalid params",
			"error", err,
		)
		return err
	}

	result, err := h.engine.Smear(r.Context(), &params)
	if err != nil {
		h.l.Errorw("error while removing frames",
			"source", params.Source,
			"destination", params.Destination,
			"error", err,
		)
		return err
	}

	h.l.Infow("frames removed",
		"source", params.Source,
		"destination", params.Destination,
		"removed_frames", result.Stats.RemovedFrames,
	)
	return writeJson(w, result)
}
