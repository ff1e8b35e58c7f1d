package handlers

import (
	"net/http"

	"github.com/smear-video/smear/internal/controllers/engine"
	"github.com/smear-video/smear/internal/entities"
	"go.uber.org/zap"
)

type ProbeHandler struct {
	c      *entities.Config
	l      *zap.SugaredLogger
	engine *engine.SmearEngineController
}

func NewProbeHandler(
	c *entities.Config,
	l *zap.SugaredLogger,
	engine *engine.SmearEngineController,
) *ProbeHandler {
	return &ProbeHandler{
		c:      c,
		l:      l,
		engine: engine,
	}
}

func (h *ProbeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		h.l.Errorw("unexpected method")
		return entities.ErrHTTPGetOnly
	}

	params := entities.ProbeRequest{Source: r.URL.Query().Get("source")}
	if err := params.Valid(); err != nil {
		h.l.Errorw("invalid params",
			"error", err,
		)
		return err
	}

	report, err := h.engine.Probe(r.Context(), &params)
	if err != nil {
		h.l.Errorw("error while probing",
			"source", params.Source,
			"error", err,
		)
		return err
	}

	return writeJson(w, report)
}
