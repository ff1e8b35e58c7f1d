package web

import (
	"errors"
	"net/http"

	"github.com/smear-video/smear/h264"
	"github.com/smear-video/smear/internal/entities"
	"github.com/smear-video/smear/internal/web/handlers"
	"go.uber.org/zap"
)

type ErrorHTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request) error
}

func NewServeMux(
	probe *handlers.ProbeHandler,
	smear *handlers.SmearHandler,
	l *zap.SugaredLogger,
) *http.ServeMux {

	mux := http.NewServeMux()

	mux.Handle("/probe", setCors(errorHandler(l, probe)))
	mux.Handle("/smear", setCors(errorHandler(l, smear)))

	return mux
}

func setCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			allowedHeaders := "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization,X-CSRF-Token"
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Expose-Headers", "Authorization")
		}
		next.ServeHTTP(w, r)
	})
}

func errorHandler(l *zap.SugaredLogger, next ErrorHTTPHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := next.ServeHTTP(w, r)
		if err != nil {
			l.Errorw("error on handler",
				"path", r.URL.Path,
				"err", err,
			)
			handlers.SetError(w, err, statusFor(err))
			return
		}
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrHTTPGetOnly),
		errors.Is(err, entities.ErrHTTPPostOnly):
		return http.StatusMethodNotAllowed
	case errors.Is(err, entities.ErrMissingRequestParams),
		errors.Is(err, entities.ErrMissingSource),
		errors.Is(err, entities.ErrMissingDestination),
		errors.Is(err, entities.ErrSameSourceAndDestination),
		errors.Is(err, entities.ErrNegativeFrameNumber),
		errors.Is(err, entities.ErrFrameOutOfRange),
		errors.Is(err, entities.ErrIDRIndexOutOfRange),
		errors.Is(err, handlers.ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, h264.ErrMalformedStream):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
