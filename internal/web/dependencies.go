package web

import (
	"log"

	"github.com/kelseyhightower/envconfig"
	"github.com/smear-video/smear/internal/controllers"
	"github.com/smear-video/smear/internal/controllers/engine"
	"github.com/smear-video/smear/internal/controllers/muxers"
	"github.com/smear-video/smear/internal/controllers/probers"
	"github.com/smear-video/smear/internal/entities"
	"github.com/smear-video/smear/internal/mapper"
	"github.com/smear-video/smear/internal/web/handlers"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Dependencies wires the whole application. Config is read from SMEAR_* environment
// variables, opts run afterwards so command line flags win.
func Dependencies(opts ...func(*entities.Config)) fx.Option {
	var c entities.Config
	err := envconfig.Process("smear", &c)
	if err != nil {
		log.Fatal(err.Error())
	}
	for _, opt := range opts {
		opt(&c)
	}

	return fx.Options(
		// HTTP Server
		fx.Provide(NewHTTPServer),

		// HTTP router
		fx.Provide(NewServeMux),

		// HTTP handlers
		fx.Provide(handlers.NewProbeHandler),
		fx.Provide(handlers.NewSmearHandler),

		// Controllers
		fx.Provide(controllers.NewH264Controller),
		fx.Provide(muxers.NewFFmpeg),
		fx.Provide(muxers.NewMP4Box),
		fx.Provide(probers.NewLibAVFFmpeg),

		fx.Provide(engine.NewSmearEngineController),

		// Mappers
		fx.Provide(mapper.NewMapper),

		// Logging, Config constructors
		fx.Provide(func() *zap.SugaredLogger {
			var logger *zap.Logger
			if c.Debug {
				logger, _ = zap.NewDevelopment()
			} else {
				logger, _ = zap.NewProduction()
			}
			return logger.Sugar()
		}),
		fx.Provide(func() *entities.Config {
			return &c
		}),
	)
}
