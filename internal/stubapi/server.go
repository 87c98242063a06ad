package stubapi

import (
	"github.com/udaycodespace/credify/internal/config"
	appbuilder "github.com/udaycodespace/credify/pkg/app_builder"
	"github.com/udaycodespace/credify/pkg/logger"
)

// NewApplication wires the handler into a gin application listening on the
// configured stub port.
func NewApplication(cfg config.CredifyConfig, handler *Handler) *appbuilder.Application {
	return appbuilder.New[config.CredifyConfigJson, config.CredifyConfig]().
		InitLogger(logger.GlobalLoggerConfig{
			Config: cfg.GetLoggerConfig(),
			Args:   []logger.LoggerArg{{Key: "service", Value: "credify-stub"}},
		}).
		WithConfig(cfg).
		WithOption(func(a *appbuilder.AppBuilder[config.CredifyConfigJson, config.CredifyConfig]) {
			a.AddGinRoutes(handler.Routes()...)
		}).
		InitGinRouter().
		Build()
}
