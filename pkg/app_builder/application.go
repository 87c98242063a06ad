package appbuilder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/udaycodespace/credify/pkg/logger"
)

const shutdownGrace = 5 * time.Second

type Application struct {
	Logger *logger.Logger
	Addr   string
	Engine *gin.Engine
}

// Start serves the REST API until ctx is cancelled, then shuts the server
// down gracefully.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Info("Starting Application runtime...")

	srv := &http.Server{
		Addr:              a.Addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Infof("REST API is now listening on: %s", a.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down REST API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
