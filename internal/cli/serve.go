package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/rillweb"
	httpAdapter "github.com/aretw0/rillweb/pkg/adapters/http"
)

// Serve runs the HTTP API of app on addr until ctx is done.
func Serve(ctx context.Context, app *rillweb.App, addr string, logger *slog.Logger) error {
	api := httpAdapter.NewAppHandler(app, logger)
	defer api.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("rillweb server listening", "address", addr, "instance", app.InstanceID)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		logger.Info("rillweb server stopped")
		return nil
	}
}
