package api

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/accordlabs/checkin/config"
	"github.com/accordlabs/checkin/internal/store"
)

// RunServer starts the API server and handles graceful shutdown
func RunServer(cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := store.New(cfg.DataDir, logger, cfg.MaxTemplateBytes)
	if err != nil {
		return err
	}
	defer st.Close()

	server, err := NewServer(cfg, st, logger)
	if err != nil {
		return err
	}

	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Channel to handle server errors
	errCh := make(chan error)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or error
	select {
	case <-stop:
		logger.Info("shutting down server")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server gracefully stopped")
	return nil
}
