package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/internal/common/constants"
	"chat-relay/internal/common/logger"
)

type ShutdownHook func(ctx context.Context) error

type Named struct {
	Name   string
	Server *http.Server
}

// StartAllWithGracefulShutdown runs every server in its own goroutine and
// blocks until SIGINT/SIGTERM, then drains all of them before running hooks.
// A listener failing to start takes the whole process down.
func StartAllWithGracefulShutdown(log *logger.Logger, servers []Named, hooks []ShutdownHook) {
	for _, s := range servers {
		s := s
		go func() {
			log.Infof("%s listener on %s", s.Name, s.Server.Addr)
			if err := s.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start %s listener: %v", s.Name, err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer shutdownCancel()

	for _, s := range servers {
		s.Server.SetKeepAlivesEnabled(false)
		if err := s.Server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("%s listener forced to shutdown: %v", s.Name, err)
		} else {
			log.Infof("%s listener stopped gracefully", s.Name)
		}
	}

	for i, hook := range hooks {
		if err := hook(shutdownCtx); err != nil {
			log.Errorf("shutdown hook %d failed: %v", i, err)
		}
	}
}
