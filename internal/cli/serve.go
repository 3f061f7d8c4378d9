package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/ledger-dedupe/internal/api"
)

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(flags *ServeFlags) error {
	env, err := Setup(flags.CommonFlags, "api")
	if err != nil {
		return err
	}
	defer env.Close()

	apiCfg := api.Config{
		Port:           env.Config.Server.Port,
		AllowedOrigins: env.Config.Server.AllowedOrigins,
	}
	if flags.Port > 0 {
		apiCfg.Port = flags.Port
	}

	server := api.NewServer(apiCfg, env.Store, env.Service, env.Logger)

	// Handle graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		<-quit
		env.Logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			env.Logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	env.Logger.Info("server stopped")
	return nil
}
