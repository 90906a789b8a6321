package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"daily-leaderboard/internal/config"
	"daily-leaderboard/internal/constants"
	"daily-leaderboard/internal/countdown"
	fxmodules "daily-leaderboard/internal/fx"
	"daily-leaderboard/internal/middleware"
	"daily-leaderboard/internal/server"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(run),
	).Run()
}

// run wires the two long-lived tasks: the countdown loop and the HTTP server
// that answers board requests. They share only the month cache.
func run(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	boardServer *server.BoardServer,
	engine *countdown.Engine,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: middleware.RequestID(logger)(c.Handler(boardServer.Routes())),
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gCtx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			g.Go(func() error {
				if err := engine.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("countdown failed: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})

			go func() {
				defer close(done)
				if err := g.Wait(); err != nil {
					logger.Error().Err(err).Msg("background task failed")
					if err := shutdowner.Shutdown(fx.ExitCode(1)); err != nil {
						logger.Error().Err(err).Msg("failed to request shutdown")
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer shutdownCancel()

			err := srv.Shutdown(shutdownCtx)
			cancel()

			select {
			case <-done:
			case <-shutdownCtx.Done():
				logger.Warn().Msg("background tasks did not stop in time")
			}

			if dbErr := db.Close(); dbErr != nil {
				logger.Warn().Err(dbErr).Msg("error closing database connection")
			}

			if err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
