package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"server/internal/bootstrap"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/report"
	"server/internal/sqlinline"
	"server/internal/storage"
)

const (
	sweepInterval = 15 * time.Second
	sweepBatch    = 10
)

// The sweeper re-runs PENDING jobs whose submitting process died before its
// run goroutine claimed them. It only selects stale rows; the conditional
// PENDING -> PROCESSING transition inside Run is what prevents a sweeper from
// colliding with a live submitter or a second sweeper.
type sweeper struct {
	runner     *infra.SQLRunner
	service    *report.Service
	logger     zerolog.Logger
	staleAfter time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	creds := credentials.NewStore(runner)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	service, err := bootstrap.ReportService(ctx, cfg, logger, runner, creds, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build report service")
	}

	s := &sweeper{runner: runner, service: service, logger: logger, staleAfter: cfg.SweepStaleAfter}
	if err := s.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("stopped with error")
	}
	logger.Info().Msg("stopped")
}

func (s *sweeper) run(ctx context.Context) error {
	s.logger.Info().Dur("stale_after", s.staleAfter).Msg("sweeper started")
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := s.sweep(ctx); err != nil {
			s.logger.Error().Err(err).Msg("sweep failed")
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) error {
	staleSeconds := int(s.staleAfter / time.Second)
	rows, err := s.runner.Query(ctx, sqlinline.QSelectStalePendingReports, staleSeconds, sweepBatch)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		s.logger.Info().Str("job_id", id).Msg("re-running stale job")
		s.service.Run(ctx, id)
	}
	return nil
}
