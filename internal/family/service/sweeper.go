package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kinfolkhq/kinfolk/internal/family/store"
)

// SweeperService runs the recurring cleanup: stale pending invitations are
// bulk-transitioned to expired, and dead verification records and signing
// keys are removed. The invitation sweep is purely an observability and
// hygiene concern; every read path checks expiry against the live clock and
// never depends on the sweep having run.
type SweeperService struct {
	Store    store.Store
	Logger   *slog.Logger
	Schedule string

	cron *cron.Cron
}

// NewSweeperService creates a sweeper on the given cron schedule,
// defaulting to daily.
func NewSweeperService(st store.Store, logger *slog.Logger, schedule string) *SweeperService {
	if schedule == "" {
		schedule = "@daily"
	}
	return &SweeperService{
		Store:    st,
		Logger:   logger,
		Schedule: schedule,
	}
}

// Start schedules the recurring sweep. Non-blocking; call Stop to shut down.
func (s *SweeperService) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, s.runOnce); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()
	s.cron = c

	s.Logger.Info("expiration sweeper started", slog.String("schedule", s.Schedule))
	return nil
}

// Stop halts the schedule and waits for any in-flight run to finish.
func (s *SweeperService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.Logger.Info("expiration sweeper stopped")
}

// runOnce performs a full cleanup pass. Each step is independent; a failure
// in one never stops the others.
func (s *SweeperService) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()

	if _, err := s.Sweep(ctx, now); err != nil {
		s.Logger.Error("invitation sweep failed", slog.Any("error", err))
	}

	if n, err := s.Store.Verifications().DeleteExpiredVerifications(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired verification records", slog.Any("error", err))
	} else if n > 0 {
		s.Logger.Debug("deleted expired verification records", slog.Int64("count", n))
	}

	if err := s.Store.SigningKeys().DeleteExpiredSigningKeys(ctx); err != nil {
		s.Logger.Error("failed to delete expired signing keys", slog.Any("error", err))
	}
}

// Sweep transitions every pending invitation whose deadline has passed to
// expired and returns how many records changed. Idempotent: the predicate
// empties itself, so an immediate second run transitions nothing.
func (s *SweeperService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.Store.Invitations().ExpireInvitations(ctx, now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.Logger.Info("expired stale invitations", slog.Int64("count", count))
	}
	return count, nil
}
