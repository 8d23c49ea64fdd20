package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/store"
)

// HousekeepingService periodically sweeps time-bounded records: stale
// PENDING invitations flip to EXPIRED, and spent-by-time MFA challenges,
// verification gates, password resets and email verifications are deleted.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the sweeper. A non-positive interval
// defaults to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut it
// down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down, waiting for any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs each cleanup independently; one failure does not stop the rest.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	now := time.Now().UTC()

	// Stale invitations are marked, not deleted: EXPIRED is a terminal
	// state callers can still observe.
	if err := s.Store.Invitations().ExpireStalePending(ctx, now); err != nil {
		s.Logger.Error("failed to expire stale invitations", "error", err)
	}
	if err := s.Store.MFAChallenges().DeleteExpiredChallenges(ctx); err != nil {
		s.Logger.Error("failed to delete expired mfa challenges", "error", err)
	}
	if err := s.Store.VerificationGates().DeleteExpiredGates(ctx); err != nil {
		s.Logger.Error("failed to delete expired verification gates", "error", err)
	}
	if err := s.Store.PasswordResets().DeleteExpiredPasswordResets(ctx); err != nil {
		s.Logger.Error("failed to delete expired password resets", "error", err)
	}
	if err := s.Store.EmailVerifications().DeleteExpiredEmailVerifications(ctx); err != nil {
		s.Logger.Error("failed to delete expired email verifications", "error", err)
	}

	s.Logger.Debug("housekeeping sweep completed")
}
