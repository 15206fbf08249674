// Package sweeper periodically re-queues notifications that were stored but
// never sent, e.g. because the dispatch queue was full or the process stopped.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"webpush-saas/internal/store"
)

// batchSize bounds how many notifications one sweep re-queues.
const batchSize = 100

// Dispatcher queues a notification for delivery.
type Dispatcher interface {
	Dispatch(notificationID string) bool
}

// Service re-dispatches unsent notifications.
type Service struct {
	store      store.Store
	dispatcher Dispatcher
	interval   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a sweeper. A notification becomes eligible once it is
// older than one interval.
func NewService(s store.Store, dispatcher Dispatcher, interval time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		store:      s,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger.With().Str("component", "sweeper").Logger(),
		now:        time.Now,
	}
}

// Run sweeps once, then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("starting sweeper")
	s.SweepOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce re-queues one batch and returns how many were accepted.
func (s *Service) SweepOnce(ctx context.Context) int {
	unsent, err := s.store.UnsentNotifications(ctx, s.now().Add(-s.interval), batchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("error listing unsent notifications")
		return 0
	}

	queued := 0
	for _, n := range unsent {
		if !s.dispatcher.Dispatch(n.ID) {
			// Queue is full; the rest waits for the next sweep.
			break
		}
		queued++
	}
	if len(unsent) > 0 {
		s.logger.Info().Int("unsent", len(unsent)).Int("queued", queued).Msg("sweep finished")
	}
	return queued
}
