// Package tracking reports delivery and click receipts for notifications.
package tracking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"webpush-saas/internal/wire"
)

// Reporter is the part of the backend API the tracker needs.
type Reporter interface {
	TrackDelivered(ctx context.Context, notificationID string, req wire.TrackingRequest) error
	TrackClicked(ctx context.Context, notificationID string, req wire.TrackingRequest) (map[string]any, error)
}

// Tracker sends receipts exactly once per call and never retries.
type Tracker struct {
	reporter Reporter
	detached *Detached
	logger   zerolog.Logger
}

// NewTracker creates a tracker. timeout bounds each detached delivery receipt.
func NewTracker(reporter Reporter, logger zerolog.Logger, timeout time.Duration) *Tracker {
	logger = logger.With().Str("component", "tracker").Logger()
	return &Tracker{
		reporter: reporter,
		detached: NewDetached(logger, timeout),
		logger:   logger,
	}
}

// Delivered fires the delivery receipt without waiting for it. Without a
// notification id nothing is sent.
func (t *Tracker) Delivered(ctx context.Context, notificationID, customerID string) {
	if notificationID == "" {
		t.logger.Debug().Msg("no notification id, skipping delivery receipt")
		return
	}

	t.detached.Go(ctx, "delivered:"+notificationID, func(ctx context.Context) error {
		if err := t.reporter.TrackDelivered(ctx, notificationID, wire.TrackingRequest{CustomerID: customerID}); err != nil {
			return err
		}
		t.logger.Debug().
			Str("notification_id", notificationID).
			Str("customer_id", customerID).
			Msg("delivery tracked")
		return nil
	})
}

// Clicked sends the click receipt and waits for it. The response body is only
// logged. Without a notification id it returns immediately.
func (t *Tracker) Clicked(ctx context.Context, notificationID, customerID string) error {
	if notificationID == "" {
		return nil
	}

	body, err := t.reporter.TrackClicked(ctx, notificationID, wire.TrackingRequest{CustomerID: customerID})
	if err != nil {
		return err
	}
	t.logger.Debug().
		Str("notification_id", notificationID).
		Interface("response", body).
		Msg("click tracked")
	return nil
}

// Wait drains outstanding delivery receipts.
func (t *Tracker) Wait() {
	t.detached.Wait()
}
