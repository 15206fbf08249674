package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"webpush-saas/internal/store"
)

// Dispatcher queues a stored notification for delivery.
type Dispatcher interface {
	Dispatch(notificationID string) bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	webpush    *webpush.Options
	dispatcher Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, dispatcher Dispatcher, logger zerolog.Logger) *Handler {
	return &Handler{
		store:      s,
		webpush:    webpushOptions,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "api").Logger(),
		now:        time.Now,
	}
}
