package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"webpush-saas/internal/model"
	"webpush-saas/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// PushMessage is the JSON delivered to the background worker. Its keys are
// the top level ones the worker reads first.
type PushMessage struct {
	Title              string `json:"title"`
	Body               string `json:"body,omitempty"`
	Icon               string `json:"icon,omitempty"`
	Badge              string `json:"badge,omitempty"`
	Image              string `json:"image,omitempty"`
	Tag                string `json:"tag,omitempty"`
	RequireInteraction bool   `json:"requireInteraction,omitempty"`
	URL                string `json:"url,omitempty"`
	NotificationID     string `json:"notification_id"`
	CustomerID         string `json:"customer_id,omitempty"`
}

// NewPushMessage builds the message a subscriber of n receives.
func NewPushMessage(n *model.Notification, sub model.PushSubscription) PushMessage {
	return PushMessage{
		Title:              n.Title,
		Body:               n.Body,
		Icon:               n.Icon,
		Badge:              n.Badge,
		Image:              n.Image,
		Tag:                n.Tag,
		RequireInteraction: n.RequireInteraction,
		URL:                n.URL,
		NotificationID:     n.ID,
		CustomerID:         sub.CustomerID,
	}
}

// WorkerPool fans notifications out to their subscribers.
type WorkerPool struct {
	size    int
	jobs    chan string
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size, queueSize int, s store.Store, webpushOptions *webpush.Options, logger zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, queueSize),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger.With().Str("component", "dispatch").Logger(),
		now:     time.Now,
		pending: make(map[string]struct{}),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	logger := wp.logger.With().Int("worker", id).Logger()
	logger.Debug().Msg("worker started")
	for {
		select {
		case notificationID := <-wp.jobs:
			logger.Debug().Str("notification_id", notificationID).Msg("processing notification")
			wp.sendNotification(ctx, notificationID)
			wp.done(notificationID)
		case <-ctx.Done():
			logger.Debug().Msg("worker shutting down")
			return
		}
	}
}

// Dispatch queues a notification. A notification already waiting or being
// sent is not queued twice. It reports false when the queue is full.
func (wp *WorkerPool) Dispatch(notificationID string) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if _, ok := wp.pending[notificationID]; ok {
		return true
	}
	select {
	case wp.jobs <- notificationID:
		wp.pending[notificationID] = struct{}{}
		return true
	default:
		wp.logger.Warn().Str("notification_id", notificationID).Msg("dispatch queue full")
		return false
	}
}

func (wp *WorkerPool) done(notificationID string) {
	wp.mu.Lock()
	delete(wp.pending, notificationID)
	wp.mu.Unlock()
}

// sendNotification pushes one notification to every subscriber of its link.
func (wp *WorkerPool) sendNotification(ctx context.Context, notificationID string) {
	logger := wp.logger.With().Str("notification_id", notificationID).Logger()

	n, err := wp.store.GetNotification(ctx, notificationID)
	if err != nil {
		logger.Error().Err(err).Msg("error fetching notification")
		return
	}

	subscriptions, err := wp.store.SubscriptionsForLink(ctx, n.OptInLinkID)
	if err != nil {
		logger.Error().Err(err).Msg("error fetching subscriptions")
		return
	}

	logger.Info().Int("subscriptions", len(subscriptions)).Msg("sending notification")
	for _, sub := range subscriptions {
		wp.sendToSubscription(ctx, n, sub)
	}

	if err := wp.store.MarkNotificationSent(ctx, n.ID, wp.now()); err != nil {
		logger.Error().Err(err).Msg("error marking notification sent")
	}
}

func (wp *WorkerPool) sendToSubscription(ctx context.Context, n *model.Notification, sub model.PushSubscription) {
	payload, err := json.Marshal(NewPushMessage(n, sub))
	if err != nil {
		wp.logger.Error().Err(err).Msg("error encoding push message")
		return
	}

	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("error sending notification")
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		wp.logger.Info().Str("endpoint", sub.Endpoint).Int("status", resp.StatusCode).Msg("subscription expired, deleting")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	default:
		if resp.StatusCode >= 400 {
			wp.logger.Warn().Str("endpoint", sub.Endpoint).Int("status", resp.StatusCode).Msg("push service rejected notification")
		}
	}
}
