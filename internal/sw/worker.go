// Package sw is the background push worker: it displays incoming pushes,
// reports their delivery, and routes clicks to a browser window.
package sw

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"webpush-saas/internal/payload"
)

// Options configure a Worker.
type Options struct {
	// Origin is the scheme://host[:port] the worker is served from.
	Origin   string
	Defaults payload.Defaults
	Version  string
}

// Worker handles the events of one worker instance. The runtime guarantees a
// single active instance per origin and scope.
type Worker struct {
	opts         Options
	registration Registration
	clients      Clients
	receipts     Receipts
	logger       zerolog.Logger
}

// New creates a worker bound to a platform.
func New(opts Options, registration Registration, clients Clients, receipts Receipts, logger zerolog.Logger) *Worker {
	return &Worker{
		opts:         opts,
		registration: registration,
		clients:      clients,
		receipts:     receipts,
		logger:       logger.With().Str("component", "sw").Str("version", opts.Version).Logger(),
	}
}

// Dispatch routes a runtime event to its handler and returns once the work
// the event must wait for is done.
func (w *Worker) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventPush:
		return w.HandlePush(ctx, ev.Data)
	case EventNotificationClick:
		if ev.Notification == nil {
			return fmt.Errorf("%s event without a notification", ev.Type)
		}
		return w.HandleNotificationClick(ctx, ev.Notification)
	case EventInstall:
		return w.HandleInstall(ctx)
	case EventActivate:
		return w.HandleActivate(ctx)
	default:
		return fmt.Errorf("unsupported event %q", ev.Type)
	}
}

// HandlePush shows the notification carried by data. The delivery receipt is
// started but not waited for. Missing or malformed data is ignored.
func (w *Worker) HandlePush(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	p, err := payload.Parse(data)
	if err != nil {
		w.logger.Warn().Err(err).Msg("ignoring push")
		return nil
	}

	n := payload.NormalizeWith(p, w.opts.Defaults)
	w.logger.Debug().
		Str("title", n.Title).
		Str("url", n.Data.URL).
		Str("notification_id", n.Data.NotificationID).
		Str("customer_id", n.Data.CustomerID).
		Msg("push received")

	w.receipts.Delivered(ctx, n.Data.NotificationID, n.Data.CustomerID)

	return w.registration.ShowNotification(ctx, n)
}

// HandleNotificationClick closes n, then reports the click and focuses or
// opens the target window concurrently. It returns after both finished; only
// a routing error is returned.
func (w *Worker) HandleNotificationClick(ctx context.Context, n Notification) error {
	n.Close()

	data := n.Data()
	target := ResolveURL(w.opts.Origin, data.URL)
	logger := w.logger.With().
		Str("notification_id", data.NotificationID).
		Str("target", target).
		Logger()

	var g errgroup.Group
	g.Go(func() error {
		if err := w.receipts.Clicked(ctx, data.NotificationID, data.CustomerID); err != nil {
			logger.Error().Err(err).Msg("error tracking click")
		}
		return nil
	})

	var routeErr error
	g.Go(func() error {
		routeErr = w.route(ctx, target)
		return nil
	})

	_ = g.Wait()
	if routeErr != nil {
		return fmt.Errorf("route click to %s: %w", target, routeErr)
	}
	return nil
}

// route focuses the first window already showing target, or opens one.
func (w *Worker) route(ctx context.Context, target string) error {
	windows, err := w.clients.MatchAll(ctx, MatchOptions{Type: "window", IncludeUncontrolled: true})
	if err != nil {
		return err
	}

	for _, c := range windows {
		if c.URL() == target {
			return c.Focus(ctx)
		}
	}

	if !w.clients.CanOpenWindow() {
		w.logger.Warn().Str("target", target).Msg("platform cannot open windows")
		return nil
	}
	return w.clients.OpenWindow(ctx, target)
}

// HandleInstall activates the new version immediately.
func (w *Worker) HandleInstall(ctx context.Context) error {
	w.logger.Info().Msg("installing")
	return w.registration.SkipWaiting(ctx)
}

// HandleActivate takes control of every open client without a reload.
func (w *Worker) HandleActivate(ctx context.Context) error {
	w.logger.Info().Msg("activating")
	if err := w.clients.Claim(ctx); err != nil {
		return err
	}
	w.logger.Info().Msg("activated and claimed clients")
	return nil
}
