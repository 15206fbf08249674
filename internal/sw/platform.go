package sw

import (
	"context"

	"webpush-saas/internal/payload"
)

// Lifecycle event names delivered by the hosting runtime.
const (
	EventPush              = "push"
	EventNotificationClick = "notificationclick"
	EventInstall           = "install"
	EventActivate          = "activate"
)

// Registration is the worker's own registration.
type Registration interface {
	// ShowNotification returns once the platform has displayed n.
	ShowNotification(ctx context.Context, n payload.Notification) error
	// SkipWaiting activates a newly installed worker without waiting for
	// the previous version's pages to close.
	SkipWaiting(ctx context.Context) error
}

// MatchOptions filters Clients.MatchAll.
type MatchOptions struct {
	Type                string
	IncludeUncontrolled bool
}

// Client is an open window or tab of the origin.
type Client interface {
	URL() string
	Focus(ctx context.Context) error
}

// Clients gives access to the windows of the origin.
type Clients interface {
	MatchAll(ctx context.Context, opts MatchOptions) ([]Client, error)
	// CanOpenWindow reports whether OpenWindow is available at all.
	CanOpenWindow() bool
	OpenWindow(ctx context.Context, url string) error
	// Claim makes this worker the controller of every open client.
	Claim(ctx context.Context) error
}

// Notification is a displayed notification as seen by a click event.
type Notification interface {
	Data() payload.NotificationData
	Close()
}

// Receipts reports notification activity to the backend.
type Receipts interface {
	// Delivered must not block on the network.
	Delivered(ctx context.Context, notificationID, customerID string)
	Clicked(ctx context.Context, notificationID, customerID string) error
}

// Event is one invocation of the worker by the runtime.
type Event struct {
	Type         string
	Data         []byte       // push
	Notification Notification // notificationclick
}
