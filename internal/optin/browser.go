package optin

import (
	"context"
	"errors"
	"fmt"

	"webpush-saas/internal/wire"
)

// Permission is the notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// DOM exception names the negotiator reacts to.
const (
	NotAllowedError   = "NotAllowedError"
	NotSupportedError = "NotSupportedError"
)

// DOMError is an exception raised by a browser API.
type DOMError struct {
	Name    string
	Message string
}

func (e *DOMError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func domErrorName(err error) string {
	var de *DOMError
	if errors.As(err, &de) {
		return de.Name
	}
	return ""
}

// rootMessage is the message of the innermost error, without wrapping context.
func rootMessage(err error) string {
	var de *DOMError
	if errors.As(err, &de) {
		return de.Message
	}
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err.Error()
		}
		err = inner
	}
}

// RegisterOptions are passed to serviceWorker.register.
type RegisterOptions struct {
	Scope          string
	UpdateViaCache string
}

// SubscribeOptions are passed to pushManager.subscribe.
type SubscribeOptions struct {
	UserVisibleOnly      bool
	ApplicationServerKey []byte
}

// Browser is the page's view of the platform.
type Browser interface {
	Environment() Environment
	NotificationPermission() Permission
	RequestNotificationPermission(ctx context.Context) (Permission, error)
	RegisterServiceWorker(ctx context.Context, scriptURL string, opts RegisterOptions) (WorkerRegistration, error)
	// ServiceWorkerReady returns once a worker is active for the page.
	ServiceWorkerReady(ctx context.Context) error
}

// WorkerRegistration is a service worker registration.
type WorkerRegistration interface {
	// Update checks for a newer worker script. Not every browser supports it.
	Update(ctx context.Context) error
	PushManager() PushManager
}

// PushManager manages the registration's push subscription.
type PushManager interface {
	// GetSubscription returns nil when the device has no subscription.
	GetSubscription(ctx context.Context) (PushSubscription, error)
	Subscribe(ctx context.Context, opts SubscribeOptions) (PushSubscription, error)
}

// PushSubscription is an established push channel.
type PushSubscription interface {
	Unsubscribe(ctx context.Context) error
	ToJSON() wire.PushSubscriptionJSON
}

// Backend is the part of the API the negotiator uses.
type Backend interface {
	OptInLink(ctx context.Context, token string) (*wire.OptInLink, error)
	VAPIDPublicKey(ctx context.Context) (string, error)
	SubmitOptIn(ctx context.Context, token string, req wire.SubscriptionRequest) (*wire.OptInResult, error)
}
