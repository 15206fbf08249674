// Package optin runs the subscription flow of an opt-in page: it checks the
// device, asks for permission, (re)subscribes to push and registers the
// contact with the backend.
package optin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"webpush-saas/internal/apiclient"
	"webpush-saas/internal/wire"
)

// WorkerScript is the background worker served from the site root.
const WorkerScript = "/sw.js"

// State of the opt-in page.
type State int

const (
	StateLoading State = iota
	StateInvalidLink
	StateForm
	StateSubscribing
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInvalidLink:
		return "invalid-link"
	case StateForm:
		return "form"
	case StateSubscribing:
		return "subscribing"
	case StateSuccess:
		return "success"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Form holds the contact fields typed by the user.
type Form struct {
	Name  string
	Email string
	Phone string
}

// Result describes a successful opt-in.
type Result struct {
	CustomerID   string
	Subscription *wire.PushSubscriptionJSON
	Capabilities Capabilities
}

// Negotiator drives one opt-in page. Loads and attempts are serialized; the
// page state stays readable while one runs.
type Negotiator struct {
	token   string
	backend Backend
	browser Browser
	logger  zerolog.Logger

	run sync.Mutex

	mu      sync.Mutex
	state   State
	link    *wire.OptInLink
	linkErr *Error
	form    Form
}

// New creates a negotiator for the link identified by token.
func New(token string, backend Backend, browser Browser, logger zerolog.Logger) *Negotiator {
	return &Negotiator{
		token:   token,
		backend: backend,
		browser: browser,
		logger:  logger.With().Str("component", "optin").Logger(),
	}
}

// State returns the current page state.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Link returns the loaded link, or nil.
func (n *Negotiator) Link() *wire.OptInLink {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.link
}

// Form returns the current form values.
func (n *Negotiator) Form() Form {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.form
}

// SetForm replaces the form values.
func (n *Negotiator) SetForm(f Form) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.form = f
}

// Load fetches the link configuration. A failure is permanent for this
// negotiator.
func (n *Negotiator) Load(ctx context.Context) (*wire.OptInLink, error) {
	n.run.Lock()
	defer n.run.Unlock()
	return n.load(ctx)
}

func (n *Negotiator) load(ctx context.Context) (*wire.OptInLink, error) {
	n.mu.Lock()
	link, linkErr := n.link, n.linkErr
	n.mu.Unlock()
	if linkErr != nil {
		return nil, linkErr
	}
	if link != nil {
		return link, nil
	}

	link, err := n.backend.OptInLink(ctx, n.token)
	if err != nil {
		msg := apiclient.BodyMessage(err)
		if msg == "" {
			msg = MsgInvalidLink
		}
		n.logger.Warn().Err(err).Str("token", n.token).Msg("opt-in link unavailable")
		return nil, n.invalidate(&Error{Kind: KindInvalidLink, Message: msg, Err: err})
	}

	n.mu.Lock()
	n.link = link
	n.state = StateForm
	n.mu.Unlock()
	return link, nil
}

// invalidate makes e the permanent outcome of this negotiator.
func (n *Negotiator) invalidate(e *Error) *Error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.linkErr = e
	n.state = StateInvalidLink
	return e
}

// Subscribe runs one opt-in attempt with the current form. On failure the
// form is kept so the user can retry.
func (n *Negotiator) Subscribe(ctx context.Context) (*Result, error) {
	n.run.Lock()
	defer n.run.Unlock()

	link, err := n.load(ctx)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	form := n.form
	n.mu.Unlock()
	if err := validate(link.FormFields, form); err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.state = StateSubscribing
	n.mu.Unlock()

	res, err := n.attempt(ctx, form)
	if err != nil {
		var oe *Error
		if errors.As(err, &oe) && oe.Kind == KindInvalidLink {
			return nil, n.invalidate(oe)
		}
		n.mu.Lock()
		n.state = StateForm
		n.mu.Unlock()
		return nil, err
	}

	n.mu.Lock()
	n.state = StateSuccess
	n.form = Form{}
	n.mu.Unlock()
	return res, nil
}

func validate(fields wire.FormFields, form Form) *Error {
	switch {
	case fields.RequireName && form.Name == "":
		return &Error{Kind: KindValidation, Field: "name", Message: MsgNameRequired}
	case fields.RequireEmail && form.Email == "":
		return &Error{Kind: KindValidation, Field: "email", Message: MsgEmailRequired}
	case fields.RequirePhone && form.Phone == "":
		return &Error{Kind: KindValidation, Field: "phone", Message: MsgPhoneRequired}
	}
	return nil
}

func (n *Negotiator) attempt(ctx context.Context, form Form) (*Result, error) {
	caps := Detect(n.browser.Environment())
	logger := n.logger.With().
		Str("level", caps.Level.String()).
		Bool("ios", caps.IOS).
		Bool("safari", caps.Safari).
		Logger()

	if !caps.Notifications {
		return nil, &Error{Kind: KindUnsupported, Message: MsgUnsupported}
	}

	permission := n.browser.NotificationPermission()
	if permission == PermissionDefault {
		var err error
		permission, err = n.browser.RequestNotificationPermission(ctx)
		if err != nil {
			return nil, &Error{Kind: KindPermissionDenied, Message: MsgPermissionRequired, Err: err}
		}
	}
	logger.Debug().Str("permission", string(permission)).Msg("notification permission")
	if permission != PermissionGranted {
		return nil, &Error{Kind: KindPermissionDenied, Message: MsgPermissionRequired}
	}

	var subscription *wire.PushSubscriptionJSON
	if caps.Level == PushIncapable {
		logger.Warn().Msg("service worker or push manager not available")
		if caps.IOS {
			return nil, &Error{Kind: KindIOSUnsupported, Message: MsgIOSUnsupported}
		}
	} else {
		sub, err := n.subscribePush(ctx, logger)
		switch {
		case err == nil:
			subscription = sub
		case domErrorName(err) == NotAllowedError:
			return nil, &Error{Kind: KindPermissionDenied, Message: MsgPermissionBlocked, Err: err}
		case domErrorName(err) == NotSupportedError:
			logger.Warn().Err(err).Msg("push not supported, continuing without push subscription")
		case caps.IOS && strings.Contains(rootMessage(err), "subscription"):
			return nil, &Error{Kind: KindIOSSubscription, Message: MsgIOSSubscription, Err: err}
		default:
			logger.Warn().Err(err).Msg("push subscription failed, continuing without it")
		}
	}

	req := wire.SubscriptionRequest{
		Name:         form.Name,
		Email:        form.Email,
		Phone:        form.Phone,
		CustomData:   map[string]any{},
		Subscription: subscription,
		Platform:     caps.Platform(),
		Browser:      caps.Browser(),
	}
	out, err := n.backend.SubmitOptIn(ctx, n.token, req)
	if err != nil {
		if status := apiclient.StatusCode(err); status == http.StatusNotFound || status == http.StatusGone {
			msg := apiclient.BackendMessage(err)
			if msg == "" {
				msg = MsgInvalidLink
			}
			logger.Warn().Err(err).Int("status", status).Msg("opt-in link no longer accepts subscriptions")
			return nil, &Error{Kind: KindInvalidLink, Message: msg, Err: err}
		}
		msg := apiclient.BackendMessage(err)
		if msg == "" {
			msg = MsgSubmitFailed
		}
		logger.Error().Err(err).Msg("opt-in submission failed")
		return nil, &Error{Kind: KindSubmit, Message: msg, Err: err}
	}

	logger.Info().Str("customer_id", out.CustomerID).Bool("subscribed", subscription != nil).Msg("opt-in registered")
	return &Result{CustomerID: out.CustomerID, Subscription: subscription, Capabilities: caps}, nil
}

// subscribePush registers the worker and replaces any existing subscription.
func (n *Negotiator) subscribePush(ctx context.Context, logger zerolog.Logger) (*wire.PushSubscriptionJSON, error) {
	registration, err := n.browser.RegisterServiceWorker(ctx, WorkerScript, RegisterOptions{
		Scope:          "/",
		UpdateViaCache: "none",
	})
	if err != nil {
		return nil, fmt.Errorf("register service worker: %w", err)
	}
	if err := n.browser.ServiceWorkerReady(ctx); err != nil {
		return nil, fmt.Errorf("wait for service worker: %w", err)
	}
	if err := registration.Update(ctx); err != nil {
		logger.Warn().Err(err).Msg("service worker update not supported")
	}

	key, err := n.backend.VAPIDPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch vapid key: %w", err)
	}
	applicationServerKey, err := DecodeApplicationServerKey(key)
	if err != nil {
		return nil, err
	}

	pm := registration.PushManager()
	existing, err := pm.GetSubscription(ctx)
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	if existing != nil {
		logger.Debug().Msg("found existing subscription, unsubscribing first")
		if err := existing.Unsubscribe(ctx); err != nil {
			return nil, fmt.Errorf("unsubscribe existing push subscription: %w", err)
		}
	}

	sub, err := pm.Subscribe(ctx, SubscribeOptions{
		UserVisibleOnly:      true,
		ApplicationServerKey: applicationServerKey,
	})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errors.New("push manager returned no subscription")
	}
	out := sub.ToJSON()
	return &out, nil
}
