package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/rs/zerolog"

	"webpush-saas/config"
	"webpush-saas/internal/apiclient"
	"webpush-saas/internal/optin"
	"webpush-saas/internal/wire"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

func runOptIn(args []string, logger zerolog.Logger) error {
	var (
		flagset    = flag.NewFlagSet("pushsim optin", flag.ExitOnError)
		flAPIBase  = flagset.String("api-base", "", "backend API base, defaults to the build-time value")
		flToken    = flagset.String("token", "", "opt-in link token")
		flName     = flagset.String("name", "", "contact name")
		flEmail    = flagset.String("email", "", "contact email")
		flPhone    = flagset.String("phone", "", "contact phone")
		flUA       = flagset.String("user-agent", defaultUserAgent, "user agent of the simulated browser")
		flDeny     = flagset.Bool("deny", false, "deny the notification permission prompt")
		flEndpoint = flagset.String("endpoint", "", "push endpoint to register; without it the browser reports push as unsupported")
		flP256DH   = flagset.String("p256dh", "", "subscription p256dh key")
		flAuth     = flagset.String("auth", "", "subscription auth secret")
		flTimeout  = flagset.Duration("timeout", 10*time.Second, "timeout for each backend request")
		flConfig   = flagset.String("config", "", "backend config file whose worker section supplies defaults")
	)
	if err := ff.Parse(flagset, args, ff.WithEnvVarPrefix(envPrefix)); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if *flToken == "" {
		return errors.New("-token is required")
	}
	settings, err := workerSettings(flagset, *flConfig, config.WorkerConfig{
		APIBase: config.ResolveAPIBase(*flAPIBase),
		Timeout: *flTimeout,
	})
	if err != nil {
		return err
	}

	browser := &simulatedBrowser{
		env: optin.Environment{
			UserAgent:        *flUA,
			NotificationAPI:  true,
			ServiceWorkerAPI: true,
			PushManagerAPI:   true,
		},
		deny: *flDeny,
		push: &simulatedPushManager{endpoint: *flEndpoint, p256dh: *flP256DH, auth: *flAuth},
	}

	client := apiclient.New(settings.APIBase, settings.Timeout)
	negotiator := optin.New(*flToken, client, browser, logger)

	ctx := context.Background()
	link, err := negotiator.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info().
		Str("name", link.Name).
		Bool("require_name", link.FormFields.RequireName).
		Bool("require_email", link.FormFields.RequireEmail).
		Bool("require_phone", link.FormFields.RequirePhone).
		Msg("opt-in link loaded")

	negotiator.SetForm(optin.Form{Name: *flName, Email: *flEmail, Phone: *flPhone})
	res, err := negotiator.Subscribe(ctx)
	if err != nil {
		return err
	}
	if res.Capabilities.NeedsIOSWarning() {
		logger.Warn().Msg("on iOS notifications only arrive once the page is added to the home screen")
	}
	logger.Info().
		Str("customer_id", res.CustomerID).
		Bool("subscribed", res.Subscription != nil).
		Msg("opt-in complete")
	return nil
}

type simulatedBrowser struct {
	env  optin.Environment
	deny bool
	push *simulatedPushManager
}

func (b *simulatedBrowser) Environment() optin.Environment { return b.env }

func (b *simulatedBrowser) NotificationPermission() optin.Permission {
	return optin.PermissionDefault
}

func (b *simulatedBrowser) RequestNotificationPermission(context.Context) (optin.Permission, error) {
	if b.deny {
		return optin.PermissionDenied, nil
	}
	return optin.PermissionGranted, nil
}

func (b *simulatedBrowser) RegisterServiceWorker(context.Context, string, optin.RegisterOptions) (optin.WorkerRegistration, error) {
	return b, nil
}

func (b *simulatedBrowser) ServiceWorkerReady(context.Context) error { return nil }

func (b *simulatedBrowser) Update(context.Context) error { return nil }

func (b *simulatedBrowser) PushManager() optin.PushManager { return b.push }

type simulatedPushManager struct {
	endpoint, p256dh, auth string
}

func (m *simulatedPushManager) GetSubscription(context.Context) (optin.PushSubscription, error) {
	return nil, nil
}

func (m *simulatedPushManager) Subscribe(context.Context, optin.SubscribeOptions) (optin.PushSubscription, error) {
	if m.endpoint == "" {
		return nil, &optin.DOMError{Name: optin.NotSupportedError, Message: "no push service configured"}
	}
	return m, nil
}

func (m *simulatedPushManager) Unsubscribe(context.Context) error { return nil }

func (m *simulatedPushManager) ToJSON() wire.PushSubscriptionJSON {
	return wire.PushSubscriptionJSON{
		Endpoint: m.endpoint,
		Keys:     wire.SubscriptionKeys{P256DH: m.p256dh, Auth: m.auth},
	}
}
