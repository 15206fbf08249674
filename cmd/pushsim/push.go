package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/rs/zerolog"

	"webpush-saas/config"
	"webpush-saas/internal/apiclient"
	"webpush-saas/internal/payload"
	"webpush-saas/internal/sw"
	"webpush-saas/internal/tracking"
)

func runPush(args []string, logger zerolog.Logger) error {
	var (
		flagset     = flag.NewFlagSet("pushsim push", flag.ExitOnError)
		flAPIBase   = flagset.String("api-base", "", "backend API base, defaults to the build-time value")
		flOrigin    = flagset.String("origin", "http://localhost:5173", "origin the worker is served from")
		flPayload   = flagset.String("payload", "", "push payload JSON, or @file to read it from a file")
		flClick     = flagset.Bool("click", false, "simulate a click on the displayed notification")
		flOpen      = flagset.String("open-windows", "", "comma separated URLs of windows already open")
		flNoWindows = flagset.Bool("no-open-window", false, "pretend the platform cannot open windows")
		flIcon      = flagset.String("icon", payload.StandardDefaults.Icon, "icon shown when the push names none")
		flBadge     = flagset.String("badge", payload.StandardDefaults.Badge, "badge shown when the push names none")
		flTimeout   = flagset.Duration("timeout", 10*time.Second, "timeout for each backend request")
		flConfig    = flagset.String("config", "", "backend config file whose worker section supplies defaults")
	)
	if err := ff.Parse(flagset, args, ff.WithEnvVarPrefix(envPrefix)); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	settings, err := workerSettings(flagset, *flConfig, config.WorkerConfig{
		APIBase:      config.ResolveAPIBase(*flAPIBase),
		Origin:       *flOrigin,
		DefaultIcon:  *flIcon,
		DefaultBadge: *flBadge,
		Timeout:      *flTimeout,
	})
	if err != nil {
		return err
	}

	data, err := readPayload(*flPayload)
	if err != nil {
		return err
	}

	client := apiclient.New(settings.APIBase, settings.Timeout)
	tracker := tracking.NewTracker(client, logger, settings.Timeout)
	defer tracker.Wait()

	registration := &consoleRegistration{logger: logger}
	clients := &consoleClients{logger: logger, canOpen: !*flNoWindows}
	for _, u := range strings.Split(*flOpen, ",") {
		if u = strings.TrimSpace(u); u != "" {
			clients.open = append(clients.open, &consoleClient{url: u, logger: logger})
		}
	}

	worker := sw.New(sw.Options{
		Origin:   settings.Origin,
		Defaults: payload.Defaults{Icon: settings.DefaultIcon, Badge: settings.DefaultBadge},
		Version:  "pushsim",
	}, registration, clients, tracker, logger)

	ctx := context.Background()
	for _, ev := range []string{sw.EventInstall, sw.EventActivate} {
		if err := worker.Dispatch(ctx, sw.Event{Type: ev}); err != nil {
			return err
		}
	}

	if err := worker.Dispatch(ctx, sw.Event{Type: sw.EventPush, Data: data}); err != nil {
		return err
	}
	if !*flClick {
		return nil
	}
	if registration.shown == nil {
		return errors.New("nothing was displayed, cannot click")
	}
	return worker.Dispatch(ctx, sw.Event{
		Type:         sw.EventNotificationClick,
		Notification: &consoleNotification{data: registration.shown.Data, logger: logger},
	})
}

// workerSettings overlays the worker section of the backend config at path
// on the flag values. Flags given explicitly win over the file.
func workerSettings(flagset *flag.FlagSet, path string, flags config.WorkerConfig) (config.WorkerConfig, error) {
	if path == "" {
		return flags, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return flags, fmt.Errorf("loading config %s: %w", path, err)
	}

	set := make(map[string]bool)
	flagset.Visit(func(f *flag.Flag) { set[f.Name] = true })

	out := flags
	for _, f := range []struct {
		name string
		dst  *string
		val  string
	}{
		{"api-base", &out.APIBase, cfg.Worker.APIBase},
		{"origin", &out.Origin, cfg.Worker.Origin},
		{"icon", &out.DefaultIcon, cfg.Worker.DefaultIcon},
		{"badge", &out.DefaultBadge, cfg.Worker.DefaultBadge},
	} {
		if !set[f.name] && f.val != "" {
			*f.dst = f.val
		}
	}
	if !set["timeout"] {
		out.Timeout = cfg.Worker.Timeout
	}
	return out, nil
}

func readPayload(v string) ([]byte, error) {
	if name, ok := strings.CutPrefix(v, "@"); ok {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
		return data, nil
	}
	if v == "" {
		return nil, nil
	}
	return []byte(v), nil
}

type consoleRegistration struct {
	logger zerolog.Logger
	shown  *payload.Notification
}

func (r *consoleRegistration) ShowNotification(_ context.Context, n payload.Notification) error {
	r.shown = &n
	r.logger.Info().
		Str("title", n.Title).
		Str("body", n.Body).
		Str("icon", n.Icon).
		Str("tag", n.Tag).
		Str("url", n.Data.URL).
		Str("notification_id", n.Data.NotificationID).
		Msg("notification displayed")
	return nil
}

func (r *consoleRegistration) SkipWaiting(context.Context) error {
	r.logger.Debug().Msg("skip waiting")
	return nil
}

type consoleClient struct {
	url    string
	logger zerolog.Logger
}

func (c *consoleClient) URL() string { return c.url }

func (c *consoleClient) Focus(context.Context) error {
	c.logger.Info().Str("url", c.url).Msg("window focused")
	return nil
}

type consoleClients struct {
	logger  zerolog.Logger
	open    []sw.Client
	canOpen bool
}

func (c *consoleClients) MatchAll(context.Context, sw.MatchOptions) ([]sw.Client, error) {
	return c.open, nil
}

func (c *consoleClients) CanOpenWindow() bool { return c.canOpen }

func (c *consoleClients) OpenWindow(_ context.Context, url string) error {
	c.logger.Info().Str("url", url).Msg("window opened")
	return nil
}

func (c *consoleClients) Claim(context.Context) error {
	c.logger.Debug().Msg("clients claimed")
	return nil
}

type consoleNotification struct {
	data   payload.NotificationData
	logger zerolog.Logger
}

func (n *consoleNotification) Data() payload.NotificationData { return n.data }

func (n *consoleNotification) Close() {
	n.logger.Debug().Msg("notification closed")
}
