package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"webpush-saas/config"
	"webpush-saas/internal/api"
	"webpush-saas/internal/apiclient"
	"webpush-saas/internal/db"
	"webpush-saas/internal/model"
	"webpush-saas/internal/notification"
	"webpush-saas/internal/optin"
	"webpush-saas/internal/payload"
	"webpush-saas/internal/store"
	"webpush-saas/internal/sw"
	"webpush-saas/internal/tracking"
	"webpush-saas/internal/wire"
)

const testOrigin = "https://loja.example.com"

type queue struct {
	mu  sync.Mutex
	ids []string
}

func (q *queue) Dispatch(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return true
}

// browser grants permission and hands out a single push subscription.
type browser struct{}

func (browser) Environment() optin.Environment {
	return optin.Environment{
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) Chrome/126.0 Safari/537.36",
		NotificationAPI:  true,
		ServiceWorkerAPI: true,
		PushManagerAPI:   true,
	}
}
func (browser) NotificationPermission() optin.Permission { return optin.PermissionGranted }
func (browser) RequestNotificationPermission(context.Context) (optin.Permission, error) {
	return optin.PermissionGranted, nil
}
func (b browser) RegisterServiceWorker(context.Context, string, optin.RegisterOptions) (optin.WorkerRegistration, error) {
	return b, nil
}
func (browser) ServiceWorkerReady(context.Context) error { return nil }
func (browser) Update(context.Context) error             { return nil }
func (b browser) PushManager() optin.PushManager         { return b }
func (browser) GetSubscription(context.Context) (optin.PushSubscription, error) {
	return nil, nil
}
func (b browser) Subscribe(context.Context, optin.SubscribeOptions) (optin.PushSubscription, error) {
	return b, nil
}
func (browser) Unsubscribe(context.Context) error { return nil }
func (browser) ToJSON() wire.PushSubscriptionJSON {
	return wire.PushSubscriptionJSON{
		Endpoint: "https://push.example.com/device-1",
		Keys:     wire.SubscriptionKeys{P256DH: "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA", Auth: "tBHItJI5svbpez7KI4CCXg"},
	}
}

// screen records what the worker displayed and which windows it opened.
type screen struct {
	mu     sync.Mutex
	shown  []payload.Notification
	opened []string
}

func (s *screen) ShowNotification(_ context.Context, n payload.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, n)
	return nil
}
func (s *screen) SkipWaiting(context.Context) error { return nil }
func (s *screen) MatchAll(context.Context, sw.MatchOptions) ([]sw.Client, error) {
	return nil, nil
}
func (s *screen) CanOpenWindow() bool { return true }
func (s *screen) OpenWindow(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, url)
	return nil
}
func (s *screen) Claim(context.Context) error { return nil }

type shownNotification struct{ data payload.NotificationData }

func (n shownNotification) Data() payload.NotificationData { return n.data }
func (n shownNotification) Close()                         {}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func countEvents(t *testing.T, s store.Store, kind model.TrackingKind) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(&model.TrackingEvent{}).Where("kind = ?", string(kind)).Count(&n).Error)
	return n
}

// TestOptInPushAndClick walks a contact through the whole life of a
// notification: opt-in, dispatch, display, delivery receipt, click.
func TestOptInPushAndClick(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := zerolog.Nop()

	gormDB, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(gormDB))
	appStore := store.NewGormStore(gormDB)

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	dispatched := &queue{}
	router := api.NewRouter(appStore, &webpush.Options{VAPIDPublicKey: publicKey, VAPIDPrivateKey: privateKey},
		dispatched, config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTL: time.Minute}, logger)
	server := httptest.NewServer(router)
	defer server.Close()
	base := server.URL + "/api"

	// 1. The merchant creates a link.
	var link wire.Envelope[struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}]
	status := postJSON(t, base+"/admin/opt-in-links", map[string]any{
		"name":        "Promoções",
		"form_fields": map[string]bool{"require_email": true},
	}, &link)
	require.Equal(t, http.StatusCreated, status)

	// 2. A visitor opts in.
	client := apiclient.New(base, 5*time.Second)
	negotiator := optin.New(link.Data.Token, client, browser{}, logger)

	_, err = negotiator.Subscribe(ctx)
	var optErr *optin.Error
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, optin.KindValidation, optErr.Kind)

	negotiator.SetForm(optin.Form{Name: "Ana", Email: "ana@example.com"})
	res, err := negotiator.Subscribe(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, optin.StateSuccess, negotiator.State())

	// 3. The merchant sends a notification.
	var created wire.Envelope[struct {
		ID string `json:"id"`
	}]
	status = postJSON(t, base+"/admin/notifications", map[string]any{
		"opt_in_link_token": link.Data.Token,
		"title":             "Oferta",
		"body":              "50% hoje",
		"url":               "/ofertas",
	}, &created)
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, []string{created.Data.ID}, dispatched.ids)

	n, err := appStore.GetNotification(ctx, created.Data.ID)
	require.NoError(t, err)
	subs, err := appStore.SubscriptionsForLink(ctx, n.OptInLinkID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, res.CustomerID, subs[0].CustomerID)

	msg, err := json.Marshal(notification.NewPushMessage(n, subs[0]))
	require.NoError(t, err)

	// 4. The device's worker receives the push.
	tracker := tracking.NewTracker(client, logger, 5*time.Second)
	display := &screen{}
	worker := sw.New(sw.Options{Origin: testOrigin, Defaults: payload.StandardDefaults}, display, display, tracker, logger)

	require.NoError(t, worker.Dispatch(ctx, sw.Event{Type: sw.EventPush, Data: msg}))
	tracker.Wait()

	require.Len(t, display.shown, 1)
	shown := display.shown[0]
	assert.Equal(t, "Oferta", shown.Title)
	assert.Equal(t, "50% hoje", shown.Body)
	assert.Equal(t, "/logo.png", shown.Icon)
	assert.Equal(t, created.Data.ID, shown.Data.NotificationID)
	assert.Equal(t, res.CustomerID, shown.Data.CustomerID)
	assert.Equal(t, int64(1), countEvents(t, appStore, model.TrackingDelivered))

	// 5. The contact clicks it, twice.
	for i := 0; i < 2; i++ {
		require.NoError(t, worker.Dispatch(ctx, sw.Event{
			Type:         sw.EventNotificationClick,
			Notification: shownNotification{data: shown.Data},
		}))
	}
	assert.Equal(t, []string{testOrigin + "/ofertas", testOrigin + "/ofertas"}, display.opened)
	assert.Equal(t, int64(1), countEvents(t, appStore, model.TrackingClicked))
}
