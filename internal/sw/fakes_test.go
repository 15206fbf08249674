package sw

import (
	"context"
	"sync"
	"sync/atomic"

	"webpush-saas/internal/payload"
)

type fakeRegistration struct {
	mu          sync.Mutex
	shown       []payload.Notification
	showErr     error
	skipWaiting int
}

func (r *fakeRegistration) ShowNotification(ctx context.Context, n payload.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, n)
	return r.showErr
}

func (r *fakeRegistration) SkipWaiting(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipWaiting++
	return nil
}

type fakeClient struct {
	url     string
	focused int32
	// onFocus lets a test observe ordering.
	onFocus func()
}

func (c *fakeClient) URL() string { return c.url }

func (c *fakeClient) Focus(ctx context.Context) error {
	if c.onFocus != nil {
		c.onFocus()
	}
	atomic.AddInt32(&c.focused, 1)
	return nil
}

type fakeClients struct {
	mu        sync.Mutex
	windows   []*fakeClient
	matchOpts []MatchOptions
	canOpen   bool
	opened    []string
	openErr   error
	claimed   int
	onMatch   func()
}

func (c *fakeClients) MatchAll(ctx context.Context, opts MatchOptions) ([]Client, error) {
	if c.onMatch != nil {
		c.onMatch()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matchOpts = append(c.matchOpts, opts)
	out := make([]Client, 0, len(c.windows))
	for _, w := range c.windows {
		out = append(out, w)
	}
	return out, nil
}

func (c *fakeClients) CanOpenWindow() bool { return c.canOpen }

func (c *fakeClients) OpenWindow(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, url)
	return c.openErr
}

func (c *fakeClients) Claim(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimed++
	return nil
}

type receipt struct {
	notificationID string
	customerID     string
}

type fakeReceipts struct {
	mu        sync.Mutex
	delivered []receipt
	clicked   []receipt
	clickErr  error
	onClicked func()
}

func (r *fakeReceipts) Delivered(ctx context.Context, notificationID, customerID string) {
	if notificationID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, receipt{notificationID, customerID})
}

func (r *fakeReceipts) Clicked(ctx context.Context, notificationID, customerID string) error {
	if r.onClicked != nil {
		r.onClicked()
	}
	if notificationID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicked = append(r.clicked, receipt{notificationID, customerID})
	return r.clickErr
}

type fakeNotification struct {
	data   payload.NotificationData
	closed atomic.Bool
}

func (n *fakeNotification) Data() payload.NotificationData { return n.data }
func (n *fakeNotification) Close()                         { n.closed.Store(true) }
