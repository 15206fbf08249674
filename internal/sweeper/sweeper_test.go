package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"webpush-saas/internal/db"
	"webpush-saas/internal/model"
	"webpush-saas/internal/store"
)

type limitedDispatcher struct {
	capacity int
	ids      []string
}

func (d *limitedDispatcher) Dispatch(id string) bool {
	if len(d.ids) >= d.capacity {
		return false
	}
	d.ids = append(d.ids, id)
	return true
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))
	return store.NewGormStore(gormDB)
}

func TestSweepOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	link := &model.OptInLink{Name: "Loja", Active: true}
	require.NoError(t, s.CreateOptInLink(ctx, link))

	create := func(id string, age time.Duration, sent bool) {
		n := &model.Notification{ID: id, OptInLinkID: link.ID, Title: id, CreatedAt: now.Add(-age)}
		require.NoError(t, s.CreateNotification(ctx, n))
		if sent {
			require.NoError(t, s.MarkNotificationSent(ctx, id, now))
		}
	}
	create("old-1", 10*time.Minute, false)
	create("old-2", 5*time.Minute, false)
	create("old-sent", 10*time.Minute, true)
	create("fresh", 10*time.Second, false)

	d := &limitedDispatcher{capacity: 10}
	svc := NewService(s, d, time.Minute, zerolog.Nop())
	svc.now = func() time.Time { return now }

	assert.Equal(t, 2, svc.SweepOnce(ctx))
	assert.Equal(t, []string{"old-1", "old-2"}, d.ids)
}

func TestSweepOnceStopsWhenQueueIsFull(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	link := &model.OptInLink{Name: "Loja", Active: true}
	require.NoError(t, s.CreateOptInLink(ctx, link))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateNotification(ctx, &model.Notification{
			ID: id, OptInLinkID: link.ID, Title: id, CreatedAt: now.Add(-time.Hour),
		}))
	}

	d := &limitedDispatcher{capacity: 1}
	svc := NewService(s, d, time.Minute, zerolog.Nop())

	assert.Equal(t, 1, svc.SweepOnce(ctx))
	assert.Len(t, d.ids, 1)
}
