package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"webpush-saas/internal/model"
)

// ErrNotFound is returned when a looked up record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateOptInLink(ctx context.Context, link *model.OptInLink) error
	GetOptInLinkByToken(ctx context.Context, token string) (*model.OptInLink, error)

	// RegisterOptIn stores the customer and, when sub is not nil, moves the
	// subscription's endpoint to that customer.
	RegisterOptIn(ctx context.Context, customer *model.Customer, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForLink(ctx context.Context, linkID string) ([]model.PushSubscription, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	MarkNotificationSent(ctx context.Context, id string, at time.Time) error
	// UnsentNotifications lists notifications created before the given time
	// that were never sent, oldest first.
	UnsentNotifications(ctx context.Context, createdBefore time.Time, limit int) ([]model.Notification, error)

	// RecordTrackingEvent reports false when the receipt was already recorded.
	RecordTrackingEvent(ctx context.Context, ev *model.TrackingEvent) (bool, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateOptInLink(ctx context.Context, link *model.OptInLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.Token == "" {
		link.Token = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("failed to create opt-in link: %w", err)
	}
	return nil
}

func (s *gormStore) GetOptInLinkByToken(ctx context.Context, token string) (*model.OptInLink, error) {
	var link model.OptInLink
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opt-in link: %w", err)
	}
	return &link, nil
}

func (s *gormStore) RegisterOptIn(ctx context.Context, customer *model.Customer, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findCustomer(tx, customer)
		if err != nil {
			return err
		}

		if existing != nil {
			customer.ID = existing.ID
			customer.CreatedAt = existing.CreatedAt
			if err := tx.Model(existing).Updates(map[string]any{
				"name":     firstNonEmpty(customer.Name, existing.Name),
				"phone":    firstNonEmpty(customer.Phone, existing.Phone),
				"platform": customer.Platform,
				"browser":  customer.Browser,
			}).Error; err != nil {
				return fmt.Errorf("failed to update customer %s: %w", existing.ID, err)
			}
		} else {
			if customer.ID == "" {
				customer.ID = uuid.NewString()
			}
			if err := tx.Create(customer).Error; err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}
		}

		if sub == nil {
			return nil
		}
		sub.CustomerID = customer.ID
		sub.OptInLinkID = customer.OptInLinkID
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "expiration_time", "customer_id", "opt_in_link_id", "updated_at"}),
		}).Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}
		return nil
	})
}

// findCustomer looks up a customer of the same link by email, then phone.
func findCustomer(tx *gorm.DB, c *model.Customer) (*model.Customer, error) {
	for _, key := range []struct{ column, value string }{{"email", c.Email}, {"phone", c.Phone}} {
		if key.value == "" {
			continue
		}
		var found model.Customer
		err := tx.Where("opt_in_link_id = ? AND "+key.column+" = ?", c.OptInLinkID, key.value).First(&found).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up customer by %s: %w", key.column, err)
		}
		return &found, nil
	}
	return nil, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}

func (s *gormStore) SubscriptionsForLink(ctx context.Context, linkID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("opt_in_link_id = ?", linkID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for link %s: %w", linkID, err)
	}
	return subs, nil
}

func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *gormStore) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification %s: %w", id, err)
	}
	return &n, nil
}

func (s *gormStore) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	if err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("sent_at", at).Error; err != nil {
		return fmt.Errorf("failed to mark notification %s sent: %w", id, err)
	}
	return nil
}

func (s *gormStore) UnsentNotifications(ctx context.Context, createdBefore time.Time, limit int) ([]model.Notification, error) {
	var ns []model.Notification
	if err := s.db.WithContext(ctx).
		Where("sent_at IS NULL AND created_at < ?", createdBefore).
		Order("created_at").
		Limit(limit).
		Find(&ns).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unsent notifications: %w", err)
	}
	return ns, nil
}

func (s *gormStore) RecordTrackingEvent(ctx context.Context, ev *model.TrackingEvent) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ev)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record %s receipt for %s: %w", ev.Kind, ev.NotificationID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
