package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"lifebit/pkg/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedisPublisher is the subset of the redis client used for fan-out.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// StoredSink persists every notification request as a row and, when redis is
// available, publishes it on a per-user (or broadcast) channel for live
// consumers. Delivery beyond that is owned by an external worker.
type StoredSink struct {
	db    *gorm.DB
	redis RedisPublisher
}

// NewStoredSink creates the default sink implementation.
func NewStoredSink(db *gorm.DB, redis RedisPublisher) *StoredSink {
	return &StoredSink{
		db:    db,
		redis: redis,
	}
}

// Send stores the request and publishes it. The redis publish is best-effort,
// only the row insert can fail the call.
func (s *StoredSink) Send(ctx context.Context, userID *uint, kind, title, body string) error {
	row := models.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("couldn't store the notification: %w", err)
	}

	if s.redis == nil {
		return nil
	}

	channel := "notifications:broadcast"
	if userID != nil {
		channel = fmt.Sprintf("notifications:user_%d", *userID)
	}

	if payload, err := json.Marshal(row); err == nil {
		s.redis.Publish(ctx, channel, payload)
	}

	return nil
}
