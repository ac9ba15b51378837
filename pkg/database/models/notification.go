package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a stored notification request. UserID is nil for broadcasts
// (season end); delivery itself is handled by an external consumer reading the
// table or the redis channel.
type Notification struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID *uint `gorm:"index"`

	Kind  string `gorm:"type:varchar(32)"`
	Title string
	Body  string
	Read  bool

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
