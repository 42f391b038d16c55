package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal slice of the account table the fulfillment core needs;
// registration and session handling live in the auth service.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
