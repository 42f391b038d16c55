package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/internal/inventory"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox"
)

// StockHolder is the slice of the inventory service orders drive. Every call
// runs inside the order transaction so stock and state move together.
type StockHolder interface {
	ReserveTx(ctx context.Context, tx *gorm.DB, params inventory.ReserveParams) ([]models.Reservation, error)
	CommitTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*inventory.CommitResult, error)
	ReleaseTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*inventory.ReleaseResult, error)
}

// UserDirectory resolves buyers.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Catalog resolves products for price snapshotting.
type Catalog interface {
	FindBySKUs(ctx context.Context, skus []string) (map[string]models.Product, error)
}

// AttemptCounter bounds failed OTP submissions per order.
type AttemptCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	OTPAttemptKey(orderID string) string
	Del(ctx context.Context, keys ...string) error
}

// EventEmitter appends domain events to the outbox inside the caller's
// transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
