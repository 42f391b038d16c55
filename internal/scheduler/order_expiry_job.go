package scheduler

import (
	"context"
	"fmt"

	"github.com/greenbasket/greenbasket-backend/internal/orders"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

type staleOrderExpirer interface {
	ExpireStale(ctx context.Context) (*orders.ExpireResult, error)
}

// OrderExpiryJobParams configure the stale pending order sweep.
type OrderExpiryJobParams struct {
	Logger *logger.Logger
	Orders staleOrderExpirer
}

// NewOrderExpiryJob builds the job that cancels unpaid pending orders past
// their TTL and releases their stock holds.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &orderExpiryJob{logg: params.Logger, orders: params.Orders}, nil
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders staleOrderExpirer
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	result, err := j.orders.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("order expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"expired": result.Expired})
	j.logg.Info(logCtx, "order expiry sweep complete")
	return nil
}
