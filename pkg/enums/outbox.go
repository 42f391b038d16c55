package enums

// OutboxEventType enumerates domain events persisted through the outbox.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventOrderExpired       OutboxEventType = "order.expired"
	EventPaymentSucceeded   OutboxEventType = "payment.succeeded"
	EventPaymentFailed      OutboxEventType = "payment.failed"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregatePayment OutboxAggregateType = "payment"
)
