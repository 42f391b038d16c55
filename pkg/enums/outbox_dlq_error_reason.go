package enums

// OutboxDLQErrorReason classifies why an outbox event was parked.
type OutboxDLQErrorReason string

const (
	DLQReasonDecodeFailed   OutboxDLQErrorReason = "decode_failed"
	DLQReasonPublishFailed  OutboxDLQErrorReason = "publish_failed"
	DLQReasonUnroutedEvent  OutboxDLQErrorReason = "unrouted_event"
	DLQReasonMaxAttempts    OutboxDLQErrorReason = "max_attempts_exceeded"
)
