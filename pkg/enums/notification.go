package enums

// NotificationKind categorizes in-app notifications.
type NotificationKind string

const (
	NotificationOrderStatus NotificationKind = "order_status"
	NotificationPayment     NotificationKind = "payment"
)
