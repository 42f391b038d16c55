package enums

// PaymentMethod identifies how the buyer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodSquare     PaymentMethod = "square"
	PaymentMethodSSLCommerz PaymentMethod = "sslcommerz"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodSquare, PaymentMethodSSLCommerz:
		return true
	default:
		return false
	}
}

// RequiresGateway reports whether checkout must open a remote payment session.
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentMethodSquare || m == PaymentMethodSSLCommerz
}
