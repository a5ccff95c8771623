package domain

// PaymentHandle is the provider-side reference for a pending payment.
// The URL points at the provider's hosted payment page.
type PaymentHandle struct {
	ID     string
	URL    string
	Amount float64
}
