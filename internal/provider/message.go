package provider

// Message carries the payment-link notification fields shared by the email
// and WhatsApp channels.
type Message struct {
	Recipient     string
	BusinessName  string
	InvoiceRef    string
	Amount        string
	PaymentURL    string
	CustomMessage string
}
