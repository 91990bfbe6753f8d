package paymentlink

// DeliveryMethod selects the channel a generated link is sent through. Each
// method carries its own validation; dispatch is an exhaustive switch in the
// service, not string branching at call sites.
type DeliveryMethod string

const (
	DeliveryEmail    DeliveryMethod = "email"
	DeliveryWhatsApp DeliveryMethod = "whatsapp"
)

func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryEmail, DeliveryWhatsApp:
		return true
	}
	return false
}

type ShareRequest struct {
	InvoiceID        string         `json:"invoiceId" binding:"required"`
	DeliveryMethod   DeliveryMethod `json:"deliveryMethod" binding:"required"`
	RecipientContact string         `json:"recipientContact" binding:"required"`
	CustomMessage    string         `json:"customMessage"`
}

type DeliveryResult struct {
	Method    DeliveryMethod `json:"method"`
	MessageID string         `json:"messageId"`
}

type ShareResponse struct {
	Success        bool            `json:"success"`
	PaymentLink    string          `json:"paymentLink"`
	DeliveryResult *DeliveryResult `json:"deliveryResult,omitempty"`
	Message        string          `json:"message"`
}
