package respondio

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"

	"construyo-opshub/internal/provider"
	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/errutil"
)

var Module = fx.Module("provider.respondio", fx.Provide(NewClient))

type Client struct {
	http      *resty.Client
	baseURL   string
	apiKey    string
	channelID string
}

type Params struct {
	fx.In
	Config *config.Config
	HTTP   *resty.Client
}

func NewClient(p Params) *Client {
	return &Client{
		http:      p.HTTP,
		baseURL:   p.Config.Providers.RespondIO.BaseURL,
		apiKey:    p.Config.Providers.RespondIO.APIKey,
		channelID: p.Config.Providers.RespondIO.ChannelID,
	}
}

type sendRequest struct {
	ChannelID string      `json:"channelId"`
	Message   textMessage `json:"message"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

// Deliver sends the payment-link WhatsApp message and returns the provider
// message id. The contact is addressed by phone number.
func (c *Client) Deliver(ctx context.Context, msg provider.Message) (string, error) {
	text := fmt.Sprintf("Payment request from %s\n\nInvoice %s for %s is ready to pay:\n%s",
		msg.BusinessName, msg.InvoiceRef, msg.Amount, msg.PaymentURL)
	if msg.CustomMessage != "" {
		text = fmt.Sprintf("%s\n\n%s", msg.CustomMessage, text)
	}

	var out sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(sendRequest{
			ChannelID: c.channelID,
			Message:   textMessage{Type: "text", Text: text},
		}).
		SetResult(&out).
		Post(fmt.Sprintf("%s/v2/contact/phone:%s/message", c.baseURL, msg.Recipient))
	if err != nil {
		return "", fmt.Errorf("respondio: send message: %w", err)
	}

	if !resp.IsSuccess() {
		return "", errutil.BadGateway(fmt.Sprintf("respondio: send message failed: %s", resp.Status()))
	}

	return out.MessageID, nil
}
