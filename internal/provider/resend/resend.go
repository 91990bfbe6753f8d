package resend

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"

	"construyo-opshub/internal/provider"
	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/errutil"
)

var Module = fx.Module("provider.resend", fx.Provide(NewClient))

type Client struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	from    string
}

type Params struct {
	fx.In
	Config *config.Config
	HTTP   *resty.Client
}

func NewClient(p Params) *Client {
	return &Client{
		http:    p.HTTP,
		baseURL: p.Config.Providers.Resend.BaseURL,
		apiKey:  p.Config.Providers.Resend.APIKey,
		from:    p.Config.Providers.Resend.From,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Deliver sends the payment-link email and returns the provider message id.
func (c *Client) Deliver(ctx context.Context, msg provider.Message) (string, error) {
	custom := ""
	if msg.CustomMessage != "" {
		custom = fmt.Sprintf("<p>%s</p>", msg.CustomMessage)
	}

	body := sendRequest{
		From:    c.from,
		To:      []string{msg.Recipient},
		Subject: fmt.Sprintf("Payment request from %s (%s)", msg.BusinessName, msg.InvoiceRef),
		HTML: fmt.Sprintf(
			`<h2>Payment request from %s</h2>%s<p>Invoice <strong>%s</strong> for <strong>%s</strong> is ready to pay.</p><p><a href="%s">Pay now</a></p>`,
			msg.BusinessName, custom, msg.InvoiceRef, msg.Amount, msg.PaymentURL,
		),
	}

	var out sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(body).
		SetResult(&out).
		Post(c.baseURL + "/emails")
	if err != nil {
		return "", fmt.Errorf("resend: send email: %w", err)
	}

	if !resp.IsSuccess() {
		return "", errutil.BadGateway(fmt.Sprintf("resend: send email failed: %s", resp.Status()))
	}

	return out.ID, nil
}
