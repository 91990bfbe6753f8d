package stripe

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"

	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/errutil"
)

var Module = fx.Module("provider.stripe", fx.Provide(NewClient))

// LinkRequest describes a hosted payment link for a single invoice.
type LinkRequest struct {
	AmountMinor int64
	Currency    string
	Description string
}

// Link is the provider's hosted payment link.
type Link struct {
	ID  string
	URL string
}

type Client struct {
	http    *resty.Client
	baseURL string
}

type Params struct {
	fx.In
	Config *config.Config
	HTTP   *resty.Client
}

func NewClient(p Params) *Client {
	return &Client{
		http:    p.HTTP,
		baseURL: p.Config.Providers.Stripe.BaseURL,
	}
}

type linkResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentLink creates a hosted payment link using the caller's own
// secret key; credentials live per user, not in service config.
func (c *Client) CreatePaymentLink(ctx context.Context, apiKey string, req LinkRequest) (*Link, error) {
	var out linkResponse
	var apiErr errorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"line_items[0][price_data][currency]":                   req.Currency,
			"line_items[0][price_data][product_data][name]":         req.Description,
			"line_items[0][price_data][unit_amount]":                strconv.FormatInt(req.AmountMinor, 10),
			"line_items[0][quantity]":                               "1",
			"after_completion[type]":                                "hosted_confirmation",
			"after_completion[hosted_confirmation][custom_message]": "Thank you for your payment.",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(c.baseURL + "/v1/payment_links")
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment link: %w", err)
	}

	if !resp.IsSuccess() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, errutil.BadGateway(fmt.Sprintf("stripe: create payment link failed: %s", msg))
	}

	return &Link{ID: out.ID, URL: out.URL}, nil
}
