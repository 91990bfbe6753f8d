package provider

import (
	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"

	"construyo-opshub/pkg/config"
)

var Module = fx.Module("provider.http", fx.Provide(NewRestyClient))

// NewRestyClient builds the shared outbound HTTP client used by every
// channel adapter. Adapter-level retry policy stays with the adapters; the
// client only bounds a single attempt.
func NewRestyClient(cfg *config.Config) *resty.Client {
	return resty.New().
		SetTimeout(cfg.Providers.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "construyo-opshub")
}
