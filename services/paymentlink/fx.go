package paymentlink

import "go.uber.org/fx"

var Module = fx.Module("paymentlink.module",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
)
