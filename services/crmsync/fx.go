package crmsync

import "go.uber.org/fx"

var Module = fx.Module("crmsync.module",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
)
