package videogen

import "go.uber.org/fx"

var Module = fx.Module("videogen.module",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
)

// WorkerModule is mounted only in the worker process.
var WorkerModule = fx.Module("videogen.worker",
	fx.Provide(NewWorker),
	fx.Invoke(RegisterWorker),
)
