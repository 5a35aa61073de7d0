package config

import "go.uber.org/fx"

// Module wires application and store configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewStoreProfileHolder,
	),
)
