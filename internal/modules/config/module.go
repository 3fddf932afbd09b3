package config

import "go.uber.org/fx"

// Module ...
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(NewConfig),
	)
}
