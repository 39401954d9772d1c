package creem

import "go.uber.org/fx"

var Module = fx.Module("creem",
	fx.Provide(NewClient),
)
