package poller

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("poller",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, p *Poller) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return p.Start()
			},
			OnStop: func(context.Context) error {
				return p.Stop()
			},
		})
	}),
)
