package logger

import (
	"context"

	"github.com/orgball2608/news-mobile-core/pkg/config"
	"go.uber.org/fx"
)

var FxOption = fx.Annotate(
	func(lc fx.Lifecycle, cfg *config.Config) *Impl {
		l := New(
			Opts{
				Env:       cfg.App.Env,
				Level:     cfg.App.LogLevel,
				SentryDSN: cfg.App.SentryUrl,
			},
		)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				l.Flush(ctx)
				return nil
			},
		})

		return l
	},
	fx.As(new(Logger)),
)
