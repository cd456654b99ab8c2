package session

import (
	"context"

	"github.com/orgball2608/news-mobile-core/internal/profilebinder"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(
		profilebinder.New,
		func(b *profilebinder.Binder) ProfileBinder { return b },
		New,
	),
	fx.Invoke(func(lc fx.Lifecycle, s *Session, b *profilebinder.Binder) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				s.Close()
				b.Close()
				return nil
			},
		})
	}),
)
