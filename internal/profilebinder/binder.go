// Package profilebinder keeps the profile document of the signed-in identity.
package profilebinder

import (
	"context"
	"sync"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/internal/repositories/profile"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Profiles profile.Repository
	Logger   logger.Logger
}

// Binder loads the profile whenever the identity changes. A fetch result is
// applied only while the generation that started it is still current, so a
// slow fetch can never resurrect the profile of a previous identity.
type Binder struct {
	profiles profile.Repository
	logger   logger.Logger

	mu       sync.Mutex
	identity *domain.Identity
	gen      uint64
	profile  *observable.Value[*domain.Profile]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Opts) *Binder {
	ctx, cancel := context.WithCancel(context.Background())
	return &Binder{
		profiles: opts.Profiles,
		logger:   opts.Logger.WithComponent("profile_binder"),
		profile:  observable.New[*domain.Profile](nil),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnIdentityChange clears the profile synchronously when identity is nil or
// a different principal, then starts a fetch for a present identity.
func (b *Binder) OnIdentityChange(identity *domain.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.gen++
	changed := !domain.SameIdentity(b.identity, identity)
	b.identity = identity

	if identity == nil || changed {
		b.profile.Set(nil)
	}
	if identity == nil {
		return
	}

	b.fetchLocked(identity.ID, b.gen)
}

// Reload fetches the profile of the current identity again.
func (b *Binder) Reload() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.identity == nil {
		return
	}
	b.gen++
	b.fetchLocked(b.identity.ID, b.gen)
}

func (b *Binder) fetchLocked(id string, gen uint64) {
	if b.ctx.Err() != nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		p, err := b.profiles.Get(b.ctx, id)

		b.mu.Lock()
		defer b.mu.Unlock()

		if gen != b.gen {
			b.logger.Debug("Dropping stale profile fetch", "user_id", id)
			return
		}
		if err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				b.logger.Warn("Profile document missing", "user_id", id)
			} else {
				b.logger.Error("Failed to fetch profile", "user_id", id, "error", err)
			}
			return
		}

		b.profile.Set(&p)
	}()
}

func (b *Binder) Profile() *domain.Profile {
	return b.profile.Get()
}

func (b *Binder) ProfileView() observable.View[*domain.Profile] {
	return b.profile
}

// Wait blocks until every started fetch has finished.
func (b *Binder) Wait() {
	b.wg.Wait()
}

// Close cancels in-flight fetches and waits for them.
func (b *Binder) Close() {
	// Under mu so no fetch passes the ctx check after cancel
	b.mu.Lock()
	b.cancel()
	b.mu.Unlock()

	b.wg.Wait()
}
