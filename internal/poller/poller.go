// Package poller keeps the feed and the news fresh while someone is signed in.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/news"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

type Feed interface {
	Refresh(ctx context.Context) error
	Posts() []domain.Post
}

type News interface {
	Load(ctx context.Context, query string) error
	Articles() []domain.Article
}

type Identities interface {
	Identity() *domain.Identity
	IdentityView() observable.View[*domain.Identity]
}

type Opts struct {
	fx.In

	Config   *config.Config
	Feed     Feed
	News     News
	Identity Identities
	Logger   logger.Logger
}

type Poller struct {
	feed     Feed
	news     News
	identity Identities
	interval time.Duration
	logger   logger.Logger

	scheduler gocron.Scheduler
	sub       *observable.Subscription

	// mu orders cancel against wg.Add for initial loads
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Opts) *Poller {
	return NewPoller(opts.Feed, opts.News, opts.Identity, opts.Config.Poller.Interval, opts.Logger)
}

func NewPoller(feed Feed, n News, identity Identities, interval time.Duration, log logger.Logger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		feed:     feed,
		news:     n,
		identity: identity,
		interval: interval,
		logger:   log.WithComponent("poller"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start loads content whenever an identity appears and, with a positive
// interval, schedules periodic refreshes.
func (p *Poller) Start() error {
	p.sub = p.identity.IdentityView().Subscribe(func(id *domain.Identity, _ uint64) {
		if id == nil {
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.ctx.Err() != nil {
			return
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.initialLoad(p.ctx)
		}()
	})

	if p.interval <= 0 {
		p.logger.Info("Periodic refresh disabled")
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() {
			if p.ctx.Err() != nil {
				return
			}
			if err := p.Tick(p.ctx); err != nil {
				p.logger.Warn("Scheduled refresh failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	scheduler.Start()
	p.scheduler = scheduler
	p.logger.Info("Periodic refresh scheduled", "interval", p.interval.String())
	return nil
}

// Tick refreshes the feed and the news together. It does nothing while
// signed out.
func (p *Poller) Tick(ctx context.Context) error {
	if p.identity.Identity() == nil {
		p.logger.Debug("Skipping refresh, signed out")
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.feed.Refresh(ctx)
	})
	g.Go(func() error {
		err := p.news.Load(ctx, "")
		if errors.Is(err, news.ErrLoadInProgress) || errors.Is(err, news.ErrRateLimited) {
			return nil
		}
		return err
	})
	return g.Wait()
}

// initialLoad fills whatever is still empty after sign-in.
func (p *Poller) initialLoad(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	if len(p.feed.Posts()) == 0 {
		g.Go(func() error {
			return p.feed.Refresh(ctx)
		})
	}
	if len(p.news.Articles()) == 0 {
		g.Go(func() error {
			if err := p.news.Load(ctx, ""); err != nil && !errors.Is(err, news.ErrLoadInProgress) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.Warn("Initial load incomplete", "error", err)
	}
}

func (p *Poller) Stop() error {
	p.mu.Lock()
	p.cancel()
	p.mu.Unlock()

	p.sub.Close()
	p.wg.Wait()

	if p.scheduler == nil {
		return nil
	}
	if err := p.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	return nil
}
