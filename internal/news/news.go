// Package news loads third-party articles shown next to the post feed.
package news

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/internal/ratelimit"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"go.uber.org/fx"
)

var (
	ErrLoadInProgress = errors.WrapWithCode(errors.ErrInvalidInput, "load_in_progress", "news are already loading")
	ErrRateLimited    = errors.WrapWithCode(errors.ErrInvalidInput, "rate_limited", "too many news loads, try again later")
)

//go:generate go run go.uber.org/mock/mockgen -source=news.go -destination=mocks/mock.go
type Client interface {
	// Fetch returns the newest articles matching query.
	Fetch(ctx context.Context, query string) ([]domain.Article, error)
}

type State struct {
	IsLoading    bool
	ErrorMessage string
}

type Opts struct {
	fx.In

	Client  Client
	Limiter ratelimit.Limiter
	Config  *config.Config
	Logger  logger.Logger
}

// Loader keeps the last successfully fetched article list.
type Loader struct {
	client       Client
	limiter      ratelimit.Limiter
	defaultQuery string
	logger       logger.Logger

	mu       sync.Mutex
	loading  bool
	articles *observable.Value[[]domain.Article]
	state    *observable.Value[State]
}

func New(opts Opts) *Loader {
	return NewLoader(opts.Client, opts.Limiter, opts.Config.News.Query, opts.Logger)
}

func NewLoader(client Client, limiter ratelimit.Limiter, defaultQuery string, log logger.Logger) *Loader {
	if defaultQuery == "" {
		defaultQuery = "Apple"
	}
	return &Loader{
		client:       client,
		limiter:      limiter,
		defaultQuery: defaultQuery,
		logger:       log.WithComponent("news"),
		articles:     observable.New[[]domain.Article](nil),
		state:        observable.New(State{}),
	}
}

// Load replaces the articles with the result for query, or the default
// query when empty. A call made while another load runs is rejected with
// ErrLoadInProgress.
func (l *Loader) Load(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		query = l.defaultQuery
	}

	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		return ErrLoadInProgress
	}
	if l.limiter != nil && !l.limiter.Allow(strings.ToLower(query)) {
		l.mu.Unlock()
		l.logger.Warn("News load rate limited", "query", query)
		return ErrRateLimited
	}
	l.loading = true
	l.state.Set(State{IsLoading: true})
	l.mu.Unlock()

	articles, err := l.client.Fetch(context.WithoutCancel(ctx), query)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false

	if err != nil {
		l.logger.Error("Failed to load news", "query", query, "error", err)
		l.state.Set(State{ErrorMessage: "failed to load news: " + errors.GetMessage(err)})
		return err
	}

	l.articles.Set(slices.Clip(articles))
	l.state.Set(State{})
	l.logger.Info("News loaded", "query", query, "count", len(articles))
	return nil
}

// Articles returns a copy of the loaded articles.
func (l *Loader) Articles() []domain.Article {
	return slices.Clone(l.articles.Get())
}

func (l *Loader) ArticlesView() observable.View[[]domain.Article] {
	return l.articles
}

func (l *Loader) State() State {
	return l.state.Get()
}
