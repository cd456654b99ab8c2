package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/news"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
)

type fakeFeed struct {
	refreshes atomic.Int32
	mu        sync.Mutex
	posts     []domain.Post
	err       error
}

func (f *fakeFeed) Refresh(context.Context) error {
	f.refreshes.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.posts = []domain.Post{{ID: "p1", Title: "T"}}
	return nil
}

func (f *fakeFeed) Posts() []domain.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

type fakeNews struct {
	loads    atomic.Int32
	mu       sync.Mutex
	articles []domain.Article
	err      error
}

func (f *fakeNews) Load(context.Context, string) error {
	f.loads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.articles = []domain.Article{{Title: "A"}}
	return nil
}

func (f *fakeNews) Articles() []domain.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.articles
}

type fakeIdentities struct {
	v *observable.Value[*domain.Identity]
}

func (f fakeIdentities) Identity() *domain.Identity                      { return f.v.Get() }
func (f fakeIdentities) IdentityView() observable.View[*domain.Identity] { return f.v }

func newFakeIdentities() fakeIdentities {
	return fakeIdentities{v: observable.New[*domain.Identity](nil)}
}

func TestPoller_TickSkipsWhenSignedOut(t *testing.T) {
	feed, n := &fakeFeed{}, &fakeNews{}
	p := NewPoller(feed, n, newFakeIdentities(), 0, logger.Nop())

	require.NoError(t, p.Tick(context.Background()))
	assert.Zero(t, feed.refreshes.Load())
	assert.Zero(t, n.loads.Load())
}

func TestPoller_TickRefreshesBoth(t *testing.T) {
	feed, n := &fakeFeed{}, &fakeNews{}
	ids := newFakeIdentities()
	ids.v.Set(&domain.Identity{ID: "u1"})
	p := NewPoller(feed, n, ids, 0, logger.Nop())

	require.NoError(t, p.Tick(context.Background()))
	assert.EqualValues(t, 1, feed.refreshes.Load())
	assert.EqualValues(t, 1, n.loads.Load())
}

func TestPoller_TickToleratesBusyNews(t *testing.T) {
	feed := &fakeFeed{}
	n := &fakeNews{err: news.ErrRateLimited}
	ids := newFakeIdentities()
	ids.v.Set(&domain.Identity{ID: "u1"})
	p := NewPoller(feed, n, ids, 0, logger.Nop())

	assert.NoError(t, p.Tick(context.Background()))
}

func TestPoller_TickReportsFeedFailure(t *testing.T) {
	feed := &fakeFeed{err: errors.WrapKind(errors.ErrStoreUnavailable, context.DeadlineExceeded, "failed to list posts")}
	ids := newFakeIdentities()
	ids.v.Set(&domain.Identity{ID: "u1"})
	p := NewPoller(feed, &fakeNews{}, ids, 0, logger.Nop())

	err := p.Tick(context.Background())
	assert.True(t, errors.IsStoreUnavailable(err))
}

func TestPoller_InitialLoadOnSignIn(t *testing.T) {
	feed, n := &fakeFeed{}, &fakeNews{}
	ids := newFakeIdentities()
	p := NewPoller(feed, n, ids, 0, logger.Nop())

	require.NoError(t, p.Start())
	ids.v.Set(&domain.Identity{ID: "u1"})

	require.Eventually(t, func() bool {
		return feed.refreshes.Load() == 1 && n.loads.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Content is present now, a second sign-in does not reload it
	ids.v.Set(nil)
	ids.v.Set(&domain.Identity{ID: "u2"})
	require.NoError(t, p.Stop())

	assert.EqualValues(t, 1, feed.refreshes.Load())
	assert.EqualValues(t, 1, n.loads.Load())
}

func TestPoller_ScheduledRefresh(t *testing.T) {
	feed, n := &fakeFeed{}, &fakeNews{}
	ids := newFakeIdentities()
	ids.v.Set(&domain.Identity{ID: "u1"})
	p := NewPoller(feed, n, ids, 20*time.Millisecond, logger.Nop())

	require.NoError(t, p.Start())
	defer func() { require.NoError(t, p.Stop()) }()

	require.Eventually(t, func() bool {
		return feed.refreshes.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPoller_NoInitialLoadStartsAfterStop(t *testing.T) {
	for i := 0; i < 50; i++ {
		// Failing refreshes keep the feed empty so every sign-in loads
		feed := &fakeFeed{err: errors.WrapKind(errors.ErrStoreUnavailable, context.Canceled, "failed to list posts")}
		n := &fakeNews{err: news.ErrLoadInProgress}
		ids := newFakeIdentities()
		p := NewPoller(feed, n, ids, 0, logger.Nop())
		require.NoError(t, p.Start())

		stop := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-stop:
					return
				default:
				}
				ids.v.Set(&domain.Identity{ID: "u1"})
				ids.v.Set(nil)
			}
		}()

		time.Sleep(time.Millisecond)
		require.NoError(t, p.Stop())
		started := feed.refreshes.Load()

		close(stop)
		<-done
		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, started, feed.refreshes.Load())
	}
}
