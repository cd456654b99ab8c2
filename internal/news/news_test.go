package news

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	mock_news "github.com/orgball2608/news-mobile-core/internal/news/mocks"
	"github.com/orgball2608/news-mobile-core/internal/ratelimit"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
)

func article(title string) domain.Article {
	return domain.Article{Title: title, URL: "https://example.com/" + title, PublishedAt: "2025-05-01T10:00:00Z"}
}

func TestLoader_LoadReplacesArticles(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_news.NewMockClient(ctrl)
	l := NewLoader(client, ratelimit.NewInMemoryLimiter(0, time.Minute, 1), "Apple", logger.Nop())

	gomock.InOrder(
		client.EXPECT().Fetch(gomock.Any(), "Apple").Return([]domain.Article{article("a"), article("b")}, nil),
		client.EXPECT().Fetch(gomock.Any(), "golang").Return([]domain.Article{article("c")}, nil),
	)

	require.NoError(t, l.Load(context.Background(), ""))
	assert.Len(t, l.Articles(), 2)

	require.NoError(t, l.Load(context.Background(), " golang "))
	assert.Equal(t, []domain.Article{article("c")}, l.Articles())
	assert.Equal(t, State{}, l.State())
}

func TestLoader_FailureKeepsArticles(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_news.NewMockClient(ctrl)
	l := NewLoader(client, nil, "Apple", logger.Nop())

	gomock.InOrder(
		client.EXPECT().Fetch(gomock.Any(), "Apple").Return([]domain.Article{article("a")}, nil),
		client.EXPECT().Fetch(gomock.Any(), "Apple").Return(nil, errors.New("upstream returned 500")),
	)

	require.NoError(t, l.Load(context.Background(), ""))
	require.Error(t, l.Load(context.Background(), ""))

	assert.Len(t, l.Articles(), 1)
	st := l.State()
	assert.False(t, st.IsLoading)
	assert.Equal(t, "failed to load news: upstream returned 500", st.ErrorMessage)
}

func TestLoader_IgnoresCallWhileLoading(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_news.NewMockClient(ctrl)
	l := NewLoader(client, nil, "Apple", logger.Nop())

	entered := make(chan struct{})
	release := make(chan struct{})
	client.EXPECT().
		Fetch(gomock.Any(), "Apple").
		DoAndReturn(func(context.Context, string) ([]domain.Article, error) {
			close(entered)
			<-release
			return []domain.Article{article("a")}, nil
		}).
		Times(1)

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background(), "") }()
	<-entered

	assert.True(t, l.State().IsLoading)
	assert.ErrorIs(t, l.Load(context.Background(), ""), ErrLoadInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, l.Articles(), 1)
}

func TestLoader_RateLimitedPerQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_news.NewMockClient(ctrl)
	l := NewLoader(client, ratelimit.NewInMemoryLimiter(1, time.Hour, 1), "Apple", logger.Nop())

	client.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	require.NoError(t, l.Load(context.Background(), "Apple"))
	assert.ErrorIs(t, l.Load(context.Background(), "apple"), ErrRateLimited)
	require.NoError(t, l.Load(context.Background(), "golang"))
}
