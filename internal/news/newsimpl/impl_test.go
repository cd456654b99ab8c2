package newsimpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"github.com/orgball2608/news-mobile-core/pkg/retry"
)

const listing = `{
  "status": "ok",
  "totalResults": 2,
  "articles": [
    {
      "source": {"id": null, "name": "The Verge"},
      "title": "New iPhone",
      "description": "It is new.",
      "url": "https://example.com/iphone",
      "urlToImage": "https://example.com/iphone.jpg",
      "publishedAt": "2025-05-01T10:00:00Z"
    },
    {
      "source": {"id": null, "name": null},
      "title": "Older story",
      "description": null,
      "url": "https://example.com/older",
      "urlToImage": null,
      "publishedAt": "2025-04-30T08:30:00Z"
    }
  ]
}`

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      1.5,
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/v2/everything", "news-key", 20, 2*time.Second, fastRetry(), logger.Nop())
}

func TestClient_FetchBuildsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, "Apple", q.Get("q"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "20", q.Get("pageSize"))
		assert.Equal(t, "news-key", q.Get("apiKey"))
		_, _ = w.Write([]byte(listing))
	})

	articles, err := c.Fetch(context.Background(), "Apple")
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "New iPhone", articles[0].Title)
	assert.Equal(t, "The Verge", articles[0].SourceName())
	require.NotNil(t, articles[0].URLToImage)

	assert.Nil(t, articles[1].Description)
	assert.Nil(t, articles[1].URLToImage)
	assert.Equal(t, "Unknown", articles[1].SourceName())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(listing))
	})

	articles, err := c.Fetch(context.Background(), "Apple")
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
	})

	_, err := c.Fetch(context.Background(), "Apple")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "apiKeyInvalid", errors.GetCode(err))
	assert.Equal(t, "news service returned 401", errors.GetMessage(err))
}

func TestClient_BadJSON(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"ok","articles":[`))
	})

	_, err := c.Fetch(context.Background(), "Apple")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "failed to decode news response", errors.GetMessage(err))
}

func TestClient_ErrorStatusInBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"slow down"}`))
	})

	_, err := c.Fetch(context.Background(), "Apple")
	require.Error(t, err)
	assert.Equal(t, "rateLimited", errors.GetCode(err))
}

func TestClient_GivesUpAfterRetryBudget(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Fetch(context.Background(), "Apple")
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
}
