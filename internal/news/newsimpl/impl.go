package newsimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/news"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"github.com/orgball2608/news-mobile-core/pkg/retry"
	"go.uber.org/fx"
)

// Response bodies are small; anything past this is not a news listing.
const maxBodyBytes = 4 << 20

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type Client struct {
	endpoint string
	apiKey   string
	pageSize int
	http     *http.Client
	retry    retry.Config
	logger   logger.Logger
}

var _ news.Client = (*Client)(nil)

func New(opts Opts) *Client {
	cfg := opts.Config.News

	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.RetryAttempts

	return NewClient(cfg.Endpoint, cfg.APIKey, cfg.PageSize, cfg.Timeout, rc, opts.Logger.WithComponent("news_client"))
}

func NewClient(endpoint, apiKey string, pageSize int, timeout time.Duration, rc retry.Config, log logger.Logger) *Client {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		pageSize: pageSize,
		retry:    rc,
		logger:   log,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type response struct {
	Status       string           `json:"status"`
	TotalResults *int             `json:"totalResults,omitempty"`
	Articles     []domain.Article `json:"articles"`
	Code         string           `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
}

func (c *Client) Fetch(ctx context.Context, query string) ([]domain.Article, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid news endpoint")
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	var articles []domain.Article
	err = retry.Do(ctx, c.logger, "fetch_news", func() error {
		var err error
		articles, err = c.fetch(ctx, u.String())
		return err
	}, c.retry)
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, retry.Permanent(errors.Wrap(err, "failed to build news request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "news service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read news response")
	}

	if resp.StatusCode != http.StatusOK {
		var r response
		_ = json.Unmarshal(body, &r)
		err := errors.WrapWithCode(
			fmt.Errorf("status %d: %s", resp.StatusCode, r.Message),
			r.Code,
			"news service returned "+strconv.Itoa(resp.StatusCode),
		)
		if resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, retry.Permanent(errors.Wrap(err, "failed to decode news response"))
	}
	if r.Status != "" && r.Status != "ok" {
		return nil, retry.Permanent(errors.WrapWithCode(fmt.Errorf("status %q: %s", r.Status, r.Message), r.Code, "news service returned an error"))
	}

	return r.Articles, nil
}
