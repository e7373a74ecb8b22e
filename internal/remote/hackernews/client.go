// hackernews реализует удалённый источник лент поверх Hacker News Firebase API.
package hackernews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/pkg/log"
	"github.com/pribylovaa/catchup/internal/remote"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// ServiceType — тип сервиса по умолчанию.
	ServiceType = "hackernews"
	// DefaultBaseURL — публичный API Hacker News.
	DefaultBaseURL = "https://hacker-news.firebaseio.com/v0/"
	// DefaultPageSize — сколько историй отдаётся на страницу.
	DefaultPageSize = 25

	commentsURL = "https://news.ycombinator.com/item?id="
)

// Options — параметры клиента.
type Options struct {
	BaseURL       string
	PageSize      int
	MaxConcurrent int
	// RatePerSecond — ограничение исходящих запросов; <= 0 — без ограничения.
	RatePerSecond float64
}

// Client реализует feed.Source для Hacker News.
//
// Страница N — окно [N*PageSize, (N+1)*PageSize) списка topstories;
// истории окна загружаются конкурентно (не более MaxConcurrent), порядок сохраняется.
type Client struct {
	client   *http.Client
	baseURL  string
	pageSize int
	maxConc  int
	limiter  *rate.Limiter
}

// New создаёт клиента Hacker News.
func New(client *http.Client, opts Options) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}

	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 6
	}

	c := &Client{
		client:   client,
		baseURL:  opts.BaseURL,
		pageSize: opts.PageSize,
		maxConc:  opts.MaxConcurrent,
	}

	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.MaxConcurrent)
	}

	return c
}

// story — ответ item/<id>.json.
type story struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	By          string  `json:"by"`
	Time        int64   `json:"time"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	Kids        []int64 `json:"kids"`
	Descendants int     `json:"descendants"`
	Deleted     bool    `json:"deleted"`
	Dead        bool    `json:"dead"`
}

// FetchPage загружает страницу page топовых историй.
// Страница за пределами списка — пустой результат без ошибки.
func (c *Client) FetchPage(ctx context.Context, serviceType string, page int) ([]models.FeedItem, error) {
	const op = "hackernews.FetchPage"

	if page < 0 {
		return nil, fmt.Errorf("%s: negative page %d", op, page)
	}

	var ids []int64
	if err := c.getJSON(ctx, "topstories.json", &ids); err != nil {
		return nil, err
	}

	start := page * c.pageSize
	if start >= len(ids) {
		return []models.FeedItem{}, nil
	}
	window := ids[start:min(start+c.pageSize, len(ids))]

	stories := make([]*story, len(window))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConc)
	for i, id := range window {
		g.Go(func() error {
			var s *story
			if err := c.getJSON(gctx, "item/"+strconv.FormatInt(id, 10)+".json", &s); err != nil {
				return err
			}
			stories[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, 0, len(stories))
	for _, s := range stories {
		// Удалённые истории API отдаёт как null или с deleted/dead.
		if s == nil || s.Deleted || s.Dead {
			continue
		}
		items = append(items, toFeedItem(serviceType, s))
	}

	log.From(ctx).Debug("hackernews_page_fetched",
		slog.String("op", op),
		slog.Int("page", page),
		slog.Int("items", len(items)),
	)

	return items, nil
}

// getJSON выполняет GET baseURL+path и декодирует JSON в dst.
// Ошибки классифицируются через пакет remote.
func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	const op = "hackernews.getJSON"

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%s: %w", op, ctx.Err())
			}
			return remote.Transport(op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: new_request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		log.From(ctx).Warn("http_error",
			slog.String("op", op),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return remote.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return remote.Backend(op, resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		// Обрыв соединения во время чтения тела — сбой связи, остальное — битый ответ.
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return remote.Transport(op, err)
		}
		return remote.Backend(op, 0, fmt.Errorf("decode %s: %w", path, err))
	}

	return nil
}

func toFeedItem(serviceType string, s *story) models.FeedItem {
	id := strconv.FormatInt(s.ID, 10)

	return models.FeedItem{
		StableID:      serviceType + ":" + id,
		Title:         strings.TrimSpace(s.Title),
		URL:           s.URL,
		Source:        hostOf(s.URL),
		Author:        s.By,
		Score:         s.Score,
		CommentsCount: len(s.Kids),
		CommentsURL:   commentsURL + id,
		PublishedAt:   time.Unix(s.Time, 0).UTC(),
	}
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	return u.Hostname()
}
