// rss реализует удалённый источник лент для RSS/Atom/JSON Feed на базе gofeed.
package rss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/pkg/log"
	"github.com/pribylovaa/catchup/internal/remote"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
)

// DefaultPageSize — размер страницы по умолчанию.
const DefaultPageSize = 25

// Source реализует feed.Source для одной ленты.
// Лента загружается целиком на каждый запрос, страница — окно по её элементам.
type Source struct {
	client   *http.Client
	feedURL  string
	pageSize int
}

// New создаёт источник для ленты feedURL.
func New(client *http.Client, feedURL string, pageSize int) *Source {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Source{client: client, feedURL: feedURL, pageSize: pageSize}
}

// FetchPage загружает ленту и возвращает страницу page.
func (s *Source) FetchPage(ctx context.Context, serviceType string, page int) ([]models.FeedItem, error) {
	const op = "rss.FetchPage"

	if page < 0 {
		return nil, fmt.Errorf("%s: negative page %d", op, page)
	}

	feed, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	all := convert(serviceType, feed.Items)

	start := page * s.pageSize
	if start >= len(all) {
		return []models.FeedItem{}, nil
	}

	return all[start:min(start+s.pageSize, len(all))], nil
}

// fetch загружает и парсит ленту с классификацией ошибок.
func (s *Source) fetch(ctx context.Context) (*gofeed.Feed, error) {
	const op = "rss.fetch"

	lg := log.From(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new_request: %w", op, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		lg.Warn("http_error",
			slog.String("op", op),
			slog.String("url", s.feedURL),
			slog.String("err", err.Error()),
		)
		return nil, remote.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, remote.Backend(op, resp.StatusCode, nil)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return nil, remote.Transport(op, err)
		}
		return nil, remote.Backend(op, 0, fmt.Errorf("parse %s: %w", s.feedURL, err))
	}

	return feed, nil
}

// convert нормализует элементы ленты: без заголовка или ссылки запись отбрасывается,
// дубликаты по каноничной ссылке схлопываются (остаётся первый).
func convert(serviceType string, items []*gofeed.Item) []models.FeedItem {
	output := make([]models.FeedItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		title := strings.TrimSpace(item.Title)
		link := canonicalLink(item.Link, item.GUID)
		if title == "" || link == "" {
			continue
		}

		id := serviceType + ":" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		output = append(output, models.FeedItem{
			StableID:    id,
			Title:       title,
			URL:         link,
			Source:      hostOf(link),
			Author:      authorOf(item),
			PublishedAt: publishedOf(item),
		})
	}

	return output
}

func authorOf(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return strings.TrimSpace(item.Author.Name)
	}

	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return strings.TrimSpace(a.Name)
		}
	}

	return ""
}

func publishedOf(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}

// canonicalLink нормализует ссылку: убирает фрагмент и трекинг.
// Пустая ссылка заменяется guid, если он похож на URL.
func canonicalLink(raw, guid string) string {
	str := strings.TrimSpace(raw)

	if str == "" {
		if g := strings.TrimSpace(guid); strings.HasPrefix(g, "http://") || strings.HasPrefix(g, "https://") {
			str = g
		}
	}

	u, err := url.Parse(str)
	if err != nil {
		return str
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return str
	}

	u.Fragment = ""
	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || strings.HasSuffix(lk, "clid") || strings.HasPrefix(lk, "mc_") || lk == "igshid" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	return u.Hostname()
}
