package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pribylovaa/catchup/internal/remote"
	"github.com/stretchr/testify/require"
)

// Тесты клиента Hacker News на httptest-сервере:
//  - окно страницы по topstories и сохранение порядка при конкурентной загрузке;
//  - пропуск null/deleted/dead историй;
//  - пустая страница за пределами списка;
//  - классификация ошибок: не-2xx/битый JSON -> backend, недоступный хост -> transport.

// fakeHN — минимальный Firebase API: topstories + item/<id>.json.
func fakeHN(t *testing.T, ids []int64, items map[int64]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v0/topstories.json", func(w http.ResponseWriter, _ *http.Request) {
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, fmt.Sprint(id))
		}
		_, _ = w.Write([]byte("[" + strings.Join(parts, ",") + "]"))
	})
	mux.HandleFunc("/v0/item/", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		_, err := fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/v0/item/"), "%d.json", &id)
		require.NoError(t, err)

		body, ok := items[id]
		if !ok {
			body = "null"
		}
		// Разные задержки перемешивают порядок завершения запросов.
		time.Sleep(time.Duration(10-id%10) * time.Millisecond)
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func storyJSON(id int64, title, url string) string {
	return fmt.Sprintf(`{"id":%d,"type":"story","by":"pg","time":1700000000,"title":%q,"url":%q,"score":%d,"kids":[1,2,3]}`,
		id, title, url, id*10)
}

func TestFetchPage_WindowAndOrder(t *testing.T) {
	t.Parallel()

	ids := []int64{11, 12, 13, 14, 15}
	items := map[int64]string{}
	for _, id := range ids {
		items[id] = storyJSON(id, fmt.Sprintf("story %d", id), fmt.Sprintf("https://example.org/%d", id))
	}
	srv := fakeHN(t, ids, items)

	c := New(srv.Client(), Options{BaseURL: srv.URL + "/v0", PageSize: 2, MaxConcurrent: 4})

	page0, err := c.FetchPage(context.Background(), ServiceType, 0)
	require.NoError(t, err)
	require.Len(t, page0, 2)
	require.Equal(t, "hackernews:11", page0[0].StableID)
	require.Equal(t, "hackernews:12", page0[1].StableID)

	page2, err := c.FetchPage(context.Background(), ServiceType, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	require.Equal(t, "hackernews:15", page2[0].StableID)

	got := page0[0]
	require.Equal(t, "story 11", got.Title)
	require.Equal(t, "example.org", got.Source)
	require.Equal(t, "pg", got.Author)
	require.Equal(t, 110, got.Score)
	require.Equal(t, 3, got.CommentsCount)
	require.Equal(t, "https://news.ycombinator.com/item?id=11", got.CommentsURL)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), got.PublishedAt)
}

func TestFetchPage_OrderPreservedUnderConcurrency(t *testing.T) {
	t.Parallel()

	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	items := map[int64]string{}
	for _, id := range ids {
		items[id] = storyJSON(id, "t", "")
	}
	srv := fakeHN(t, ids, items)

	c := New(srv.Client(), Options{BaseURL: srv.URL + "/v0/", PageSize: 9, MaxConcurrent: 9})

	got, err := c.FetchPage(context.Background(), "hn", 0)
	require.NoError(t, err)
	require.Len(t, got, 9)
	for i, it := range got {
		require.Equal(t, fmt.Sprintf("hn:%d", ids[i]), it.StableID)
		require.Empty(t, it.Source, "без URL источник пустой")
	}
}

func TestFetchPage_SkipsDeletedAndNull(t *testing.T) {
	t.Parallel()

	ids := []int64{1, 2, 3, 4}
	items := map[int64]string{
		1: storyJSON(1, "alive", "https://a.example/"),
		2: `{"id":2,"deleted":true}`,
		3: `{"id":3,"dead":true,"title":"dead"}`,
		// 4 -> null
	}
	srv := fakeHN(t, ids, items)

	c := New(srv.Client(), Options{BaseURL: srv.URL + "/v0/", PageSize: 10})

	got, err := c.FetchPage(context.Background(), ServiceType, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hackernews:1", got[0].StableID)
}

func TestFetchPage_BeyondEnd_Empty(t *testing.T) {
	t.Parallel()

	srv := fakeHN(t, []int64{1}, map[int64]string{1: storyJSON(1, "t", "")})
	c := New(srv.Client(), Options{BaseURL: srv.URL + "/v0/", PageSize: 5})

	got, err := c.FetchPage(context.Background(), ServiceType, 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestFetchPage_BackendStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.Client(), Options{BaseURL: srv.URL})

	_, err := c.FetchPage(context.Background(), ServiceType, 0)
	require.Error(t, err)
	require.Equal(t, remote.KindBackend, remote.KindOf(err))
}

func TestFetchPage_BackendMalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.Client(), Options{BaseURL: srv.URL})

	_, err := c.FetchPage(context.Background(), ServiceType, 0)
	require.Error(t, err)
	require.Equal(t, remote.KindBackend, remote.KindOf(err))
}

func TestFetchPage_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close() // хост больше не слушает

	c := New(&http.Client{Timeout: time.Second}, Options{BaseURL: base})

	_, err := c.FetchPage(context.Background(), ServiceType, 0)
	require.Error(t, err)
	require.Equal(t, remote.KindTransport, remote.KindOf(err))
}

func TestFetchPage_CanceledContext(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.Client(), Options{BaseURL: srv.URL, RatePerSecond: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchPage(ctx, ServiceType, 0)
	require.Error(t, err)
	require.Equal(t, remote.KindCanceled, remote.KindOf(err))
	require.Zero(t, hits.Load())
}

// slowServer отвечает не раньше, чем через delay (или по закрытию соединения клиентом).
func slowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPage_ClientTimeoutIsTransport(t *testing.T) {
	t.Parallel()

	srv := slowServer(t, 300*time.Millisecond)
	c := New(&http.Client{Timeout: 50 * time.Millisecond}, Options{BaseURL: srv.URL})

	_, err := c.FetchPage(context.Background(), ServiceType, 0)
	require.Error(t, err)
	require.Equal(t, remote.KindTransport, remote.KindOf(err))
}

func TestFetchPage_CallerDeadlineIsCanceled(t *testing.T) {
	t.Parallel()

	srv := slowServer(t, 300*time.Millisecond)
	c := New(&http.Client{Timeout: time.Second}, Options{BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchPage(ctx, ServiceType, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, remote.KindCanceled, remote.KindOf(err))
}
