package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/pribylovaa/catchup/internal/feed"
	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/remote"
	"github.com/pribylovaa/catchup/mocks"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Record("hackernews", feed.OutcomeHit)
	m.Record("hackernews", feed.OutcomeHit)
	m.Record("hackernews", feed.OutcomeFallback)

	require.Equal(t, 2.0, testutil.ToFloat64(m.pages.WithLabelValues("hackernews", "hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.pages.WithLabelValues("hackernews", "fallback")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.pages.WithLabelValues("hackernews", "miss")))
}

func TestInstrumentSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)

	reg := prometheus.NewRegistry()
	m := New(reg)
	wrapped := m.InstrumentSource(src)

	gomock.InOrder(
		src.EXPECT().FetchPage(gomock.Any(), "hn", 0).Return([]models.FeedItem{{StableID: "hn:1"}}, nil),
		src.EXPECT().FetchPage(gomock.Any(), "hn", 1).Return(nil, remote.Transport("hn.fetch", errors.New("dial"))),
	)

	items, err := wrapped.FetchPage(context.Background(), "hn", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = wrapped.FetchPage(context.Background(), "hn", 1)
	require.Equal(t, remote.KindTransport, remote.KindOf(err), "ошибка источника не меняется")

	require.Equal(t, 2, testutil.CollectAndCount(m.fetch))
}
