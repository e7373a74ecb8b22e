package postgres

import (
	"context"
	"fmt"

	"github.com/pribylovaa/catchup/internal/models"

	"github.com/jackc/pgx/v5"
)

// ItemsByIDs возвращает найденные элементы; отсутствующие id пропускаются.
// Порядок результата не гарантируется.
func (s *Storage) ItemsByIDs(ctx context.Context, ids []string) ([]models.FeedItem, error) {
	const op = "storage.postgres.ItemsByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, title, url, source, author, score, comments_count, comments_url, published_at
	FROM feed_items
	WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	output := make([]models.FeedItem, 0, len(ids))
	for rows.Next() {
		var it models.FeedItem
		if err := rows.Scan(
			&it.StableID,
			&it.Title,
			&it.URL,
			&it.Source,
			&it.Author,
			&it.Score,
			&it.CommentsCount,
			&it.CommentsURL,
			&it.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		it.PublishedAt = it.PublishedAt.UTC()
		output = append(output, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return output, nil
}

// PutItems сохраняет пачку элементов с upsert по id.
//
// Политика обновления: изменчивые поля (title, score, comments_count, url, source)
// обновляются всегда, published_at — не меняется.
func (s *Storage) PutItems(ctx context.Context, items []models.FeedItem) error {
	const op = "storage.postgres.PutItems"

	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
		INSERT INTO feed_items (id, title, url, source, author, score, comments_count, comments_url, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET
		title = EXCLUDED.title,
		url = EXCLUDED.url,
		source = EXCLUDED.source,
		author = EXCLUDED.author,
		score = EXCLUDED.score,
		comments_count = EXCLUDED.comments_count,
		comments_url = EXCLUDED.comments_url,
		updated_at = now()
		`, it.StableID, it.Title, it.URL, it.Source, it.Author, it.Score,
			it.CommentsCount, it.CommentsURL, it.PublishedAt.UTC())
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%s: batch item %d: %w", op, i, err)
		}
	}

	return nil
}
