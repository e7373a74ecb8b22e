package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/storage"

	"github.com/jackc/pgx/v5"
)

const selectPage = `
SELECT type, page, items, expiration, session_id
FROM feed_pages
`

// Page возвращает страницу по варианту запроса:
//   - ExactSession — страница с заданным номером и идентификатором сессии;
//   - FreshAfter — страница 0 со сроком годности позже границы;
//   - Latest — страница 0 независимо от срока годности.
func (s *Storage) Page(ctx context.Context, serviceType string, q models.PageQuery) (*models.ServicePage, error) {
	const op = "storage.postgres.Page"

	var row pgx.Row
	switch q.Kind {
	case models.QueryExactSession:
		row = s.db.QueryRow(ctx, selectPage+`WHERE type = $1 AND page = $2 AND session_id = $3`,
			serviceType, q.Page, q.SessionID)
	case models.QueryFreshAfter:
		row = s.db.QueryRow(ctx, selectPage+`WHERE type = $1 AND page = 0 AND expiration > $2`,
			serviceType, q.Bound.UTC())
	case models.QueryLatest:
		row = s.db.QueryRow(ctx, selectPage+`WHERE type = $1 AND page = 0`, serviceType)
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidQuery, q.Kind)
	}

	var p models.ServicePage
	if err := row.Scan(&p.Type, &p.Page, &p.Items, &p.Expiration, &p.SessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.ID = models.PageID(p.Type, p.Page)
	p.Expiration = p.Expiration.UTC()
	if p.Items == nil {
		p.Items = []string{}
	}

	return &p, nil
}

// PutPage сохраняет страницу с upsert по (type, page).
func (s *Storage) PutPage(ctx context.Context, page models.ServicePage) error {
	const op = "storage.postgres.PutPage"

	items := page.Items
	if items == nil {
		items = []string{}
	}

	_, err := s.db.Exec(ctx, `
	INSERT INTO feed_pages (type, page, items, expiration, session_id)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (type, page) DO UPDATE
	SET
	items = EXCLUDED.items,
	expiration = EXCLUDED.expiration,
	session_id = EXCLUDED.session_id
	`, page.Type, page.Page, items, page.Expiration.UTC(), page.SessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
