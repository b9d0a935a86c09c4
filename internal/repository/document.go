package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumenfeed/newsrag/internal/domain"
)

// DocumentRepository persists deduplicated news documents.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

// Upsert inserts the document unless a row with the same url or content
// hash already exists. It returns the row id and whether a new row was
// written. The first write wins; a duplicate never mutates the stored row.
func (r *DocumentRepository) Upsert(ctx context.Context, d *domain.Document) (int64, bool, error) {
	if err := domain.ValidateDocument(d); err != nil {
		return 0, false, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	crawledAt := d.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = time.Now().UTC()
	}

	var id int64
	var inserted bool
	err := r.db.QueryRow(ctx,
		`WITH existing AS (
			SELECT id FROM documents WHERE url = $1 OR content_hash = $2 LIMIT 1
		 ), inserted AS (
			INSERT INTO documents (url, title, source, date_published, crawled_at, content_hash, raw_text, lang)
			SELECT $1, $3, $4, $5, $6, $2, $7, $8
			WHERE NOT EXISTS (SELECT 1 FROM existing)
			ON CONFLICT DO NOTHING
			RETURNING id
		 )
		 SELECT id, true FROM inserted
		 UNION ALL
		 SELECT id, false FROM existing
		 LIMIT 1`,
		d.URL, d.ContentHash, d.Title, d.Source, d.DatePublished, crawledAt, d.RawText, d.Lang,
	).Scan(&id, &inserted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent insert won the unique index race between the
			// existing-check and our insert. The winner's row is there now.
			return r.findExisting(ctx, d.URL, d.ContentHash)
		}
		return 0, false, err
	}

	if inserted {
		d.ID = id
		d.CrawledAt = crawledAt
	}
	return id, inserted, nil
}

func (r *DocumentRepository) findExisting(ctx context.Context, url, contentHash string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM documents WHERE url = $1 OR content_hash = $2 LIMIT 1`,
		url, contentHash,
	).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	var d domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT id, url, title, source, date_published, crawled_at, content_hash, raw_text, lang
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.URL, &d.Title, &d.Source, &d.DatePublished, &d.CrawledAt, &d.ContentHash, &d.RawText, &d.Lang)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FetchRecent returns the most recently stored documents, newest row first.
func (r *DocumentRepository) FetchRecent(ctx context.Context, limit int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, url, title, source, date_published, crawled_at, content_hash, raw_text, lang
		 FROM documents ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.URL, &d.Title, &d.Source, &d.DatePublished, &d.CrawledAt, &d.ContentHash, &d.RawText, &d.Lang); err != nil {
			return nil, err
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}
