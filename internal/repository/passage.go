package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/pgvector/pgvector-go"
)

// PassageRepository is the pgvector-backed vector index. Passage rows are
// keyed by the stable chunk id, so re-indexing a document overwrites its
// vectors in place.
type PassageRepository struct {
	db dbtx
}

func NewPassageRepository(pool *pgxpool.Pool) *PassageRepository {
	return &PassageRepository{db: pool}
}

// UpsertPassages writes the passages by id, updating text and embedding on
// conflict. It returns the number of rows written.
func (r *PassageRepository) UpsertPassages(ctx context.Context, passages []domain.IndexedPassage) (int, error) {
	written := 0
	for _, p := range passages {
		_, err := r.db.Exec(ctx,
			`INSERT INTO passages
				(id, document_id, url, title, source, date_published, chunk_index, length, content, embedding)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET
				url = EXCLUDED.url,
				title = EXCLUDED.title,
				source = EXCLUDED.source,
				date_published = EXCLUDED.date_published,
				length = EXCLUDED.length,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				updated_at = now()`,
			p.ID,
			p.DocID,
			p.URL,
			p.Title,
			p.Source,
			p.DatePublished,
			p.ChunkIndex,
			p.Length,
			p.Text,
			pgvector.NewVector(p.Embedding),
		)
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// Query returns the n nearest passages by cosine distance, closest first,
// with their raw embeddings for re-ranking.
func (r *PassageRepository) Query(ctx context.Context, vec []float32, n int) ([]domain.Candidate, error) {
	if n <= 0 {
		n = 20
	}

	qvec := pgvector.NewVector(vec)
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, url, title, source, date_published, chunk_index, length, content, embedding,
		        embedding <=> $1 AS distance
		 FROM passages
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		qvec, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var embedding pgvector.Vector
		var distance float64
		if err := rows.Scan(&c.ID, &c.DocID, &c.URL, &c.Title, &c.Source, &c.DatePublished, &c.ChunkIndex, &c.Length, &c.Text, &embedding, &distance); err != nil {
			return nil, err
		}
		c.Embedding = embedding.Slice()
		c.Distance = float32(distance)
		results = append(results, c)
	}
	return results, rows.Err()
}

// DeleteByDocument removes all passages for a document.
func (r *PassageRepository) DeleteByDocument(ctx context.Context, documentID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM passages WHERE document_id = $1`, documentID)
	return err
}

func (r *PassageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM passages`).Scan(&n)
	return n, err
}
