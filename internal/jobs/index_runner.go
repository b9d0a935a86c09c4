package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/lumenfeed/newsrag/internal/domain"
)

// Indexer runs one chunk-embed-upsert pass over recent documents.
type Indexer interface {
	IndexRecent(ctx context.Context) (*domain.IndexReport, error)
}

// IndexRunner keeps the vector index in step with the document store by
// periodically re-indexing the recent batch. Passage ids are stable, so
// repeated runs over unchanged documents are overwrites, not duplicates.
type IndexRunner struct {
	indexer Indexer
}

func NewIndexRunner(indexer Indexer) *IndexRunner {
	return &IndexRunner{indexer: indexer}
}

// RunOnce implements the Runner interface.
func (r *IndexRunner) RunOnce(ctx context.Context) error {
	report, err := r.indexer.IndexRecent(ctx)
	if err != nil {
		return fmt.Errorf("failed to index recent documents: %w", err)
	}

	if report.DocsProcessed > 0 {
		log.Printf("index run: docs=%d failed=%d chunks=%d embedded=%d upserted=%d",
			report.DocsProcessed, report.DocsFailed, report.ChunksTotal, report.EmbeddedTotal, report.UpsertedTotal)
	}
	return nil
}
