package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/lumenfeed/newsrag/internal/domain"
)

// embedConcurrency bounds the fan-out over embedding batches. Batches are
// independent, so a small pool keeps latency down without flooding the
// embedding service.
const embedConcurrency = 4

// RecentDocumentSource supplies the indexing batch, most recent first.
type RecentDocumentSource interface {
	FetchRecent(ctx context.Context, limit int) ([]*domain.Document, error)
}

// PassageEmbedder produces passage-variant embeddings, one vector per input
// text in matching order. An empty input returns an empty output without a
// network call.
type PassageEmbedder interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the approximate nearest-neighbor index. Upsert overwrites
// by stable passage id; Query returns the top-n candidates with metadata,
// distances, and raw embeddings.
type VectorIndex interface {
	UpsertPassages(ctx context.Context, passages []domain.IndexedPassage) (int, error)
	Query(ctx context.Context, vec []float32, n int) ([]domain.Candidate, error)
}

// IndexConfig tunes one indexing run.
type IndexConfig struct {
	Chunk     ChunkConfig
	BatchSize int
	LimitDocs int
}

func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		Chunk:     DefaultChunkConfig(),
		BatchSize: 32,
		LimitDocs: 200,
	}
}

// IndexService drives chunking, batched embedding, and vector-index upsert
// for the most recently stored documents.
type IndexService struct {
	source   RecentDocumentSource
	index    VectorIndex
	embedder PassageEmbedder
	cfg      IndexConfig
}

func NewIndexService(source RecentDocumentSource, index VectorIndex, embedder PassageEmbedder, cfg IndexConfig) *IndexService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultIndexConfig().BatchSize
	}
	if cfg.LimitDocs <= 0 {
		cfg.LimitDocs = DefaultIndexConfig().LimitDocs
	}
	return &IndexService{
		source:   source,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
	}
}

// IndexRecent chunks, embeds, and upserts the recent document batch. A
// document whose chunks all fall under the minimum length is skipped; a
// document whose embedding or upsert fails is counted and logged, and the
// run continues with the next document.
func (s *IndexService) IndexRecent(ctx context.Context) (*domain.IndexReport, error) {
	docs, err := s.source.FetchRecent(ctx, s.cfg.LimitDocs)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "document store unavailable", err)
	}

	report := &domain.IndexReport{}
	for _, doc := range docs {
		report.DocsProcessed++
		if err := s.indexDocument(ctx, doc, report); err != nil {
			report.DocsFailed++
			log.Printf("index: doc %d (%s) failed: %v", doc.ID, doc.URL, err)
		}
	}
	return report, nil
}

func (s *IndexService) indexDocument(ctx context.Context, doc *domain.Document, report *domain.IndexReport) error {
	chunks := FilterChunks(ChunkText(doc.RawText, s.cfg.Chunk), s.cfg.Chunk.MinChars)
	if len(chunks) == 0 {
		return nil
	}

	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return domain.ErrEmbeddingCountMismatch
	}

	passages := make([]domain.IndexedPassage, 0, len(chunks))
	for i, text := range chunks {
		passages = append(passages, domain.IndexedPassage{
			ID:            domain.PassageID(doc.ID, i),
			DocID:         doc.ID,
			URL:           doc.URL,
			Title:         doc.Title,
			Source:        doc.Source,
			DatePublished: doc.DatePublished,
			ChunkIndex:    i,
			Length:        len([]rune(text)),
			Text:          text,
			Embedding:     embeddings[i],
		})
	}

	upserted, err := s.index.UpsertPassages(ctx, passages)
	if err != nil {
		return errors.Join(domain.ErrVectorIndexUnavailable, err)
	}

	report.ChunksTotal += len(chunks)
	report.EmbeddedTotal += len(embeddings)
	report.UpsertedTotal += upserted
	return nil
}

// embedChunks embeds the chunks in batches of cfg.BatchSize. Batches are
// independent, so they fan out over a bounded worker pool; results land in
// a preallocated slice so chunk order is preserved index for index.
func (s *IndexService) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	type batch struct {
		start int
		texts []string
	}

	var batches []batch
	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, batch{start: start, texts: chunks[start:end]})
	}

	embeddings := make([][]float32, len(chunks))
	errs := make([]error, len(batches))

	var wg sync.WaitGroup
	sem := make(chan struct{}, embedConcurrency)
	for i, b := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, b batch) {
			defer wg.Done()
			defer func() { <-sem }()

			vecs, err := s.embedder.EmbedPassages(ctx, b.texts)
			if err != nil {
				errs[i] = errors.Join(domain.ErrEmbeddingService, err)
				return
			}
			if len(vecs) != len(b.texts) {
				errs[i] = domain.ErrEmbeddingCountMismatch
				return
			}
			copy(embeddings[b.start:], vecs)
		}(i, b)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return embeddings, nil
}
