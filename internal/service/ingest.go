package service

import (
	"context"
	"errors"
	"log"

	"github.com/lumenfeed/newsrag/internal/domain"
)

// DocumentStore is the durable deduplicating store consumed by ingestion.
type DocumentStore interface {
	// Upsert returns the id of the row matching the document's url or
	// content hash. inserted is false when such a row already existed; in
	// that case nothing is written, first write wins.
	Upsert(ctx context.Context, doc *domain.Document) (id int64, inserted bool, err error)
}

// ArticleArchive optionally keeps the pre-normalization extracted text so a
// document can be re-chunked later without re-crawling.
type ArticleArchive interface {
	PutArticle(ctx context.Context, contentHash string, text string) error
}

// IngestService normalizes extracted articles and writes them to the
// deduplicating store. Per-item failures are counted and skipped; they
// never abort the batch.
type IngestService struct {
	store       DocumentStore
	archive     ArticleArchive
	minDocChars int
}

func NewIngestService(store DocumentStore, minDocChars int) *IngestService {
	return NewIngestServiceWithArchive(store, nil, minDocChars)
}

func NewIngestServiceWithArchive(store DocumentStore, archive ArticleArchive, minDocChars int) *IngestService {
	return &IngestService{
		store:       store,
		archive:     archive,
		minDocChars: minDocChars,
	}
}

// Ingest processes one batch of extracted articles. The returned report
// counts received, inserted, duplicate, skipped (invalid url / empty /
// too-short), and failed (store errors) items.
func (s *IngestService) Ingest(ctx context.Context, articles []domain.ExtractedArticle) (*domain.IngestReport, error) {
	report := &domain.IngestReport{Received: len(articles)}

	for _, a := range articles {
		doc, err := s.prepare(a)
		if err != nil {
			var domainErr *domain.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeValidation {
				report.Skipped++
				continue
			}
			report.Failed++
			log.Printf("ingest: preparing %q failed: %v", a.URL, err)
			continue
		}

		id, inserted, err := s.store.Upsert(ctx, doc)
		if err != nil {
			report.Failed++
			log.Printf("ingest: upserting %q failed: %v", doc.URL, err)
			continue
		}
		if !inserted {
			report.Duplicates++
			continue
		}
		report.Inserted++

		if s.archive != nil {
			if err := s.archive.PutArticle(ctx, doc.ContentHash, a.RawText); err != nil {
				// The document row is the source of truth; a failed archive
				// write is logged, not fatal.
				log.Printf("ingest: archiving doc %d failed: %v", id, err)
			}
		}
	}

	return report, nil
}

func (s *IngestService) prepare(a domain.ExtractedArticle) (*domain.Document, error) {
	u, err := NormalizeURL(a.URL)
	if err != nil {
		return nil, err
	}

	text := NormalizeText(a.RawText)
	if text == "" {
		return nil, domain.ErrExtractionEmpty
	}
	if len([]rune(text)) < s.minDocChars {
		return nil, domain.ErrTextTooShort
	}

	return &domain.Document{
		URL:           u,
		Title:         a.Title,
		Source:        a.Source,
		DatePublished: a.DatePublished,
		ContentHash:   Fingerprint(text),
		RawText:       text,
		Lang:          a.Lang,
	}, nil
}
