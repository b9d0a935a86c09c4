package domain

import (
	"fmt"
	"time"
)

// Document represents a stored news article. Rows are created once by the
// deduplicating store and never mutated afterwards.
type Document struct {
	ID            int64
	URL           string
	Title         string
	Source        string
	DatePublished string
	CrawledAt     time.Time
	ContentHash   string
	RawText       string
	Lang          string
}

// ExtractedArticle is the input the ingestion layer receives from the
// upstream extractor: plain text with paragraph breaks encoded as newlines.
type ExtractedArticle struct {
	URL           string
	Title         string
	Source        string
	DatePublished string
	RawText       string
	Lang          string
}

// ValidateDocument validates a Document before insertion.
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.URL == "" {
		return fmt.Errorf("document URL is required")
	}

	if d.ContentHash == "" {
		return fmt.Errorf("document ContentHash is required")
	}

	if d.RawText == "" {
		return fmt.Errorf("document RawText is required")
	}

	return nil
}
