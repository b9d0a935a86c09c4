package domain

import "fmt"

// PassageID derives the stable vector-index id for a document/chunk pair.
// Re-indexing the same pair overwrites the prior record.
func PassageID(documentID int64, chunkIndex int) string {
	return fmt.Sprintf("doc_%d_chunk_%d", documentID, chunkIndex)
}

// IndexedPassage is the vector-store record for one chunk.
type IndexedPassage struct {
	ID            string
	DocID         int64
	URL           string
	Title         string
	Source        string
	DatePublished string
	ChunkIndex    int
	Length        int
	Text          string
	Embedding     []float32
}

// Candidate is one nearest-neighbor result returned by the vector index,
// including its raw embedding for MMR re-ranking.
type Candidate struct {
	ID            string
	Text          string
	DocID         int64
	URL           string
	Title         string
	Source        string
	DatePublished string
	ChunkIndex    int
	Length        int
	Distance      float32
	Embedding     []float32
}
