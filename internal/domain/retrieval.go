package domain

// RetrievedPassage is one ranked entry in a retrieval result.
type RetrievedPassage struct {
	Text          string
	Title         string
	URL           string
	Source        string
	DatePublished string
	ChunkIndex    int
	Length        int
	Score         float64
}

// RetrievalResult is the packaged outcome of a single search, constructed
// fresh per query and never persisted.
type RetrievalResult struct {
	Contexts string
	Sources  []RetrievedPassage

	CandidatesFetched  int
	CandidatesReturned int
	CandidatesSelected int
}

// IndexReport accumulates totals across one indexing run.
type IndexReport struct {
	DocsProcessed int
	DocsFailed    int
	ChunksTotal   int
	EmbeddedTotal int
	UpsertedTotal int
}

// IngestReport accumulates per-item outcomes across one ingestion batch.
type IngestReport struct {
	Received   int
	Inserted   int
	Duplicates int
	Skipped    int
	Failed     int
}

// Answer is the outcome of one answer-generation call.
type Answer struct {
	Model    string
	Text     string
	Sources  []RetrievedPassage
	UsedTopK int
}
