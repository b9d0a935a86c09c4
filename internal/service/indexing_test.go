package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocumentSource struct {
	docs []*domain.Document
	err  error
}

func (s *stubDocumentSource) FetchRecent(ctx context.Context, limit int) ([]*domain.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.docs) {
		return s.docs[:limit], nil
	}
	return s.docs, nil
}

// stubEmbedder returns one deterministic vector per input text, derived
// from the text length, so order can be asserted.
type stubEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
	short  bool
}

func (e *stubEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if e.failOn != "" && strings.Contains(t, e.failOn) {
			return nil, errors.New("embedding backend error")
		}
		out = append(out, []float32{float32(len(t)), 0})
	}
	if e.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// memoryIndex is an upsert-by-id map, mirroring the vector store contract.
type memoryIndex struct {
	mu       sync.Mutex
	records  map[string]domain.IndexedPassage
	failNext bool
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{records: make(map[string]domain.IndexedPassage)}
}

func (m *memoryIndex) UpsertPassages(ctx context.Context, passages []domain.IndexedPassage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return 0, errors.New("index unavailable")
	}
	for _, p := range passages {
		m.records[p.ID] = p
	}
	return len(passages), nil
}

func (m *memoryIndex) Query(ctx context.Context, vec []float32, n int) ([]domain.Candidate, error) {
	return nil, nil
}

func testDoc(id int64, paragraphs int) *domain.Document {
	paras := make([]string, paragraphs)
	for i := range paras {
		paras[i] = strings.Repeat("s", 300)
	}
	return &domain.Document{
		ID:            id,
		URL:           "https://news.example.com/doc",
		Title:         "Doc",
		Source:        "Wire",
		DatePublished: "2025-07-01",
		RawText:       strings.Join(paras, "\n"),
	}
}

func smallIndexConfig() IndexConfig {
	return IndexConfig{
		Chunk:     ChunkConfig{MaxChars: 700, Overlap: 50, MinChars: 100},
		BatchSize: 2,
		LimitDocs: 10,
	}
}

func TestIndexRecent_ChunksEmbedsAndUpserts(t *testing.T) {
	source := &stubDocumentSource{docs: []*domain.Document{testDoc(1, 4)}}
	index := newMemoryIndex()
	embedder := &stubEmbedder{}
	svc := NewIndexService(source, index, embedder, smallIndexConfig())

	report, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocsProcessed)
	assert.Zero(t, report.DocsFailed)
	assert.Equal(t, report.ChunksTotal, report.EmbeddedTotal)
	assert.Equal(t, report.ChunksTotal, report.UpsertedTotal)
	assert.Len(t, index.records, report.ChunksTotal)

	// Stable id scheme and metadata pairing.
	first, ok := index.records["doc_1_chunk_0"]
	require.True(t, ok)
	assert.Equal(t, int64(1), first.DocID)
	assert.Equal(t, 0, first.ChunkIndex)
	assert.Equal(t, "https://news.example.com/doc", first.URL)
	assert.Equal(t, len([]rune(first.Text)), first.Length)
}

func TestIndexRecent_EmbeddingOrderPreservedAcrossBatches(t *testing.T) {
	// 4 paragraphs of 300 chars with max 700 produce several chunks and,
	// with batch size 2, more than one embedding batch.
	source := &stubDocumentSource{docs: []*domain.Document{testDoc(1, 6)}}
	index := newMemoryIndex()
	embedder := &stubEmbedder{}
	svc := NewIndexService(source, index, embedder, smallIndexConfig())

	_, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, embedder.calls, 2)

	for _, rec := range index.records {
		// The stub embeds text length into the vector; any ordering slip
		// between chunks and vectors would break this pairing.
		require.NotEmpty(t, rec.Embedding)
		assert.Equal(t, float32(len(rec.Text)), rec.Embedding[0])
	}
}

func TestIndexRecent_SkipsDocsWithNoSurvivingChunks(t *testing.T) {
	doc := testDoc(1, 1)
	doc.RawText = "tiny"
	source := &stubDocumentSource{docs: []*domain.Document{doc}}
	index := newMemoryIndex()
	svc := NewIndexService(source, index, &stubEmbedder{}, smallIndexConfig())

	report, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocsProcessed)
	assert.Zero(t, report.DocsFailed)
	assert.Zero(t, report.ChunksTotal)
	assert.Empty(t, index.records)
}

func TestIndexRecent_CountMismatchFailsDocumentOnly(t *testing.T) {
	bad := testDoc(1, 4)
	good := testDoc(2, 4)
	source := &stubDocumentSource{docs: []*domain.Document{bad, good}}
	index := newMemoryIndex()

	// Mark doc 1 so only its batches error out.
	bad.RawText = strings.Replace(bad.RawText, "sss", "XXX", 1)
	embedder := &stubEmbedder{failOn: "XXX"}
	svc := NewIndexService(source, index, embedder, smallIndexConfig())

	report, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.DocsProcessed)
	assert.Equal(t, 1, report.DocsFailed)
	for id := range index.records {
		assert.Contains(t, id, "doc_2_")
	}
}

func TestIndexRecent_ShortEmbeddingBatchReported(t *testing.T) {
	source := &stubDocumentSource{docs: []*domain.Document{testDoc(1, 4)}}
	index := newMemoryIndex()
	embedder := &stubEmbedder{short: true}
	svc := NewIndexService(source, index, embedder, smallIndexConfig())

	report, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocsFailed)
	assert.Zero(t, report.UpsertedTotal)
	assert.Empty(t, index.records)
}

func TestIndexRecent_UpsertFailureIsolated(t *testing.T) {
	source := &stubDocumentSource{docs: []*domain.Document{testDoc(1, 4), testDoc(2, 4)}}
	index := newMemoryIndex()
	index.failNext = true
	svc := NewIndexService(source, index, &stubEmbedder{}, smallIndexConfig())

	report, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocsFailed)
	assert.NotEmpty(t, index.records)
}

func TestIndexRecent_Idempotent(t *testing.T) {
	source := &stubDocumentSource{docs: []*domain.Document{testDoc(1, 4)}}
	index := newMemoryIndex()
	svc := NewIndexService(source, index, &stubEmbedder{}, smallIndexConfig())

	first, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)
	countAfterFirst := len(index.records)

	second, err := svc.IndexRecent(context.Background())
	require.NoError(t, err)

	// Re-indexing an unchanged set overwrites by stable id: no duplicate
	// vectors accumulate and the report totals match.
	assert.Equal(t, countAfterFirst, len(index.records))
	assert.Equal(t, first.ChunksTotal, second.ChunksTotal)
}

func TestIndexRecent_FetchErrorIsUnavailable(t *testing.T) {
	source := &stubDocumentSource{err: errors.New("db down")}
	svc := NewIndexService(source, newMemoryIndex(), &stubEmbedder{}, smallIndexConfig())

	_, err := svc.IndexRecent(context.Background())
	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeUnavailable, de.Code)
}

func TestEmbedChunks_ErrorIsUnavailable(t *testing.T) {
	embedder := &stubEmbedder{failOn: "zzz"}
	svc := NewIndexService(&stubDocumentSource{}, newMemoryIndex(), embedder, smallIndexConfig())

	_, err := svc.embedChunks(context.Background(), []string{"zzz " + strings.Repeat("s", 300)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}
