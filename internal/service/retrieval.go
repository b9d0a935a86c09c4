package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/lumenfeed/newsrag/internal/telemetry"
)

const (
	// candidateMultiplier over-provisions the fetch so MMR has a pool to
	// diversify from.
	candidateMultiplier = 3

	// contextExcerptChars caps each passage excerpt in the context block.
	contextExcerptChars = 800
)

// QueryEmbedder produces query-variant embeddings. The query variant must
// stay distinct from passage embedding at the API boundary.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// RetrievalConfig tunes retrieval.
type RetrievalConfig struct {
	TopK      int
	UseMMR    bool
	MMRLambda float64
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:      5,
		UseMMR:    true,
		MMRLambda: 0.3,
	}
}

// RetrievalService orchestrates query embedding, candidate fetch, MMR
// selection, and result packaging.
type RetrievalService struct {
	index    VectorIndex
	embedder QueryEmbedder
	cfg      RetrievalConfig
}

func NewRetrievalService(index VectorIndex, embedder QueryEmbedder, cfg RetrievalConfig) *RetrievalService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrievalConfig().TopK
	}
	return &RetrievalService{
		index:    index,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Search embeds the question, fetches an over-provisioned candidate pool,
// selects up to TopK passages (MMR when enabled and the pool is larger than
// TopK, otherwise the index's native order), and packages them sorted by
// descending similarity. Zero candidates is a valid outcome, not an error.
func (s *RetrievalService) Search(ctx context.Context, question string) (*domain.RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	qvec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		err = errors.Join(domain.ErrEmbeddingService, err)
		span.SetError(err)
		return nil, err
	}

	nInitial := s.cfg.TopK * candidateMultiplier
	if nInitial < s.cfg.TopK {
		nInitial = s.cfg.TopK
	}

	candidates, err := s.index.Query(ctx, qvec, nInitial)
	if err != nil {
		err = errors.Join(domain.ErrVectorIndexUnavailable, err)
		span.SetError(err)
		return nil, err
	}

	result := &domain.RetrievalResult{
		CandidatesFetched:  nInitial,
		CandidatesReturned: len(candidates),
	}
	if len(candidates) == 0 {
		return result, nil
	}

	var selected []int
	if s.cfg.UseMMR && len(candidates) > s.cfg.TopK {
		vecs := make([][]float32, len(candidates))
		for i, c := range candidates {
			vecs[i] = c.Embedding
		}
		selected, err = SelectMMR(qvec, vecs, s.cfg.TopK, s.cfg.MMRLambda)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
	} else {
		n := s.cfg.TopK
		if n > len(candidates) {
			n = len(candidates)
		}
		for i := 0; i < n; i++ {
			selected = append(selected, i)
		}
	}

	picked := make([]domain.RetrievedPassage, 0, len(selected))
	for _, i := range selected {
		c := candidates[i]
		// The index orders by cosine distance, so 1-distance is a
		// similarity in the usual sense.
		picked = append(picked, domain.RetrievedPassage{
			Text:          c.Text,
			Title:         c.Title,
			URL:           c.URL,
			Source:        c.Source,
			DatePublished: c.DatePublished,
			ChunkIndex:    c.ChunkIndex,
			Length:        c.Length,
			Score:         roundScore(1 - float64(c.Distance)),
		})
	}

	// Selection order is not presentation order; present by relevance.
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Score > picked[j].Score
	})

	result.Sources = picked
	result.CandidatesSelected = len(picked)
	result.Contexts = buildContexts(picked)
	return result, nil
}

// roundScore rounds to four decimals. Ties at the fourth decimal round
// half away from zero.
func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}

func buildContexts(passages []domain.RetrievedPassage) string {
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		excerpt := p.Text
		if runes := []rune(excerpt); len(runes) > contextExcerptChars {
			excerpt = string(runes[:contextExcerptChars]) + "..."
		}
		blocks = append(blocks, fmt.Sprintf("[%s](%s)\n%s\n---", p.Title, p.URL, excerpt))
	}
	return strings.Join(blocks, "\n")
}
