package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumenfeed/newsrag/internal/api"
	"github.com/lumenfeed/newsrag/internal/domain"
)

// Retriever answers a question with the top passages.
type Retriever interface {
	Search(ctx context.Context, question string) (*domain.RetrievalResult, error)
}

type SearchHandler struct {
	svc Retriever
}

func NewSearchHandler(svc Retriever) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Question string `json:"question"`
}

type SearchSourceResponse struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Source        string  `json:"source,omitempty"`
	DatePublished string  `json:"date_published,omitempty"`
	ChunkIndex    int     `json:"chunk_index"`
	Length        int     `json:"length"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
}

type SearchResponse struct {
	Contexts           string                 `json:"contexts"`
	Sources            []SearchSourceResponse `json:"sources"`
	CandidatesFetched  int                    `json:"candidates_fetched"`
	CandidatesReturned int                    `json:"candidates_returned"`
	CandidatesSelected int                    `json:"candidates_selected"`
}

// Search handles POST /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.svc.Search(r.Context(), req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toSearchResponse(result))
}

func toSearchResponse(result *domain.RetrievalResult) SearchResponse {
	sources := make([]SearchSourceResponse, len(result.Sources))
	for i, s := range result.Sources {
		sources[i] = SearchSourceResponse{
			Title:         s.Title,
			URL:           s.URL,
			Source:        s.Source,
			DatePublished: s.DatePublished,
			ChunkIndex:    s.ChunkIndex,
			Length:        s.Length,
			Text:          s.Text,
			Score:         s.Score,
		}
	}
	return SearchResponse{
		Contexts:           result.Contexts,
		Sources:            sources,
		CandidatesFetched:  result.CandidatesFetched,
		CandidatesReturned: result.CandidatesReturned,
		CandidatesSelected: result.CandidatesSelected,
	}
}
