package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumenfeed/newsrag/internal/api"
	"github.com/lumenfeed/newsrag/internal/domain"
)

// Answerer produces grounded answers for a question.
type Answerer interface {
	Answer(ctx context.Context, question, model string, maxTokens int) (*domain.Answer, error)
	AnswerMulti(ctx context.Context, question string, models []string, maxTokens int) ([]*domain.Answer, error)
}

type AnswerHandler struct {
	svc Answerer
}

func NewAnswerHandler(svc Answerer) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

type AnswerRequest struct {
	Question  string   `json:"question"`
	Model     string   `json:"model,omitempty"`
	Models    []string `json:"models,omitempty"`
	MaxTokens int      `json:"max_tokens,omitempty"`
}

type AnswerItemResponse struct {
	Model    string                 `json:"model"`
	Text     string                 `json:"text"`
	UsedTopK int                    `json:"used_top_k"`
	Sources  []SearchSourceResponse `json:"sources"`
}

type AnswerResponse struct {
	Answers []AnswerItemResponse `json:"answers"`
}

// Answer handles POST /answer. With a models list the same retrieved
// context is answered by each model; otherwise the single model (or the
// default) is used.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	var answers []*domain.Answer
	if len(req.Models) > 0 {
		multi, err := h.svc.AnswerMulti(r.Context(), req.Question, req.Models, req.MaxTokens)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		answers = multi
	} else {
		single, err := h.svc.Answer(r.Context(), req.Question, req.Model, req.MaxTokens)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		answers = []*domain.Answer{single}
	}

	items := make([]AnswerItemResponse, len(answers))
	for i, a := range answers {
		sources := make([]SearchSourceResponse, len(a.Sources))
		for j, s := range a.Sources {
			sources[j] = SearchSourceResponse{
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
		items[i] = AnswerItemResponse{
			Model:    a.Model,
			Text:     a.Text,
			UsedTopK: a.UsedTopK,
			Sources:  sources,
		}
	}

	api.Success(w, http.StatusOK, AnswerResponse{Answers: items})
}
