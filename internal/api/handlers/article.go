package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumenfeed/newsrag/internal/api"
	"github.com/lumenfeed/newsrag/internal/domain"
)

// Ingestor accepts batches of extracted articles.
type Ingestor interface {
	Ingest(ctx context.Context, articles []domain.ExtractedArticle) (*domain.IngestReport, error)
}

type ArticleHandler struct {
	svc Ingestor
}

func NewArticleHandler(svc Ingestor) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

type ArticleRequest struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	Source        string `json:"source,omitempty"`
	DatePublished string `json:"date_published,omitempty"`
	Text          string `json:"text"`
	Lang          string `json:"lang,omitempty"`
}

type IngestRequest struct {
	Articles []ArticleRequest `json:"articles"`
}

type IngestResponse struct {
	Received   int `json:"received"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Ingest handles POST /articles.
func (h *ArticleHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Articles) == 0 {
		api.Error(w, http.StatusBadRequest, "articles is required")
		return
	}

	articles := make([]domain.ExtractedArticle, len(req.Articles))
	for i, a := range req.Articles {
		articles[i] = domain.ExtractedArticle{
			URL:           a.URL,
			Title:         a.Title,
			Source:        a.Source,
			DatePublished: a.DatePublished,
			RawText:       a.Text,
			Lang:          a.Lang,
		}
	}

	report, err := h.svc.Ingest(r.Context(), articles)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IngestResponse{
		Received:   report.Received,
		Inserted:   report.Inserted,
		Duplicates: report.Duplicates,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
	})
}
