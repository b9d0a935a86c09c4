package handlers

import (
	"context"
	"net/http"

	"github.com/lumenfeed/newsrag/internal/api"
	"github.com/lumenfeed/newsrag/internal/domain"
)

// Indexer runs one chunk-embed-upsert pass over recent documents.
type Indexer interface {
	IndexRecent(ctx context.Context) (*domain.IndexReport, error)
}

type IndexHandler struct {
	svc Indexer
}

func NewIndexHandler(svc Indexer) *IndexHandler {
	return &IndexHandler{svc: svc}
}

type IndexResponse struct {
	DocsProcessed int `json:"docs_processed"`
	DocsFailed    int `json:"docs_failed"`
	ChunksTotal   int `json:"chunks_total"`
	EmbeddedTotal int `json:"embedded_total"`
	UpsertedTotal int `json:"upserted_total"`
}

// Run handles POST /index.
func (h *IndexHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.IndexRecent(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IndexResponse{
		DocsProcessed: report.DocsProcessed,
		DocsFailed:    report.DocsFailed,
		ChunksTotal:   report.ChunksTotal,
		EmbeddedTotal: report.EmbeddedTotal,
		UpsertedTotal: report.UpsertedTotal,
	})
}
