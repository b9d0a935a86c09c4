package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumenfeed/newsrag/internal/api"
	"github.com/lumenfeed/newsrag/internal/api/handlers"
	"github.com/lumenfeed/newsrag/internal/api/middleware"
)

type RouterConfig struct {
	ArticleHandler *handlers.ArticleHandler
	IndexHandler   *handlers.IndexHandler
	SearchHandler  *handlers.SearchHandler
	AnswerHandler  *handlers.AnswerHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/articles", cfg.ArticleHandler.Ingest)
	r.Post("/index", cfg.IndexHandler.Run)
	r.Post("/search", cfg.SearchHandler.Search)
	r.Post("/answer", cfg.AnswerHandler.Answer)

	return r
}
