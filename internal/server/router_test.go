package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenfeed/newsrag/internal/api/handlers"
	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, articles []domain.ExtractedArticle) (*domain.IngestReport, error) {
	args := m.Called(ctx, articles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestReport), args.Error(1)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexRecent(ctx context.Context) (*domain.IndexReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexReport), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Search(ctx context.Context, question string) (*domain.RetrievalResult, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RetrievalResult), args.Error(1)
}

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, question, model string, maxTokens int) (*domain.Answer, error) {
	args := m.Called(ctx, question, model, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func (m *MockAnswerer) AnswerMulti(ctx context.Context, question string, models []string, maxTokens int) ([]*domain.Answer, error) {
	args := m.Called(ctx, question, models, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Answer), args.Error(1)
}

func newTestRouter(ingestor *MockIngestor, indexer *MockIndexer, retriever *MockRetriever, answerer *MockAnswerer) http.Handler {
	return NewRouter(RouterConfig{
		ArticleHandler: handlers.NewArticleHandler(ingestor),
		IndexHandler:   handlers.NewIndexHandler(indexer),
		SearchHandler:  handlers.NewSearchHandler(retriever),
		AnswerHandler:  handlers.NewAnswerHandler(answerer),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(new(MockIngestor), new(MockIndexer), new(MockRetriever), new(MockAnswerer))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_IngestRoute(t *testing.T) {
	ingestor := new(MockIngestor)
	ingestor.On("Ingest", mock.Anything, mock.Anything).
		Return(&domain.IngestReport{Received: 1, Inserted: 1}, nil)

	router := newTestRouter(ingestor, new(MockIndexer), new(MockRetriever), new(MockAnswerer))

	body, _ := json.Marshal(map[string]interface{}{
		"articles": []map[string]string{
			{"url": "https://news.example.com/a", "text": "Body"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/articles", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ingestor.AssertExpectations(t)
}

func TestRouter_IndexRoute(t *testing.T) {
	indexer := new(MockIndexer)
	indexer.On("IndexRecent", mock.Anything).
		Return(&domain.IndexReport{DocsProcessed: 3, ChunksTotal: 9}, nil)

	router := newTestRouter(new(MockIngestor), indexer, new(MockRetriever), new(MockAnswerer))

	req := httptest.NewRequest(http.MethodPost, "/index", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["docs_processed"])
	assert.Equal(t, float64(9), data["chunks_total"])
	indexer.AssertExpectations(t)
}

func TestRouter_SearchRoute(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Search", mock.Anything, "q").
		Return(&domain.RetrievalResult{CandidatesFetched: 15}, nil)

	router := newTestRouter(new(MockIngestor), new(MockIndexer), retriever, new(MockAnswerer))

	body, _ := json.Marshal(map[string]string{"question": "q"})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	retriever.AssertExpectations(t)
}

func TestRouter_AnswerRoute(t *testing.T) {
	answerer := new(MockAnswerer)
	answerer.On("Answer", mock.Anything, "q", "", 0).
		Return(&domain.Answer{Model: "solar-pro", Text: "answer"}, nil)

	router := newTestRouter(new(MockIngestor), new(MockIndexer), new(MockRetriever), answerer)

	body, _ := json.Marshal(map[string]string{"question": "q"})
	req := httptest.NewRequest(http.MethodPost, "/answer", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	answerer.AssertExpectations(t)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(new(MockIngestor), new(MockIndexer), new(MockRetriever), new(MockAnswerer))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	router := newTestRouter(new(MockIngestor), new(MockIndexer), new(MockRetriever), new(MockAnswerer))

	req := httptest.NewRequest(http.MethodPost, "/articles", bytes.NewReader(make([]byte, 16)))
	req.ContentLength = 6 * 1024 * 1024
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
