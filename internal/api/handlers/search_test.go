package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func TestSearchHandler_Search_Success(t *testing.T) {
	mockSvc := new(MockRetriever)
	handler := NewSearchHandler(mockSvc)

	result := &domain.RetrievalResult{
		Contexts: "[Title A](https://news.example.com/a)\nBody a\n---",
		Sources: []domain.RetrievedPassage{
			{Title: "Title A", URL: "https://news.example.com/a", Text: "Body a", Score: 0.9123, ChunkIndex: 0, Length: 6},
		},
		CandidatesFetched:  15,
		CandidatesReturned: 4,
		CandidatesSelected: 1,
	}
	mockSvc.On("Search", mock.Anything, "what happened").Return(result, nil)

	req := jsonRequest(http.MethodPost, "/search", SearchRequest{Question: "what happened"})
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(15), data["candidates_fetched"])
	assert.Equal(t, float64(1), data["candidates_selected"])

	sources := data["sources"].([]interface{})
	require.Len(t, sources, 1)
	source := sources[0].(map[string]interface{})
	assert.Equal(t, "Title A", source["title"])
	assert.Equal(t, 0.9123, source["score"])
	mockSvc.AssertExpectations(t)
}

func TestSearchHandler_Search_EmptyQuestion(t *testing.T) {
	handler := NewSearchHandler(new(MockRetriever))

	req := jsonRequest(http.MethodPost, "/search", SearchRequest{})
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_Search_ServiceUnavailable(t *testing.T) {
	mockSvc := new(MockRetriever)
	handler := NewSearchHandler(mockSvc)

	mockSvc.On("Search", mock.Anything, "q").Return(nil, domain.ErrEmbeddingService)

	req := jsonRequest(http.MethodPost, "/search", SearchRequest{Question: "q"})
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchHandler_Search_EmptyIndex(t *testing.T) {
	mockSvc := new(MockRetriever)
	handler := NewSearchHandler(mockSvc)

	// Zero candidates is a valid outcome, not an error.
	result := &domain.RetrievalResult{CandidatesFetched: 15}
	mockSvc.On("Search", mock.Anything, "q").Return(result, nil)

	req := jsonRequest(http.MethodPost, "/search", SearchRequest{Question: "q"})
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Empty(t, data["sources"])
	assert.Equal(t, float64(0), data["candidates_selected"])
}
