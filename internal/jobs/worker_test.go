package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of Runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunOnce(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIndexer is a mock implementation of Indexer
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

func TestWorker_StartStop(t *testing.T) {
	mockRunner := new(MockRunner)
	mockRunner.On("RunOnce", mock.Anything).Return(nil)

	worker := NewWorker(mockRunner, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it tick at least once, then stop.
	time.Sleep(250 * time.Millisecond)
	worker.Stop()
	wg.Wait()

	mockRunner.AssertCalled(t, "RunOnce", mock.Anything)
}

func TestWorker_ContextCancel(t *testing.T) {
	mockRunner := new(MockRunner)
	mockRunner.On("RunOnce", mock.Anything).Return(nil)

	worker := NewWorker(mockRunner, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestWorker_RunError_KeepsPolling(t *testing.T) {
	mockRunner := new(MockRunner)
	mockRunner.On("RunOnce", mock.Anything).Return(errors.New("transient failure"))

	worker := NewWorker(mockRunner, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)
	worker.Stop()
	wg.Wait()

	// Failures are logged and the loop continues.
	assert.GreaterOrEqual(t, len(mockRunner.Calls), 2)
}

func TestIndexRunner_RunOnce(t *testing.T) {
	mockIndexer := new(MockIndexer)
	mockIndexer.On("IndexRecent", mock.Anything).
		Return(&domain.IndexReport{DocsProcessed: 2, ChunksTotal: 6}, nil)

	runner := NewIndexRunner(mockIndexer)

	err := runner.RunOnce(context.Background())
	assert.NoError(t, err)
	mockIndexer.AssertExpectations(t)
}

func TestIndexRunner_RunOnce_Error(t *testing.T) {
	mockIndexer := new(MockIndexer)
	mockIndexer.On("IndexRecent", mock.Anything).Return(nil, errors.New("db down"))

	runner := NewIndexRunner(mockIndexer)

	err := runner.RunOnce(context.Background())
	assert.Error(t, err)
}
