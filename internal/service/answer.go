package service

import (
	"context"
	"errors"
	"log"

	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/lumenfeed/newsrag/internal/telemetry"
)

// Generator produces a completion from a system and user prompt. Failures
// surface as typed errors, never as answer text.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt, model string, temperature float32, maxTokens int) (string, error)
}

// Searcher is the retrieval dependency of the answer orchestrator.
type Searcher interface {
	Search(ctx context.Context, question string) (*domain.RetrievalResult, error)
}

const (
	DefaultAnswerModel  = "solar-pro"
	fallbackAnswerModel = "solar-mini"
	defaultAnswerTokens = 300
	defaultAnswerTemp   = 0.2
	answerPlaceholder   = "The answer could not be generated right now. Please try again later."
)

// AnswerService runs search, prompt assembly, and generation for one
// question. It is the outermost orchestration layer: generation failures
// degrade to a placeholder answer here, and only here.
type AnswerService struct {
	searcher Searcher
	gen      Generator
	prompts  *PromptBuilder
}

func NewAnswerService(searcher Searcher, gen Generator, prompts *PromptBuilder) *AnswerService {
	return &AnswerService{
		searcher: searcher,
		gen:      gen,
		prompts:  prompts,
	}
}

// Answer generates a grounded answer with a single model.
func (s *AnswerService) Answer(ctx context.Context, question, model string, maxTokens int) (*domain.Answer, error) {
	if model == "" {
		model = DefaultAnswerModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnswerTokens
	}

	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		Model:     model,
		Operation: "answer",
	})
	defer span.End()

	ret, err := s.searcher.Search(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	system, user := s.prompts.BuildMessages(question, ret.Sources, "")
	text, err := s.gen.Generate(ctx, system, user, model, defaultAnswerTemp, maxTokens)
	if err != nil {
		genErr := errors.Join(domain.ErrGenerationService, err)
		span.SetError(genErr)
		log.Printf("answer: generation with %s failed: %v", model, genErr)
		text = answerPlaceholder
	}

	return &domain.Answer{
		Model:    model,
		Text:     text,
		Sources:  ret.Sources,
		UsedTopK: len(ret.Sources),
	}, nil
}

// AnswerMulti calls several models with the same retrieved context so their
// answers can be compared side by side. Retrieval runs once.
func (s *AnswerService) AnswerMulti(ctx context.Context, question string, models []string, maxTokens int) ([]*domain.Answer, error) {
	if len(models) == 0 {
		models = []string{DefaultAnswerModel, fallbackAnswerModel}
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnswerTokens
	}

	ctx, span := telemetry.StartSpan(ctx, "AnswerService.AnswerMulti", telemetry.SpanAttributes{
		Operation: "answer",
	})
	defer span.End()

	ret, err := s.searcher.Search(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	system, user := s.prompts.BuildMessages(question, ret.Sources, "")

	answers := make([]*domain.Answer, 0, len(models))
	for _, model := range models {
		text, err := s.gen.Generate(ctx, system, user, model, defaultAnswerTemp, maxTokens)
		if err != nil {
			genErr := errors.Join(domain.ErrGenerationService, err)
			span.SetError(genErr)
			log.Printf("answer: generation with %s failed: %v", model, genErr)
			text = answerPlaceholder
		}
		answers = append(answers, &domain.Answer{
			Model:    model,
			Text:     text,
			Sources:  ret.Sources,
			UsedTopK: len(ret.Sources),
		})
	}
	return answers, nil
}
