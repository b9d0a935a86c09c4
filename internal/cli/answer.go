package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumenfeed/newsrag/internal/config"
	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/lumenfeed/newsrag/internal/repository"
	"github.com/lumenfeed/newsrag/internal/service"
	"github.com/spf13/cobra"
)

func AnswerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer <question>",
		Short: "Answer a question from indexed news",
		Long:  "Retrieve relevant passages and generate a grounded answer with source citations",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnswer,
	}

	cmd.Flags().StringP("model", "m", "", "Chat model to use (default "+service.DefaultAnswerModel+")")
	cmd.Flags().StringSlice("models", nil, "Generate one answer per model over a single retrieval")
	cmd.Flags().Int("max-tokens", 0, "Maximum completion tokens (0 uses the service default)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAnswer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	solar, err := getSolarClient(cfg)
	if err != nil {
		return err
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	retrievalSvc := service.NewRetrievalService(
		repository.NewPassageRepository(pool),
		solar,
		retrievalConfigFrom(cfg),
	)
	answerSvc := service.NewAnswerService(retrievalSvc, solar, service.NewPromptBuilder(service.DefaultPromptOptions()))

	model, _ := cmd.Flags().GetString("model")
	models, _ := cmd.Flags().GetStringSlice("models")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")

	var answers []*domain.Answer
	if len(models) > 0 {
		answers, err = answerSvc.AnswerMulti(ctx, question, models, maxTokens)
	} else {
		var one *domain.Answer
		one, err = answerSvc.Answer(ctx, question, model, maxTokens)
		if one != nil {
			answers = []*domain.Answer{one}
		}
	}
	if err != nil {
		return fmt.Errorf("answer generation failed: %w", err)
	}

	if outputFlag(cmd.Flags()) == "json" {
		out := make([]map[string]interface{}, 0, len(answers))
		for _, a := range answers {
			sources := make([]map[string]interface{}, 0, len(a.Sources))
			for _, s := range a.Sources {
				sources = append(sources, map[string]interface{}{
					"title": s.Title,
					"url":   s.URL,
					"score": s.Score,
				})
			}
			out = append(out, map[string]interface{}{
				"model":      a.Model,
				"text":       a.Text,
				"used_top_k": a.UsedTopK,
				"sources":    sources,
			})
		}
		jsonBytes, _ := json.MarshalIndent(map[string]interface{}{"answers": out}, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	for _, a := range answers {
		if len(answers) > 1 {
			fmt.Printf("=== %s ===\n", a.Model)
		}
		fmt.Println(a.Text)
		if len(a.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, s := range a.Sources {
				fmt.Printf("- %s (%s)\n", s.Title, s.URL)
			}
		}
		fmt.Println()
	}

	return nil
}
