package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumenfeed/newsrag/internal/config"
	"github.com/lumenfeed/newsrag/internal/repository"
	"github.com/lumenfeed/newsrag/internal/service"
	"github.com/spf13/cobra"
)

func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: "Search the passage index",
		Long:  "Embed the question and return the most relevant indexed passages",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().IntP("top-k", "k", 0, "Passages to return (0 uses TOP_K)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	retrievalCfg := retrievalConfigFrom(cfg)
	if topK, _ := cmd.Flags().GetInt("top-k"); topK > 0 {
		retrievalCfg.TopK = topK
	}

	retrievalSvc := service.NewRetrievalService(
		repository.NewPassageRepository(pool),
		solar,
		retrievalCfg,
	)

	result, err := retrievalSvc.Search(ctx, question)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if outputFlag(cmd.Flags()) == "json" {
		sources := make([]map[string]interface{}, 0, len(result.Sources))
		for _, s := range result.Sources {
			sources = append(sources, map[string]interface{}{
				"title":          s.Title,
				"url":            s.URL,
				"source":         s.Source,
				"date_published": s.DatePublished,
				"chunk_index":    s.ChunkIndex,
				"score":          s.Score,
				"text":           s.Text,
			})
		}
		data := map[string]interface{}{
			"sources":             sources,
			"candidates_fetched":  result.CandidatesFetched,
			"candidates_selected": result.CandidatesSelected,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if len(result.Sources) == 0 {
		fmt.Println("No passages found")
		return nil
	}
	for i, s := range result.Sources {
		fmt.Printf("%d. [%.4f] %s (%s)\n", i+1, s.Score, s.Title, s.URL)
		fmt.Printf("   %s\n", s.Text)
	}

	return nil
}
