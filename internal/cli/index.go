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

func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk and embed recent documents into the vector index",
		Long:  "Run one indexing pass: fetch recent documents, chunk them, embed the chunks, and upsert them into the passage index",
		RunE:  runIndex,
	}

	cmd.Flags().Int("limit", 0, "Maximum documents to index (0 uses INDEX_LIMIT)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	indexCfg := indexConfigFrom(cfg)
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		indexCfg.LimitDocs = limit
	}

	indexSvc := service.NewIndexService(
		repository.NewDocumentRepository(pool),
		repository.NewPassageRepository(pool),
		solar,
		indexCfg,
	)

	report, err := indexSvc.IndexRecent(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if outputFlag(cmd.Flags()) == "json" {
		data := map[string]interface{}{
			"docs_processed": report.DocsProcessed,
			"docs_failed":    report.DocsFailed,
			"chunks_total":   report.ChunksTotal,
			"embedded_total": report.EmbeddedTotal,
			"upserted_total": report.UpsertedTotal,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Indexed %d documents (%d failed): %d chunks, %d embedded, %d upserted\n",
			report.DocsProcessed, report.DocsFailed, report.ChunksTotal, report.EmbeddedTotal, report.UpsertedTotal)
	}

	return nil
}
