package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lumenfeed/newsrag/internal/config"
	"github.com/lumenfeed/newsrag/internal/domain"
	"github.com/lumenfeed/newsrag/internal/repository"
	"github.com/lumenfeed/newsrag/internal/service"
	"github.com/spf13/cobra"
)

// articleFile is the on-disk shape of an ingest batch: either a bare JSON
// array of articles or an object with an "articles" key, matching the
// POST /articles request body.
type articleFile struct {
	Articles []articleEntry `json:"articles"`
}

type articleEntry struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	Source        string `json:"source,omitempty"`
	DatePublished string `json:"date_published,omitempty"`
	Text          string `json:"text"`
	Lang          string `json:"lang,omitempty"`
}

func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.json>",
		Short: "Ingest extracted articles from a JSON file",
		Long:  "Normalize, deduplicate, and store a batch of extracted articles. Pass '-' to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	articles, err := readArticleFile(args[0])
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return fmt.Errorf("no articles in %s", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	documentRepo := repository.NewDocumentRepository(pool)

	var ingestSvc *service.IngestService
	if cfg.HasS3() {
		archive, err := getArchive(ctx, cfg)
		if err != nil {
			return err
		}
		ingestSvc = service.NewIngestServiceWithArchive(documentRepo, archive, cfg.MinDocChars)
	} else {
		ingestSvc = service.NewIngestService(documentRepo, cfg.MinDocChars)
	}

	report, err := ingestSvc.Ingest(ctx, articles)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if outputFlag(cmd.Flags()) == "json" {
		data := map[string]interface{}{
			"received":   report.Received,
			"inserted":   report.Inserted,
			"duplicates": report.Duplicates,
			"skipped":    report.Skipped,
			"failed":     report.Failed,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Ingested %d articles: %d inserted, %d duplicates, %d skipped, %d failed\n",
			report.Received, report.Inserted, report.Duplicates, report.Skipped, report.Failed)
	}

	return nil
}

func readArticleFile(path string) ([]domain.ExtractedArticle, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}

	var entries []articleEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		var file articleFile
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("failed to parse articles: %w", err)
		}
		entries = file.Articles
	}

	articles := make([]domain.ExtractedArticle, 0, len(entries))
	for _, e := range entries {
		articles = append(articles, domain.ExtractedArticle{
			URL:           e.URL,
			Title:         e.Title,
			Source:        e.Source,
			DatePublished: e.DatePublished,
			RawText:       e.Text,
			Lang:          e.Lang,
		})
	}
	return articles, nil
}
