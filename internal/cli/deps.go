// Package cli implements the newsragd commands: the API server plus
// batch ingestion, indexing, search, and answer helpers.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumenfeed/newsrag/internal/config"
	"github.com/lumenfeed/newsrag/internal/database"
	"github.com/lumenfeed/newsrag/internal/service"
	"github.com/lumenfeed/newsrag/internal/storage"
	"github.com/lumenfeed/newsrag/internal/upstage"
	"github.com/spf13/pflag"
)

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}

func getSolarClient(cfg *config.Config) (*upstage.Client, error) {
	if !cfg.HasUpstage() {
		return nil, fmt.Errorf("UPSTAGE_API_KEY is required")
	}
	return upstage.NewClientWithConfig(upstage.Config{
		APIKey:  cfg.UpstageAPIKey,
		BaseURL: cfg.UpstageBaseURL,
	}), nil
}

// getArchive builds the S3 article archive and makes sure its bucket
// exists. Call only when cfg.HasS3() is true.
func getArchive(ctx context.Context, cfg *config.Config) (*storage.Archive, error) {
	archive, err := storage.NewArchive(ctx, storage.ArchiveConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create article archive: %w", err)
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
	}
	return archive, nil
}

func indexConfigFrom(cfg *config.Config) service.IndexConfig {
	return service.IndexConfig{
		Chunk: service.ChunkConfig{
			MaxChars: cfg.MaxChunkChars,
			Overlap:  cfg.ChunkOverlap,
			MinChars: cfg.MinChunkChars,
		},
		BatchSize: cfg.EmbedBatch,
		LimitDocs: cfg.IndexLimit,
	}
}

func retrievalConfigFrom(cfg *config.Config) service.RetrievalConfig {
	return service.RetrievalConfig{
		TopK:      cfg.TopK,
		UseMMR:    cfg.UseMMR,
		MMRLambda: cfg.MMRLambda,
	}
}

func outputFlag(flags *pflag.FlagSet) string {
	format, _ := flags.GetString("output")
	return format
}
