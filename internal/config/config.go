package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	UpstageAPIKey  string `envconfig:"UPSTAGE_API_KEY"`
	UpstageBaseURL string `envconfig:"UPSTAGE_BASE_URL" default:"https://api.upstage.ai/v1"`

	// Ingestion: normalized texts shorter than this are dropped as noise.
	MinDocChars int `envconfig:"MIN_DOC_CHARS" default:"400"`

	// Chunking and indexing.
	MaxChunkChars int `envconfig:"MAX_CHUNK_CHARS" default:"1200"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"120"`
	MinChunkChars int `envconfig:"MIN_CHUNK_CHARS" default:"200"`
	EmbedBatch    int `envconfig:"EMBED_BATCH" default:"32"`
	IndexLimit    int `envconfig:"INDEX_LIMIT" default:"200"`

	// Retrieval.
	TopK      int     `envconfig:"TOP_K" default:"5"`
	UseMMR    bool    `envconfig:"USE_MMR" default:"true"`
	MMRLambda float64 `envconfig:"MMR_LAMBDA" default:"0.3"`

	// Optional S3-compatible archive for raw extracted text.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"newsrag-articles"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("NEWSRAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasUpstage() bool {
	return c.UpstageAPIKey != ""
}
