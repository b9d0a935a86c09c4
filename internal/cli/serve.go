package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lumenfeed/newsrag/internal/api/handlers"
	"github.com/lumenfeed/newsrag/internal/config"
	"github.com/lumenfeed/newsrag/internal/jobs"
	"github.com/lumenfeed/newsrag/internal/repository"
	"github.com/lumenfeed/newsrag/internal/server"
	"github.com/lumenfeed/newsrag/internal/service"
	"github.com/lumenfeed/newsrag/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the newsrag API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Duration("index-interval", time.Minute, "How often the background worker indexes recent documents (0 disables it)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	documentRepo := repository.NewDocumentRepository(pool)
	passageRepo := repository.NewPassageRepository(pool)

	solar, err := getSolarClient(cfg)
	if err != nil {
		return err
	}

	var ingestSvc *service.IngestService
	if cfg.HasS3() {
		archive, err := getArchive(ctx, cfg)
		if err != nil {
			return err
		}
		log.Printf("archive bucket '%s' ready", cfg.S3Bucket)
		ingestSvc = service.NewIngestServiceWithArchive(documentRepo, archive, cfg.MinDocChars)
	} else {
		ingestSvc = service.NewIngestService(documentRepo, cfg.MinDocChars)
	}

	indexSvc := service.NewIndexService(documentRepo, passageRepo, solar, indexConfigFrom(cfg))
	retrievalSvc := service.NewRetrievalService(passageRepo, solar, retrievalConfigFrom(cfg))
	answerSvc := service.NewAnswerService(retrievalSvc, solar, service.NewPromptBuilder(service.DefaultPromptOptions()))

	var indexWorker *jobs.Worker
	indexInterval, _ := cmd.Flags().GetDuration("index-interval")
	if indexInterval > 0 {
		indexWorker = jobs.NewWorker(jobs.NewIndexRunner(indexSvc), indexInterval)
		go indexWorker.Start(ctx)
		log.Printf("index worker started (every %s)", indexInterval)
	}

	routerCfg := server.RouterConfig{
		ArticleHandler: handlers.NewArticleHandler(ingestSvc),
		IndexHandler:   handlers.NewIndexHandler(indexSvc),
		SearchHandler:  handlers.NewSearchHandler(retrievalSvc),
		AnswerHandler:  handlers.NewAnswerHandler(answerSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if indexWorker != nil {
		indexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
