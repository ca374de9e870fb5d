package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

func main() {
	dir := flag.String("dir", "./resumes", "directory holding resumes to index")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	lg, err := logger.New(cfg.Server.LogJSON, cfg.Server.LogDebug)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	lg.Info("🚀 Starting resume ingestion...", zap.String("dir", *dir))

	// Initialize services
	db, err := config.InitDatabase(cfg)
	if err != nil {
		lg.Fatal("❌ Failed to initialize database", zap.Error(err))
	}
	docRepo := repositories.NewDocumentRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		lg.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}

	encoder, err := services.NewEncoder(cfg.Embedding.Provider, cfg.Gemini.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimension, lg)
	if err != nil {
		lg.Fatal("❌ Failed to initialize encoder", zap.Error(err))
	}
	embedder := services.NewEmbeddingProvider(encoder, services.EmbeddingOptions{
		MaxWords:     cfg.Embedding.MaxWords,
		Dimension:    cfg.Embedding.Dimension,
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
	}, lg)

	qdrantService, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		embedder.Dimension(),
		lg,
	)
	if err != nil {
		lg.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
	}

	ctx := context.Background()

	if err := qdrantService.InitCollection(ctx); err != nil {
		lg.Fatal("❌ Failed to initialize collection", zap.Error(err))
	}

	indexService := services.NewIndexService(
		docRepo,
		storageService,
		services.NewTextExtractor(lg),
		embedder,
		qdrantService,
		services.MatcherOptions{TopN: cfg.Matcher.TopN, PreviewLength: cfg.Matcher.PreviewLength},
		lg,
	)

	successCount := 0
	failCount := 0

	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if models.DetectFormat(name) == models.FormatUnknown {
			lg.Debug("skipping unsupported file", zap.String("path", path))
			return nil
		}

		lg.Info("📄 Processing", zap.String("path", path))

		content, err := os.ReadFile(path)
		if err != nil {
			lg.Warn("❌ Failed to read file", zap.String("path", path), zap.Error(err))
			failCount++
			return nil
		}

		filename, filePath, err := storageService.SaveFile(name, content)
		if err != nil {
			lg.Warn("❌ Failed to store file", zap.String("path", path), zap.Error(err))
			failCount++
			return nil
		}

		doc := &models.Document{
			ID:               uuid.New(),
			Filename:         filename,
			OriginalFileName: name,
			Format:           models.DetectFormat(name),
			FilePath:         filePath,
			Status:           models.StatusQueued,
		}
		if err := docRepo.Create(doc); err != nil {
			lg.Warn("❌ Failed to create document record", zap.String("path", path), zap.Error(err))
			failCount++
			return nil
		}

		if err := indexService.IndexDocument(ctx, doc.ID); err != nil {
			lg.Warn("❌ Failed to index document", zap.String("path", path), zap.Error(err))
			failCount++
			return nil
		}

		lg.Info("✅ Indexed", zap.String("path", path), zap.String("document_id", doc.ID.String()))
		successCount++
		return nil
	})
	if err != nil {
		lg.Fatal("❌ Failed to walk resume directory", zap.Error(err))
	}

	// Summary
	lg.Info(strings.Repeat("=", 60))
	lg.Info("📊 Ingestion Summary",
		zap.Int("successful", successCount),
		zap.Int("failed", failCount),
	)

	if failCount > 0 {
		lg.Warn("⚠️  Some resumes failed to ingest. Please check the logs above.")
		os.Exit(1)
	}

	lg.Info("✅ All resumes ingested successfully!")
}
