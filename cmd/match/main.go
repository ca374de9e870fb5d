package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

const app = "resume-match"

type options struct {
	job      string
	jobFile  string
	embedder string
	top      int
	jsonOut  bool
	debug    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   app + " [flags] RESUME...",
		Short: "Rank resumes against a job description by semantic similarity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.job, "job", "", "job description text")
	cmd.Flags().StringVarP(&opts.jobFile, "job-file", "f", "", "file holding the job description (pdf, docx or txt)")
	cmd.Flags().StringVarP(&opts.embedder, "embedder", "e", "", "embedding provider: gemini or local (default from EMBEDDING_PROVIDER)")
	cmd.Flags().IntVarP(&opts.top, "top", "n", 0, "number of results to keep (default from MATCH_TOP_N)")
	cmd.Flags().BoolVarP(&opts.jsonOut, "json", "j", false, "print results as JSON")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	cmd.MarkFlagsMutuallyExclusive("job", "job-file")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, paths []string) error {
	cfg := config.Load()
	if opts.embedder != "" {
		cfg.Embedding.Provider = opts.embedder
	}
	if opts.top > 0 {
		cfg.Matcher.TopN = opts.top
	}

	lg, err := logger.New(false, opts.debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync()

	encoder, err := services.NewEncoder(cfg.Embedding.Provider, cfg.Gemini.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimension, lg)
	if err != nil {
		return fmt.Errorf("init encoder: %w", err)
	}
	embedder := services.NewEmbeddingProvider(encoder, services.EmbeddingOptions{
		MaxWords:     cfg.Embedding.MaxWords,
		Dimension:    cfg.Embedding.Dimension,
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
	}, lg)

	extractor := services.NewTextExtractor(lg)
	matcher, err := services.NewMatcherService(extractor, embedder, services.MatcherOptions{
		TopN:             cfg.Matcher.TopN,
		PoolSize:         cfg.Matcher.PoolSize,
		CandidateTimeout: cfg.Matcher.CandidateTimeout,
		PreviewLength:    cfg.Matcher.PreviewLength,
	}, lg)
	if err != nil {
		return fmt.Errorf("init matcher: %w", err)
	}
	defer matcher.Release()

	jobDescription, err := loadJobDescription(extractor, opts)
	if err != nil {
		return err
	}

	uploads := make([]models.Upload, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			lg.Warn("skipping unreadable resume", zap.String("path", p), zap.Error(err))
			continue
		}
		uploads = append(uploads, models.Upload{Filename: filepath.Base(p), Content: content})
	}

	results, err := matcher.MatchDocuments(ctx, jobDescription, uploads)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.MatchResponse{Results: results})
	}

	return printTable(out, results)
}

func loadJobDescription(extractor services.TextExtractor, opts *options) (string, error) {
	if opts.jobFile == "" {
		if opts.job == "" {
			return "", errors.New("either --job or --job-file is required")
		}
		return opts.job, nil
	}

	content, err := os.ReadFile(opts.jobFile)
	if err != nil {
		return "", fmt.Errorf("read job description: %w", err)
	}

	text := extractor.ExtractText(content, filepath.Base(opts.jobFile))
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", opts.jobFile)
	}
	return text, nil
}

func printTable(out io.Writer, results []models.MatchResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tFILE\tSIMILARITY\tLEVEL")
	for _, r := range results {
		level := string(r.MatchLevel)
		if r.Failed() {
			level = fmt.Sprintf("%s (%s)", level, r.Error)
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\n", r.Rank, r.Filename, r.Similarity, level)
	}
	return w.Flush()
}
