package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
)

var (
	ErrEmptyJobDescription = errors.New("job description is empty")
	ErrLengthMismatch      = errors.New("candidate texts and filenames differ in length")
	ErrNoCandidates        = errors.New("no candidate produced extractable text")
)

const DefaultTopN = 10

// MatcherService ranks candidate resumes against a job description.
type MatcherService interface {
	// Match ranks already-normalized candidate texts; texts[i] belongs to filenames[i].
	Match(ctx context.Context, jobDescription string, texts, filenames []string) ([]models.MatchResult, error)
	// MatchDocuments extracts and preprocesses raw uploads before ranking them.
	// Uploads without extractable text are dropped silently.
	MatchDocuments(ctx context.Context, jobDescription string, uploads []models.Upload) ([]models.MatchResult, error)
	Release()
}

type MatcherOptions struct {
	TopN             int
	PoolSize         int
	CandidateTimeout time.Duration
	PreviewLength    int
}

type matcherService struct {
	extractor TextExtractor
	embedder  EmbeddingProvider
	pool      *ants.Pool
	opts      MatcherOptions
	logger    *zap.Logger
}

type candidate struct {
	filename string
	text     string
	preview  string
}

func NewMatcherService(extractor TextExtractor, embedder EmbeddingProvider, opts MatcherOptions, l *zap.Logger) (MatcherService, error) {
	if extractor == nil || embedder == nil {
		return nil, fmt.Errorf("extractor and embedder are required")
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}

	l = logger.OrNop(l)

	// Tasks recover their own panics in fanOut.
	pool, err := ants.NewPool(opts.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher pool: %w", err)
	}

	return &matcherService{
		extractor: extractor,
		embedder:  embedder,
		pool:      pool,
		opts:      opts,
		logger:    l,
	}, nil
}

func (m *matcherService) Release() {
	m.pool.Release()
}

// Match implements MatcherService.
func (m *matcherService) Match(ctx context.Context, jobDescription string, texts, filenames []string) ([]models.MatchResult, error) {
	if len(texts) != len(filenames) {
		return nil, fmt.Errorf("%w: %d texts, %d filenames", ErrLengthMismatch, len(texts), len(filenames))
	}

	candidates := make([]candidate, len(texts))
	for i := range texts {
		candidates[i] = candidate{filename: filenames[i], text: texts[i]}
	}

	return m.rank(ctx, jobDescription, candidates)
}

// MatchDocuments implements MatcherService.
func (m *matcherService) MatchDocuments(ctx context.Context, jobDescription string, uploads []models.Upload) ([]models.MatchResult, error) {
	slots := make([]candidate, len(uploads))

	m.fanOut(len(uploads), func(i int) {
		raw := m.extractor.ExtractText(uploads[i].Content, uploads[i].Filename)
		slots[i] = candidate{
			filename: uploads[i].Filename,
			text:     PreprocessText(raw),
			preview:  logger.TruncateForLog(raw, m.opts.PreviewLength),
		}
	}, func(i int, err error) {
		m.logger.Warn("failed to preprocess upload", zap.String("filename", uploads[i].Filename), zap.Error(err))
	})

	candidates := make([]candidate, 0, len(slots))
	for _, c := range slots {
		if c.text == "" {
			m.logger.Info("dropping document without extractable text", zap.String("filename", c.filename))
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	return m.rank(ctx, jobDescription, candidates)
}

func (m *matcherService) rank(ctx context.Context, jobDescription string, candidates []candidate) ([]models.MatchResult, error) {
	start := time.Now()

	query := CleanText(jobDescription)
	if query == "" {
		return nil, ErrEmptyJobDescription
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if errors.Is(err, ErrEmptyText) {
		return nil, ErrEmptyJobDescription
	}
	if err != nil {
		return nil, fmt.Errorf("failed to embed job description: %w", err)
	}

	results := make([]models.MatchResult, len(candidates))

	m.fanOut(len(candidates), func(i int) {
		results[i] = m.evaluate(ctx, queryVec, candidates[i])
	}, func(i int, err error) {
		results[i] = errorResult(candidates[i], err)
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > m.opts.TopN {
		results = results[:m.opts.TopN]
	}

	failed := 0
	for i := range results {
		results[i].Rank = i + 1
		if results[i].Failed() {
			failed++
		}
	}

	m.logger.Info("match completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(results)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return results, nil
}

// fanOut runs task(i) for every index on the pool and waits for all of them.
// A task that panics or cannot be scheduled is reported through onFailure.
func (m *matcherService) fanOut(n int, task func(i int), onFailure func(i int, err error)) {
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					onFailure(i, fmt.Errorf("internal error: %v", r))
				}
			}()
			task(i)
		})
		if err != nil {
			onFailure(i, fmt.Errorf("failed to schedule candidate: %w", err))
			wg.Done()
		}
	}

	wg.Wait()
}

func (m *matcherService) evaluate(ctx context.Context, queryVec []float32, c candidate) models.MatchResult {
	vec, err := m.embedCandidate(ctx, CleanText(c.text))
	if err != nil {
		m.logger.Warn("candidate embedding failed", zap.String("filename", c.filename), zap.Error(err))
		return errorResult(c, err)
	}

	similarity, err := Score(queryVec, vec)
	if err != nil {
		m.logger.Warn("candidate scoring failed", zap.String("filename", c.filename), zap.Error(err))
		return errorResult(c, err)
	}

	return models.MatchResult{
		Filename:   c.filename,
		Similarity: similarity,
		MatchLevel: MatchLevelFor(similarity),
		Preview:    c.preview,
	}
}

type embedOutcome struct {
	vec []float32
	err error
}

// embedCandidate bounds the embedding call by the candidate timeout even when
// the encoder ignores context cancellation.
func (m *matcherService) embedCandidate(ctx context.Context, text string) ([]float32, error) {
	if m.opts.CandidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.CandidateTimeout)
		defer cancel()
	}

	done := make(chan embedOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- embedOutcome{err: fmt.Errorf("internal error: %v", r)}
			}
		}()
		vec, err := m.embedder.Embed(ctx, text)
		done <- embedOutcome{vec: vec, err: err}
	}()

	select {
	case out := <-done:
		return out.vec, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding timed out after %s", m.opts.CandidateTimeout)
		}
		return nil, ctx.Err()
	}
}

func errorResult(c candidate, err error) models.MatchResult {
	return models.MatchResult{
		Filename:   c.filename,
		Similarity: 0,
		MatchLevel: models.MatchLevelError,
		Preview:    c.preview,
		Error:      err.Error(),
	}
}
