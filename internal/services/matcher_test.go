package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-matcher/internal/models"
)

// stubEmbedder is an EmbeddingProvider driven by a function.
type stubEmbedder struct {
	embed func(ctx context.Context, text string) ([]float32, error)
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, text)
}

func (s *stubEmbedder) Dimension() int {
	return 2
}

func vectorTable(vectors map[string][]float32) *stubEmbedder {
	return &stubEmbedder{embed: func(_ context.Context, text string) ([]float32, error) {
		vec, ok := vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		return vec, nil
	}}
}

func newTestMatcher(t *testing.T, embedder EmbeddingProvider, opts MatcherOptions) MatcherService {
	t.Helper()

	if opts.PoolSize == 0 {
		opts.PoolSize = 4
	}
	m, err := NewMatcherService(NewTextExtractor(nil), embedder, opts, nil)
	require.NoError(t, err)
	t.Cleanup(m.Release)

	return m
}

func filenamesOf(results []models.MatchResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Filename
	}
	return names
}

func TestMatchPreservesInputOrderOnTies(t *testing.T) {
	embedder := vectorTable(map[string][]float32{
		"job":   {1, 0},
		"alpha": {1, 1},
		"beta":  {1, 0},
		"gamma": {1, 1},
		"delta": {1, 1},
	})
	m := newTestMatcher(t, embedder, MatcherOptions{})

	results, err := m.Match(context.Background(), "job",
		[]string{"alpha", "beta", "gamma", "delta"},
		[]string{"a.txt", "b.txt", "c.txt", "d.txt"},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"b.txt", "a.txt", "c.txt", "d.txt"}, filenamesOf(results))
	assert.Equal(t, 100.0, results[0].Similarity)
	assert.Equal(t, models.MatchLevelHigh, results[0].MatchLevel)
	for _, r := range results[1:] {
		assert.Equal(t, 70.71, r.Similarity)
		assert.Equal(t, models.MatchLevelMedium, r.MatchLevel)
	}
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestMatchCapsAtTopN(t *testing.T) {
	vectors := map[string][]float32{"job": {1, 0}}
	var texts, filenames []string
	for k := 14; k >= 0; k-- {
		text := fmt.Sprintf("cand-%02d", k)
		vectors[text] = []float32{1, float32(k) * 0.2}
		texts = append(texts, text)
		filenames = append(filenames, text+".txt")
	}
	m := newTestMatcher(t, vectorTable(vectors), MatcherOptions{})

	results, err := m.Match(context.Background(), "job", texts, filenames)
	require.NoError(t, err)

	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("cand-%02d.txt", i), r.Filename)
		if i > 0 {
			assert.Greater(t, results[i-1].Similarity, r.Similarity)
		}
	}
}

func TestMatchIsolatesCandidateFailures(t *testing.T) {
	embedder := &stubEmbedder{embed: func(_ context.Context, text string) ([]float32, error) {
		switch text {
		case "job", "good":
			return []float32{1, 0}, nil
		case "fair":
			return []float32{1, 1}, nil
		case "broken":
			return nil, errors.New("encoder exploded")
		case "panics":
			panic("boom")
		case "degenerate":
			return []float32{0, 0}, nil
		}
		return nil, fmt.Errorf("unexpected text %q", text)
	}}
	m := newTestMatcher(t, embedder, MatcherOptions{})

	results, err := m.Match(context.Background(), "job",
		[]string{"broken", "good", "panics", "fair", "degenerate"},
		[]string{"broken.pdf", "good.pdf", "panics.pdf", "fair.pdf", "degenerate.pdf"},
	)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, []string{"good.pdf", "fair.pdf", "broken.pdf", "panics.pdf", "degenerate.pdf"}, filenamesOf(results))
	assert.Equal(t, models.MatchLevelHigh, results[0].MatchLevel)
	assert.Equal(t, models.MatchLevelMedium, results[1].MatchLevel)

	for _, r := range results[2:] {
		assert.True(t, r.Failed(), r.Filename)
		assert.Equal(t, 0.0, r.Similarity)
		assert.NotEmpty(t, r.Error)
	}
	assert.Contains(t, results[2].Error, "encoder exploded")
	assert.Contains(t, results[3].Error, "boom")
	assert.Contains(t, results[4].Error, ErrZeroVector.Error())
}

func TestMatchTimesOutSlowCandidates(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	embedder := &stubEmbedder{embed: func(_ context.Context, text string) ([]float32, error) {
		if text == "slow" {
			<-release
		}
		return []float32{1, 0}, nil
	}}
	m := newTestMatcher(t, embedder, MatcherOptions{CandidateTimeout: 50 * time.Millisecond})

	results, err := m.Match(context.Background(), "job", []string{"slow", "fast"}, []string{"slow.txt", "fast.txt"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "fast.txt", results[0].Filename)
	assert.Equal(t, models.MatchLevelHigh, results[0].MatchLevel)
	assert.Equal(t, "slow.txt", results[1].Filename)
	assert.True(t, results[1].Failed())
	assert.Contains(t, results[1].Error, "timed out")
}

func TestMatchValidatesInput(t *testing.T) {
	m := newTestMatcher(t, vectorTable(map[string][]float32{"job": {1, 0}}), MatcherOptions{})

	_, err := m.Match(context.Background(), "job", []string{"a"}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = m.Match(context.Background(), " #!* ", []string{"a"}, []string{"a.txt"})
	assert.ErrorIs(t, err, ErrEmptyJobDescription)

	_, err = m.Match(context.Background(), "unknown job", []string{"a"}, []string{"a.txt"})
	assert.ErrorContains(t, err, "failed to embed job description")
}

func TestMatchDocumentsDropsUnreadableUploads(t *testing.T) {
	provider := NewEmbeddingProvider(NewHashEncoder(768), EmbeddingOptions{MaxWords: 512, Dimension: 768}, nil)
	m := newTestMatcher(t, provider, MatcherOptions{PreviewLength: 12})

	results, err := m.MatchDocuments(context.Background(), "Go backend engineer", []models.Upload{
		{Filename: "corrupt.pdf", Content: []byte("%PDF-1.7 garbage")},
		{Filename: "photo.jpg", Content: []byte{0xff, 0xd8, 0xff}},
		{Filename: "empty.txt", Content: []byte("Summary\n\n")},
		{Filename: "jane.TXT", Content: []byte("Summary\nGo backend engineer\nSkills\nGo, Postgres")},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "jane.TXT", results[0].Filename)
	assert.Equal(t, "Summary\nGo b...", results[0].Preview)
	assert.False(t, results[0].Failed())
	assert.Equal(t, 1, results[0].Rank)
}

func TestMatchDocumentsWithoutCandidates(t *testing.T) {
	provider := NewEmbeddingProvider(NewHashEncoder(32), EmbeddingOptions{Dimension: 32}, nil)
	m := newTestMatcher(t, provider, MatcherOptions{})

	_, err := m.MatchDocuments(context.Background(), "Go engineer", []models.Upload{
		{Filename: "resume.jpg", Content: []byte("x")},
	})

	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestMatchEndToEndWithLocalEncoder(t *testing.T) {
	provider := NewEmbeddingProvider(NewHashEncoder(768), EmbeddingOptions{MaxWords: 512, Dimension: 768}, nil)
	m := newTestMatcher(t, provider, MatcherOptions{})

	jobDescription := "Senior Python backend engineer with distributed systems experience"
	texts := []string{
		"Graphic design, Adobe Photoshop",
		"Senior Python backend engineer with distributed systems experience. Python, distributed systems, backend",
	}

	results, err := m.Match(context.Background(), jobDescription, texts, []string{"designer.pdf", "pythonista.pdf"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "pythonista.pdf", results[0].Filename)
	assert.Contains(t, []models.MatchLevel{models.MatchLevelHigh, models.MatchLevelMedium}, results[0].MatchLevel)
	assert.Equal(t, "designer.pdf", results[1].Filename)
	assert.Equal(t, models.MatchLevelLow, results[1].MatchLevel)
}

func TestMatchFailsFastOnTextWithoutTokens(t *testing.T) {
	provider := NewEmbeddingProvider(NewHashEncoder(64), EmbeddingOptions{
		Dimension:    64,
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
	}, nil)
	m := newTestMatcher(t, provider, MatcherOptions{})

	start := time.Now()
	results, err := m.Match(context.Background(), "go engineer",
		[]string{"go engineer", "- . , -"},
		[]string{"a.txt", "b.txt"},
	)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, results, 2)
	assert.Equal(t, "a.txt", results[0].Filename)
	assert.Equal(t, "b.txt", results[1].Filename)
	assert.True(t, results[1].Failed())
	assert.Contains(t, results[1].Error, "empty text")
	assert.NotContains(t, results[1].Error, "failed after")

	start = time.Now()
	_, err = m.Match(context.Background(), "- . , -", []string{"go engineer"}, []string{"a.txt"})
	assert.ErrorIs(t, err, ErrEmptyJobDescription)
	assert.Less(t, time.Since(start), time.Second)
}
