package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
)

var (
	ErrEmptyText         = errors.New("empty text")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrPermanent marks encoder failures that a retry cannot fix.
	ErrPermanent = errors.New("permanent encoder failure")
)

// Encoder is the external text encoder. Implementations must be safe for
// concurrent use.
type Encoder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingProvider wraps an Encoder with word-budget truncation, retries and
// a fixed output dimensionality.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

type EmbeddingOptions struct {
	// MaxWords is the whitespace-token budget; longer input keeps its first MaxWords words.
	MaxWords int
	// Dimension is the expected vector length. Zero disables the check.
	Dimension    int
	MaxAttempts  int
	InitialDelay time.Duration
}

type embeddingProvider struct {
	encoder Encoder
	opts    EmbeddingOptions
	logger  *zap.Logger
}

func NewEmbeddingProvider(encoder Encoder, opts EmbeddingOptions, l *zap.Logger) EmbeddingProvider {
	if opts.MaxWords <= 0 {
		opts.MaxWords = 512
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	return &embeddingProvider{
		encoder: encoder,
		opts:    opts,
		logger:  logger.OrNop(l),
	}
}

func (p *embeddingProvider) Dimension() int {
	return p.opts.Dimension
}

// Embed implements EmbeddingProvider.
func (p *embeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	text = TruncateWords(text, p.opts.MaxWords)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	var lastErr error
	delay := p.opts.InitialDelay

	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		vec, err := p.encoder.GenerateEmbedding(ctx, text)
		if err == nil {
			return p.checkDimension(vec)
		}

		if isPermanent(err) {
			return nil, err
		}

		lastErr = err

		if attempt == p.opts.MaxAttempts {
			break
		}

		p.logger.Debug("embedding attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.opts.MaxAttempts),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	if p.opts.MaxAttempts > 1 {
		return nil, fmt.Errorf("failed after %d attempts: %w", p.opts.MaxAttempts, lastErr)
	}
	return nil, lastErr
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) ||
		errors.Is(err, ErrEmptyText) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (p *embeddingProvider) checkDimension(vec []float32) ([]float32, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	if p.opts.Dimension > 0 && len(vec) != p.opts.Dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), p.opts.Dimension)
	}
	return vec, nil
}

// TruncateWords keeps the first maxWords whitespace-delimited words of text.
// Text within budget is returned unchanged.
func TruncateWords(text string, maxWords int) string {
	if maxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}

const (
	EncoderGemini = "gemini"
	EncoderLocal  = "local"
)

// NewEncoder picks the encoder named by provider.
func NewEncoder(provider, apiKey, model string, dimension int, l *zap.Logger) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case EncoderLocal:
		return NewHashEncoder(dimension), nil
	case EncoderGemini, "":
		return NewGeminiService(apiKey, model, dimension, l)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// hashEncoder is a deterministic bag-of-words encoder: every lower-cased
// token increments the bucket chosen by its FNV-1a hash.
type hashEncoder struct {
	dimension int
}

func NewHashEncoder(dimension int) Encoder {
	if dimension <= 0 {
		dimension = 768
	}
	return &hashEncoder{dimension: dimension}
}

// GenerateEmbedding implements Encoder.
func (h *hashEncoder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float32, h.dimension)
	for _, tok := range tokens {
		hash := fnv.New32a()
		hash.Write([]byte(tok))
		vec[hash.Sum32()%uint32(h.dimension)]++
	}

	return vec, nil
}
