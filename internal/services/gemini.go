package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-matcher/internal/logger"
)

type geminiService struct {
	client     *genai.Client
	embedModel string
	dimension  int32
	logger     *zap.Logger
}

// NewGeminiService returns an Encoder backed by the Gemini embedding API.
func NewGeminiService(apiKey, embedModel string, dimension int, l *zap.Logger) (Encoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if embedModel == "" {
		embedModel = "text-embedding-004"
	}

	return &geminiService{
		client:     client,
		embedModel: embedModel,
		dimension:  int32(dimension),
		logger:     logger.OrNop(l).With(zap.String("ai_provider", "gemini"), zap.String("ai_model", embedModel)),
	}, nil
}

// GenerateEmbedding implements Encoder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	config := &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	}
	if g.dimension > 0 {
		config.OutputDimensionality = &g.dimension
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), config)
	if err != nil {
		g.logger.Debug("gemini embed content failed",
			zap.Int("text_length", len(text)),
			zap.String("text_preview", logger.TruncateForLog(text, 80)),
			zap.Error(err),
		)
		if isRejectedRequest(err) {
			return nil, fmt.Errorf("%w: failed to generate embedding: %w", ErrPermanent, err)
		}
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// isRejectedRequest reports client-side API errors. Rate limiting stays retryable.
func isRejectedRequest(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code >= http.StatusBadRequest &&
		apiErr.Code < http.StatusInternalServerError &&
		apiErr.Code != http.StatusTooManyRequests
}
