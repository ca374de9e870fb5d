package services

import (
	"errors"
	"fmt"
	"math"

	"alfredoptarigan/resume-matcher/internal/models"
)

const (
	HighMatchThreshold   = 80.0
	MediumMatchThreshold = 60.0
)

var ErrZeroVector = errors.New("zero-magnitude embedding")

// CosineSimilarity returns the cosine of the angle between a and b.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Score returns the similarity of two embeddings as a percentage clamped to
// [0,100] and rounded to two decimals.
func Score(a, b []float32) (float64, error) {
	cos, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return ScorePercent(cos), nil
}

// ScorePercent converts a cosine similarity into a rounded, clamped percentage.
func ScorePercent(cos float64) float64 {
	if math.IsNaN(cos) {
		return 0
	}
	pct := math.Max(0, math.Min(100, cos*100))
	return math.Round(pct*100) / 100
}

// MatchLevelFor maps a similarity percentage to its tier. Lower bounds are inclusive.
func MatchLevelFor(similarity float64) models.MatchLevel {
	switch {
	case similarity >= HighMatchThreshold:
		return models.MatchLevelHigh
	case similarity >= MediumMatchThreshold:
		return models.MatchLevelMedium
	default:
		return models.MatchLevelLow
	}
}
