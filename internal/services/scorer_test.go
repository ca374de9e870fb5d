package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-matcher/internal/models"
)

func TestMatchLevelForBoundaries(t *testing.T) {
	cases := []struct {
		similarity float64
		want       models.MatchLevel
	}{
		{100, models.MatchLevelHigh},
		{80.00, models.MatchLevelHigh},
		{79.99, models.MatchLevelMedium},
		{60.00, models.MatchLevelMedium},
		{59.99, models.MatchLevelLow},
		{0, models.MatchLevelLow},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchLevelFor(tc.similarity), "similarity %.2f", tc.similarity)
	}
}

func TestCosineSimilarity(t *testing.T) {
	same, err := CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-9)

	orthogonal, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, orthogonal, 1e-9)

	_, err = CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = CosineSimilarity([]float32{0, 0}, []float32{1, 0})
	assert.ErrorIs(t, err, ErrZeroVector)
}

func TestScoreRoundsAndClamps(t *testing.T) {
	score, err := Score([]float32{1, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 70.71, score)

	opposite, err := Score([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, opposite)

	assert.Equal(t, 12.35, ScorePercent(0.123456))
	assert.Equal(t, 100.0, ScorePercent(1.0000001))
}
