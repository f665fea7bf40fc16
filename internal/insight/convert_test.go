package insight

import (
	"testing"
	"time"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartDate(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(-24*time.Hour), StartDate("24h", now))
	assert.Equal(t, time.Date(2024, 3, 24, 12, 0, 0, 0, time.UTC), StartDate("7d", now))
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), StartDate("30d", now))
	assert.Equal(t, StartDate("7d", now), StartDate("", now))
	assert.Equal(t, StartDate("7d", now), StartDate("1y", now))
}

func TestConvertAnalysis(t *testing.T) {
	analysis := &models.AnalysisResult{
		Optimizations: []models.UIOptimization{
			{Area: "Checkout", Issue: "Button hidden", Suggestion: "Move it up", Priority: "high"},
			{Area: "Nav", Issue: "i", Suggestion: "s", Priority: "medium"},
			{Area: "Footer", Issue: "i", Suggestion: "s", Priority: "low"},
			{Area: "Hero", Issue: "i", Suggestion: "s", Priority: "urgent"},
		},
		BehaviorPatterns: []models.BehaviorPattern{
			{Pattern: "Skimming", Confidence: 0.876, Description: "Users scroll fast"},
		},
		FrictionPoints: []models.FrictionPoint{
			{Location: "Pricing table", Description: "Repeated clicks", Severity: 7, Recommendation: "Make rows expandable"},
		},
	}

	insights := ConvertAnalysis(analysis)
	require.Len(t, insights, 6)

	assert.Equal(t, "Checkout Optimization", insights[0].Title)
	assert.Equal(t, "Issue: Button hidden\nSuggestion: Move it up", insights[0].Content)
	assert.Equal(t, []int{90, 75, 60, 60}, []int{
		insights[0].Confidence, insights[1].Confidence, insights[2].Confidence, insights[3].Confidence,
	})

	assert.Equal(t, "Behavior Pattern: Skimming", insights[4].Title)
	assert.Equal(t, "Users scroll fast", insights[4].Content)
	assert.Equal(t, 88, insights[4].Confidence)

	assert.Equal(t, "Friction Point: Pricing table", insights[5].Title)
	assert.Equal(t, "Repeated clicks\nRecommendation: Make rows expandable", insights[5].Content)
	assert.Equal(t, 30, insights[5].Confidence)
}

func TestConvertAnalysis_Empty(t *testing.T) {
	assert.Empty(t, ConvertAnalysis(&models.AnalysisResult{}))
	assert.NotNil(t, ConvertAnalysis(nil))
}
