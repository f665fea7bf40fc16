package insight

import (
	"fmt"
	"math"
	"time"

	"Mansoor88-6/interaction-insights/internal/models"
)

// StartDate returns the beginning of the analysis window. Unknown ranges
// fall back to seven days.
func StartDate(dateRange string, now time.Time) time.Time {
	switch models.DateRange(dateRange) {
	case models.Range24h:
		return now.Add(-24 * time.Hour)
	case models.Range30d:
		return now.AddDate(0, 0, -30)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// ConvertAnalysis flattens an analysis into insights ordered optimizations,
// then patterns, then friction points. Only title, content and confidence
// are set.
func ConvertAnalysis(analysis *models.AnalysisResult) []models.Insight {
	if analysis == nil {
		return []models.Insight{}
	}

	insights := make([]models.Insight, 0,
		len(analysis.Optimizations)+len(analysis.BehaviorPatterns)+len(analysis.FrictionPoints))

	for _, opt := range analysis.Optimizations {
		insights = append(insights, models.Insight{
			Title:      fmt.Sprintf("%s Optimization", opt.Area),
			Content:    fmt.Sprintf("Issue: %s\nSuggestion: %s", opt.Issue, opt.Suggestion),
			Confidence: priorityConfidence(opt.Priority),
		})
	}

	for _, pattern := range analysis.BehaviorPatterns {
		insights = append(insights, models.Insight{
			Title:      fmt.Sprintf("Behavior Pattern: %s", pattern.Pattern),
			Content:    pattern.Description,
			Confidence: int(math.Round(pattern.Confidence * 100)),
		})
	}

	for _, friction := range analysis.FrictionPoints {
		insights = append(insights, models.Insight{
			Title:      fmt.Sprintf("Friction Point: %s", friction.Location),
			Content:    fmt.Sprintf("%s\nRecommendation: %s", friction.Description, friction.Recommendation),
			Confidence: int(math.Round(100 - friction.Severity*10)),
		})
	}

	return insights
}

func priorityConfidence(priority string) int {
	switch priority {
	case models.PriorityHigh:
		return 90
	case models.PriorityMedium:
		return 75
	default:
		return 60
	}
}
