package models

// Optimization priorities reported by the analysis model
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// UIOptimization is a suggested change to part of the page
type UIOptimization struct {
	Area       string `json:"area"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

// BehaviorPattern is a recurring behavior. Confidence is in [0, 1].
type BehaviorPattern struct {
	Pattern     string  `json:"pattern"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// FrictionPoint is a place users struggle. Severity is in [1, 10].
type FrictionPoint struct {
	Location       string  `json:"location"`
	Description    string  `json:"description"`
	Severity       float64 `json:"severity"`
	Recommendation string  `json:"recommendation"`
}

// AnalysisResult is what the analysis model returns for a set of events
type AnalysisResult struct {
	Optimizations    []UIOptimization  `json:"optimizations"`
	BehaviorPatterns []BehaviorPattern `json:"behaviorPatterns"`
	FrictionPoints   []FrictionPoint   `json:"frictionPoints"`
}
