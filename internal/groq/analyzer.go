package groq

import (
	"context"
	"fmt"
	"strings"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/goccy/go-json"
)

const analysisSystemPrompt = `You are a UX analysis expert. Analyze user interaction data and provide insights in JSON format with these sections:
1. optimizations: Array of UI optimization suggestions with area, issue, suggestion, and priority
2. behaviorPatterns: Array of identified user behavior patterns with pattern name, confidence score (0-1), and description
3. frictionPoints: Array of friction points with location, description, severity (1-10), and recommendation`

const summarySystemPrompt = `You are a UX analysis expert. Summarize the following insights about a website's visitors for its owner in one short paragraph of plain text. Lead with the most important finding.`

// rapidScrollSpeed is the average speed in px/s above which scrolling counts as rapid
const rapidScrollSpeed = 100

// sampleSize is the number of raw events attached to the prompt
const sampleSize = 5

// Analyzer implements insight analysis and summarization on top of Client
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze asks the model for optimizations, behavior patterns and friction
// points. Sections missing from the reply come back empty.
func (a *Analyzer) Analyze(ctx context.Context, records []models.TrackingRecord) (*models.AnalysisResult, error) {
	payload, err := FormatEvents(records)
	if err != nil {
		return nil, err
	}

	content, err := a.client.ChatCompletion(ctx, "analyze", []Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: "Analyze this user interaction data and provide JSON output as specified:\n" + payload},
	}, true)
	if err != nil {
		return nil, err
	}

	return ParseAnalysis(content)
}

// Summarize asks the model for a prose summary of insights
func (a *Analyzer) Summarize(ctx context.Context, insights []models.Insight) (string, error) {
	var b strings.Builder
	for i, in := range insights {
		fmt.Fprintf(&b, "%d. %s (confidence %d%%)\n%s\n\n", i+1, in.Title, in.Confidence, in.Content)
	}
	if len(insights) == 0 {
		b.WriteString("No insights were generated for this period.")
	}

	content, err := a.client.ChatCompletion(ctx, "summarize", []Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: b.String()},
	}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// ParseAnalysis decodes the model's JSON reply. An empty reply is an empty analysis.
func ParseAnalysis(content string) (*models.AnalysisResult, error) {
	result := &models.AnalysisResult{}
	if strings.TrimSpace(content) != "" {
		if err := json.Unmarshal([]byte(content), result); err != nil {
			return nil, fmt.Errorf("failed to parse analysis: %w", err)
		}
	}

	if result.Optimizations == nil {
		result.Optimizations = []models.UIOptimization{}
	}
	if result.BehaviorPatterns == nil {
		result.BehaviorPatterns = []models.BehaviorPattern{}
	}
	if result.FrictionPoints == nil {
		result.FrictionPoints = []models.FrictionPoint{}
	}
	return result, nil
}

type promptSummary struct {
	SessionDuration     string `json:"sessionDuration"`
	EventCount          int    `json:"eventCount"`
	ScrollCount         int    `json:"scrollCount"`
	ClickCount          int    `json:"clickCount"`
	TotalScrollDistance string `json:"totalScrollDistance"`
	AvgScrollSpeed      string `json:"avgScrollSpeed"`
}

type scrollPoint struct {
	Y         float64                 `json:"y"`
	Direction *models.ScrollDirection `json:"direction"`
}

type scrollBehavior struct {
	Pattern        []scrollPoint `json:"pattern"`
	RapidScrolling bool          `json:"rapidScrolling"`
}

type clickInsight struct {
	Element   string `json:"element"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type promptPayload struct {
	Summary        promptSummary     `json:"summary"`
	ScrollBehavior scrollBehavior    `json:"scrollBehavior"`
	ClickBehavior  []clickInsight    `json:"clickBehavior"`
	RawEvents      []json.RawMessage `json:"rawEvents"`
}

// FormatEvents builds the prompt payload from records sorted oldest first
func FormatEvents(records []models.TrackingRecord) (string, error) {
	var (
		scrolls []models.TrackingRecord
		clicks  []clickInsight
	)
	for _, r := range records {
		switch {
		case r.Event.Type == models.EventScroll && r.Event.Scroll != nil:
			scrolls = append(scrolls, r)
		case r.Event.Type == models.EventClick && r.Event.Click != nil:
			clicks = append(clicks, clickInsight{
				Element:   r.Event.Click.Element.TagName,
				Text:      r.Event.Click.Element.Text,
				Timestamp: r.Timestamp,
			})
		}
	}

	var duration float64
	if len(records) > 0 {
		duration = float64(records[len(records)-1].Timestamp-records[0].Timestamp) / 1000
	}

	var distance float64
	if len(scrolls) > 0 {
		distance = scrolls[len(scrolls)-1].Event.Scroll.ScrollY - scrolls[0].Event.Scroll.ScrollY
	}

	divisor := duration
	if divisor == 0 {
		divisor = 1
	}
	speed := distance / divisor

	pattern := make([]scrollPoint, 0, len(scrolls))
	for _, s := range scrolls {
		pattern = append(pattern, scrollPoint{Y: s.Event.Scroll.ScrollY, Direction: s.Event.Scroll.Direction})
	}

	sample := make([]json.RawMessage, 0, sampleSize)
	for _, r := range records {
		if len(sample) == sampleSize {
			break
		}
		raw := r.Payload
		if len(raw) == 0 {
			encoded, err := json.Marshal(r.Event)
			if err != nil {
				return "", fmt.Errorf("failed to encode event: %w", err)
			}
			raw = encoded
		}
		sample = append(sample, raw)
	}

	if clicks == nil {
		clicks = []clickInsight{}
	}

	payload := promptPayload{
		Summary: promptSummary{
			SessionDuration:     fmt.Sprintf("%.2f seconds", duration),
			EventCount:          len(records),
			ScrollCount:         len(scrolls),
			ClickCount:          len(clicks),
			TotalScrollDistance: fmt.Sprintf("%.0fpx", distance),
			AvgScrollSpeed:      fmt.Sprintf("%.2fpx/s", speed),
		},
		ScrollBehavior: scrollBehavior{
			Pattern:        pattern,
			RapidScrolling: speed > rapidScrollSpeed,
		},
		ClickBehavior: clicks,
		RawEvents:     sample,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt payload: %w", err)
	}
	return string(data), nil
}
