package collector

import (
	"math"
	"sync"

	"Mansoor88-6/interaction-insights/internal/models"
)

// ScrollSampler thins raw scroll positions down to meaningful movements.
// A sample is emitted when the position moved more than the threshold since
// the last emitted sample; the reference point only moves on emission.
type ScrollSampler struct {
	threshold float64
	mu        sync.Mutex
	last      float64
}

func NewScrollSampler(threshold float64) *ScrollSampler {
	return &ScrollSampler{threshold: threshold}
}

// Observe returns the scroll payload to emit for position y, or false when
// the movement is below the threshold. depth is attached when non-nil.
func (s *ScrollSampler) Observe(y float64, depth *float64) (models.ScrollData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if math.Abs(y-s.last) <= s.threshold {
		return models.ScrollData{}, false
	}

	direction := models.ScrollUp
	if y > s.last {
		direction = models.ScrollDown
	}
	s.last = y

	return models.ScrollData{
		ScrollY:     y,
		Direction:   &direction,
		ScrollDepth: depth,
	}, true
}

// Reset forgets the reference point, used when the page changes
func (s *ScrollSampler) Reset() {
	s.mu.Lock()
	s.last = 0
	s.mu.Unlock()
}
