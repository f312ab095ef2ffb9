package progress

import (
	"math"

	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/status"
)

// Compute returns the trip progress as a fraction in [0,1].
// A finite backend value (0..100) always wins over the status position;
// NaN and infinities count as absent. Unknown and canceled statuses have no
// position and yield 0.
func Compute(st *models.TripStatus, backend *float64) float64 {
	if finite(backend) {
		return clampPercent(*backend) / 100
	}
	if st == nil {
		return 0
	}
	idx := status.StageIndex(*st)
	if idx < 0 {
		return 0
	}
	return float64(idx+1) / float64(len(status.Stages))
}

// Percent is the rounded display value of a backend progress, if any.
func Percent(backend *float64) (int, bool) {
	if !finite(backend) {
		return 0, false
	}
	return int(math.Round(clampPercent(*backend))), true
}

func clampPercent(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
