package status

import (
	"strings"

	"github.com/example/ride-tracking/internal/models"
)

// Stages is the lifecycle ordering used for both the progress fraction and
// the highlighted stage label. Canceled has no position in it.
var Stages = []models.TripStatus{
	models.StatusDriverOnWay,
	models.StatusDriverArrived,
	models.StatusInProgress,
	models.StatusPendingPayment,
	models.StatusCompleted,
}

// backend vocabulary -> client status
var table = map[string]models.TripStatus{
	"requested":        models.StatusDriverOnWay,
	"driver_offered":   models.StatusDriverOnWay,
	"accepted":         models.StatusDriverOnWay,
	"driver_on_way":    models.StatusDriverOnWay,
	"driver_on_route":  models.StatusDriverOnWay,
	"driver_arrived":   models.StatusDriverArrived,
	"in_progress":      models.StatusInProgress,
	"pending_payment":  models.StatusPendingPayment,
	"pending_rating":   models.StatusPendingPayment,
	"rating_completed": models.StatusCompleted,
	"completed":        models.StatusCompleted,
	"canceled":         models.StatusCanceled,
}

// Normalize maps a raw backend status onto a TripStatus. The bool is false
// for blank or unrecognized input, which callers treat as "unknown".
func Normalize(raw string) (models.TripStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	s, ok := table[key]
	return s, ok
}

// NormalizePtr is Normalize for an optional status, returning nil for unknown.
func NormalizePtr(raw *string) *models.TripStatus {
	if raw == nil {
		return nil
	}
	s, ok := Normalize(*raw)
	if !ok {
		return nil
	}
	return &s
}

// StageIndex returns the zero-based position of s in Stages, or -1.
func StageIndex(s models.TripStatus) int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}
