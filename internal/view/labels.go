package view

import (
	"strings"

	"github.com/example/ride-tracking/internal/models"
)

// Labels are the localized strings the view model needs: stop fallbacks,
// stage names and the cancellation notice.
type Labels struct {
	Origin   string
	Extra    string
	Final    string
	Progress string
	Canceled string
	Stages   map[models.TripStatus]string
}

var Spanish = Labels{
	Origin:   "Origen",
	Extra:    "Destino extra",
	Final:    "Destino final",
	Progress: "Progreso del viaje",
	Canceled: "Este viaje fue cancelado.",
	Stages: map[models.TripStatus]string{
		models.StatusDriverOnWay:    "Conductor en camino",
		models.StatusDriverArrived:  "Conductor ha llegado",
		models.StatusInProgress:     "Viaje en curso",
		models.StatusPendingPayment: "Pendiente de pago",
		models.StatusCompleted:      "Completado",
		models.StatusCanceled:       "Cancelado",
	},
}

var English = Labels{
	Origin:   "Origin",
	Extra:    "Extra stop",
	Final:    "Final destination",
	Progress: "Trip progress",
	Canceled: "This trip was canceled.",
	Stages: map[models.TripStatus]string{
		models.StatusDriverOnWay:    "Driver on the way",
		models.StatusDriverArrived:  "Driver has arrived",
		models.StatusInProgress:     "Trip in progress",
		models.StatusPendingPayment: "Pending payment",
		models.StatusCompleted:      "Completed",
		models.StatusCanceled:       "Canceled",
	},
}

// LabelsFor returns the label set for a language tag such as "en" or "es-NI".
// Unknown languages get the fallback set.
func LabelsFor(lang string, fallback Labels) Labels {
	tag := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	switch tag {
	case "en":
		return English
	case "es":
		return Spanish
	default:
		return fallback
	}
}
