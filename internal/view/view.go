// Package view turns ride snapshots into the model the tracking screen renders.
package view

import (
	"math"

	"github.com/example/ride-tracking/internal/geo"
	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/progress"
	"github.com/example/ride-tracking/internal/status"
	"github.com/example/ride-tracking/internal/vehicle"
)

type Stop struct {
	Kind     models.MarkerKind `json:"kind"`
	Label    string            `json:"label"`
	Position *models.GeoPoint  `json:"position,omitempty"`
}

type Stage struct {
	Status models.TripStatus `json:"status"`
	Label  string            `json:"label"`
	Active bool              `json:"active"`
}

// View is everything the presentation layer needs for one ride.
type View struct {
	RideID      string             `json:"rideId"`
	Status      *models.TripStatus `json:"status"`
	StatusLabel string             `json:"statusLabel,omitempty"`

	// Canceled replaces stops, route and progress with Notice.
	Canceled bool   `json:"canceled"`
	Notice   string `json:"notice,omitempty"`

	Stages          []Stage  `json:"stages,omitempty"`
	Progress        *float64 `json:"progress,omitempty"`
	ProgressPercent *int     `json:"progressPercent,omitempty"`
	ProgressTitle   string   `json:"progressTitle,omitempty"`

	Stops   []Stop             `json:"stops,omitempty"`
	Center  models.GeoPoint    `json:"center"`
	Markers []models.MapMarker `json:"markers"`
	// Route is nil when there is nothing drawable.
	Route *models.RoutePath `json:"route,omitempty"`

	DistanceKm        *float64 `json:"distanceKm,omitempty"`
	DistanceEstimated bool     `json:"distanceEstimated,omitempty"` // measured from the route, not the backend
	DurationMin       *int     `json:"durationMin,omitempty"`
	HasTracking       bool     `json:"hasTracking"`
	VehicleType       string   `json:"vehicleType,omitempty"`
	StaticMapURL      string   `json:"staticMapUrl,omitempty"`

	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type Options struct {
	Labels  Labels
	MapsKey string
}

// Build projects a snapshot and its authoritative route into a View.
// A nil snapshot yields an empty view centered on the default point.
func Build(s *models.RideSnapshot, rt models.RoutePath, opts Options) View {
	if s == nil {
		return View{Center: geo.DefaultCenter, Markers: []models.MapMarker{}}
	}
	labels := opts.Labels
	st := geo.ResolveStops(s)
	ms := geo.BuildMarkerSet(s)

	v := View{
		RideID:       s.RideID,
		Status:       status.NormalizePtr(s.Status),
		Center:       ms.Center,
		Markers:      ms.Markers,
		HasTracking:  s.HasTracking,
		VehicleType:  vehicle.Normalize(vehicle.Resolve(s.DriverInfo, s.ServiceType)),
		StaticMapURL: StaticMapURL(st, opts.MapsKey),
	}
	if v.Status != nil {
		v.StatusLabel = labels.Stages[*v.Status]
	}
	if v.Status != nil && *v.Status == models.StatusCanceled {
		v.Canceled = true
		v.Notice = labels.Canceled
		return v
	}

	v.Stages = make([]Stage, len(status.Stages))
	for i, sg := range status.Stages {
		v.Stages[i] = Stage{Status: sg, Label: labels.Stages[sg], Active: v.Status != nil && *v.Status == sg}
	}
	frac := progress.Compute(v.Status, s.Progress)
	v.Progress = &frac
	if pct, ok := progress.Percent(s.Progress); ok {
		v.ProgressPercent = &pct
	}

	v.Stops = []Stop{{Kind: models.MarkerOrigin, Label: geo.ResolveLabel(s.Origin, labels.Origin), Position: st.Origin}}
	if s.ExtraDestination != nil {
		v.Stops = append(v.Stops, Stop{Kind: models.MarkerExtra, Label: geo.ResolveLabel(s.ExtraDestination, labels.Extra), Position: st.Extra})
	}
	v.Stops = append(v.Stops, Stop{Kind: models.MarkerFinal, Label: geo.FinalLabel(s, labels.Final), Position: st.Final})

	if rt.Drawable() {
		r := rt
		v.Route = &r
	}

	if s.EstimatedDistance != nil && isFinite(*s.EstimatedDistance) {
		km := math.Round(*s.EstimatedDistance/100) / 10
		v.DistanceKm = &km
	} else if v.Route != nil {
		// no backend estimate: measure the drawn path
		km := math.Round(geo.PathLength(v.Route.Points)/100) / 10
		v.DistanceKm = &km
		v.DistanceEstimated = true
	}
	if s.EstimatedDuration != nil && isFinite(*s.EstimatedDuration) {
		mins := int(math.Round(*s.EstimatedDuration / 60))
		v.DurationMin = &mins
	}
	v.ProgressTitle = labels.Progress
	return v
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
