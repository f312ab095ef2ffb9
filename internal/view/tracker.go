package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/example/ride-tracking/internal/geo"
	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/observability"
	"github.com/example/ride-tracking/internal/route"
	"github.com/example/ride-tracking/internal/status"
)

var (
	// ErrFetchInFlight is returned when the same ride is already being fetched.
	ErrFetchInFlight = errors.New("a fetch for this ride is already in flight")
	// ErrSuperseded is returned when a newer submit replaced this one.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Tracker holds the view state of one tracking screen. It is the only
// writer of that state; every change is derived from the latest accepted
// snapshot.
//
// Each Submit takes a new generation. A fetch result is applied only while
// its generation is current, and a provider route only while the ride and
// its stop set are unchanged, so late responses never overwrite newer data.
type Tracker struct {
	svc    *Service
	labels Labels

	// OnUpdate, if set, receives every accepted view. It runs with the
	// tracker locked and must not call back into the Tracker.
	OnUpdate func(View)

	mu       sync.Mutex
	gen      uint64
	rideID   string
	loading  bool
	snapshot *models.RideSnapshot
	stops    geo.Stops
	route    models.RoutePath
	routeKey string
	err      string
	recorded string
}

func NewTracker(svc *Service, labels Labels) *Tracker {
	return &Tracker{svc: svc, labels: labels}
}

// Submit loads a ride. Blank ids are ignored. Submitting the ride that is
// currently in flight is a no-op reported as ErrFetchInFlight.
func (t *Tracker) Submit(ctx context.Context, rideID string) (View, error) {
	id := strings.TrimSpace(rideID)
	if id == "" {
		return t.View(), nil
	}

	t.mu.Lock()
	if t.loading && t.rideID == id {
		t.mu.Unlock()
		return t.View(), ErrFetchInFlight
	}
	t.gen++
	gen := t.gen
	if id != t.rideID {
		// switching rides: never show the previous ride under the new id
		t.clearLocked()
	}
	t.rideID = id
	t.loading = true
	t.err = ""
	t.publishLocked()
	t.mu.Unlock()

	snap, err := t.svc.FetchSnapshot(ctx, id)

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		observability.StaleDiscardsTotal.WithLabelValues("snapshot").Inc()
		return t.View(), ErrSuperseded
	}
	t.loading = false
	if err != nil {
		t.clearLocked()
		t.err = err.Error()
		v := t.publishLocked()
		t.mu.Unlock()
		return v, err
	}

	t.snapshot = snap
	t.stops = geo.ResolveStops(snap)
	key := t.stops.Key()
	// a provider route stays valid for as long as the stop set is the same
	keepRoute := key == t.routeKey && t.route.Source == models.RouteDirections
	if !keepRoute {
		t.route = route.StraightLine(t.stops.Origin, t.stops.Extra, t.stops.Final)
		t.routeKey = key
	}
	stops := t.stops
	v := t.publishLocked()
	record := t.shouldRecordLocked(snap)
	src := t.route.Source
	t.mu.Unlock()

	if record {
		t.svc.Record(ctx, snap, src)
	}

	if keepRoute || canceled(snap) || t.svc.Directions == nil || stops.Origin == nil || stops.Final == nil {
		return v, nil
	}

	rt := t.svc.Route(ctx, stops)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rideID != id || t.routeKey != key {
		observability.StaleDiscardsTotal.WithLabelValues("route").Inc()
		return t.viewLocked(), nil
	}
	t.route = rt
	return t.publishLocked(), nil
}

// Open is the deep-link entry: it loads rideID unless that ride is already
// loaded or loading.
func (t *Tracker) Open(ctx context.Context, rideID string) (View, error) {
	id := strings.TrimSpace(rideID)
	t.mu.Lock()
	already := id != "" && id == t.rideID && (t.loading || t.snapshot != nil)
	t.mu.Unlock()
	if already {
		return t.View(), nil
	}
	return t.Submit(ctx, id)
}

// Refresh re-fetches the current ride, if any.
func (t *Tracker) Refresh(ctx context.Context) (View, error) {
	t.mu.Lock()
	id := t.rideID
	t.mu.Unlock()
	if id == "" {
		return t.View(), nil
	}
	return t.Submit(ctx, id)
}

// View returns the current view.
func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *Tracker) viewLocked() View {
	v := Build(t.snapshot, t.route, Options{Labels: t.labels, MapsKey: t.svc.MapsKey})
	v.RideID = t.rideID
	v.Loading = t.loading
	v.Error = t.err
	return v
}

func (t *Tracker) publishLocked() View {
	v := t.viewLocked()
	if t.OnUpdate != nil {
		t.OnUpdate(v)
	}
	return v
}

func canceled(snap *models.RideSnapshot) bool {
	st := status.NormalizePtr(snap.Status)
	return st != nil && *st == models.StatusCanceled
}

func (t *Tracker) clearLocked() {
	t.snapshot = nil
	t.stops = geo.Stops{}
	t.route = models.RoutePath{}
	t.routeKey = ""
}

// shouldRecordLocked lets a snapshot through once per ride and raw status,
// so polling an unchanged ride does not flood the recorders.
func (t *Tracker) shouldRecordLocked(snap *models.RideSnapshot) bool {
	key := snap.RideID + "|"
	if snap.Status != nil {
		key += *snap.Status
	}
	if key == t.recorded {
		return false
	}
	t.recorded = key
	return true
}
