package view

import (
	"context"
	"sync"

	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/route"
	"github.com/example/ride-tracking/internal/tracking"
)

// fakeFetcher serves canned responses per ride id; a ride can be blocked
// on a gate to hold its fetch in flight.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]tracking.Response
	errs      map[string]error
	gates     map[string]chan struct{}
	calls     map[string]int
	started   chan string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: map[string]tracking.Response{},
		errs:      map[string]error{},
		gates:     map[string]chan struct{}{},
		calls:     map[string]int{},
		started:   make(chan string, 16),
	}
}

func (f *fakeFetcher) respond(snap *models.RideSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, snap.RideID)
	f.responses[snap.RideID] = tracking.Response{Success: true, Ride: snap}
}

func (f *fakeFetcher) fail(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[id] = err
}

func (f *fakeFetcher) block(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[id] = g
	return g
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string, _ tracking.FetchOptions) (tracking.Response, error) {
	f.mu.Lock()
	f.calls[id]++
	gate := f.gates[id]
	delete(f.gates, id)
	resp, ok := f.responses[id]
	err := f.errs[id]
	f.mu.Unlock()

	f.started <- id
	if gate != nil {
		<-gate
	}
	if err != nil {
		return tracking.Response{}, err
	}
	if !ok {
		return tracking.Response{Success: false, Error: "Ride not found", Code: "not-found"}, nil
	}
	// hand out a copy so a later respond() cannot mutate an accepted snapshot
	cp := *resp.Ride
	resp.Ride = &cp
	return resp, nil
}

// fakeDirections returns a path derived from the request; requests whose
// origin matches a blocked point wait on its gate.
type fakeDirections struct {
	mu      sync.Mutex
	calls   int
	gates   map[models.GeoPoint]chan struct{}
	started chan models.GeoPoint
}

func newFakeDirections() *fakeDirections {
	return &fakeDirections{gates: map[models.GeoPoint]chan struct{}{}, started: make(chan models.GeoPoint, 16)}
}

func (d *fakeDirections) block(origin models.GeoPoint) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := make(chan struct{})
	d.gates[origin] = g
	return g
}

func (d *fakeDirections) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDirections) Route(ctx context.Context, req route.Request) ([]models.GeoPoint, error) {
	d.mu.Lock()
	d.calls++
	gate := d.gates[req.Origin]
	delete(d.gates, req.Origin)
	d.mu.Unlock()

	d.started <- req.Origin
	if gate != nil {
		<-gate
	}
	return roadPath(req), nil
}

// roadPath fakes a road-following path with a midpoint between endpoints.
func roadPath(req route.Request) []models.GeoPoint {
	mid := models.GeoPoint{Lat: (req.Origin.Lat + req.Destination.Lat) / 2, Lng: (req.Origin.Lng + req.Destination.Lng) / 2}
	return []models.GeoPoint{req.Origin, mid, req.Destination}
}

type fakeRecorder struct {
	mu      sync.Mutex
	lookups []models.Lookup
}

func (r *fakeRecorder) Record(_ context.Context, l models.Lookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, l)
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lookups)
}

func ride(id, st string, origin, final models.GeoPoint) *models.RideSnapshot {
	return &models.RideSnapshot{
		RideID:           id,
		Status:           &st,
		Origin:           map[string]any{"lat": origin.Lat, "lng": origin.Lng},
		FinalDestination: map[string]any{"lat": final.Lat, "lng": final.Lng},
	}
}
