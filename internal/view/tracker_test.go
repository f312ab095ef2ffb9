package view

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/route"
)

var (
	p1 = models.GeoPoint{Lat: 12.10, Lng: -86.25}
	p2 = models.GeoPoint{Lat: 12.12, Lng: -86.20}
	p3 = models.GeoPoint{Lat: 12.15, Lng: -86.28}
	p4 = models.GeoPoint{Lat: 12.16, Lng: -86.30}
)

func TestTrackerLateResponseForOlderRideIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	f.respond(ride("X2", "in_progress", p3, p4))
	gate := f.block("X1")

	tr := NewTracker(&Service{Fetcher: f}, Spanish)

	done := make(chan error, 1)
	go func() {
		_, err := tr.Submit(ctx, "X1")
		done <- err
	}()
	require.Equal(t, "X1", <-f.started)

	v, err := tr.Submit(ctx, "X2")
	require.NoError(t, err)
	assert.Equal(t, "X2", v.RideID)

	close(gate)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	v = tr.View()
	assert.Equal(t, "X2", v.RideID)
	require.NotNil(t, v.Status)
	assert.Equal(t, models.StatusInProgress, *v.Status)
	assert.False(t, v.Loading)
	assert.Equal(t, p3, v.Markers[0].Position)
}

func TestTrackerIgnoresResubmitWhileInFlight(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	gate := f.block("X1")
	tr := NewTracker(&Service{Fetcher: f}, Spanish)

	done := make(chan error, 1)
	go func() {
		_, err := tr.Submit(ctx, "X1")
		done <- err
	}()
	<-f.started

	v, err := tr.Submit(ctx, " X1 ")
	assert.ErrorIs(t, err, ErrFetchInFlight)
	assert.True(t, v.Loading)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.callCount("X1"))
	assert.False(t, tr.View().Loading)
}

func TestTrackerBlankSubmitIsNoop(t *testing.T) {
	f := newFakeFetcher()
	tr := NewTracker(&Service{Fetcher: f}, Spanish)
	v, err := tr.Submit(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, v.RideID)
	assert.Equal(t, 0, f.callCount(""))
}

func TestTrackerUpgradesToProviderRoute(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	dir := newFakeDirections()

	var mu sync.Mutex
	var updates []View
	tr := NewTracker(&Service{Fetcher: f, Directions: dir}, Spanish)
	tr.OnUpdate = func(v View) {
		mu.Lock()
		updates = append(updates, v)
		mu.Unlock()
	}

	v, err := tr.Submit(ctx, "X1")
	require.NoError(t, err)
	require.NotNil(t, v.Route)
	assert.Equal(t, models.RouteDirections, v.Route.Source)
	assert.Equal(t, roadPath(route.Request{Origin: p1, Destination: p2}), v.Route.Points)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 3) // loading, straight line, provider
	assert.True(t, updates[0].Loading)
	assert.Equal(t, models.RouteStraightLine, updates[1].Route.Source)
	assert.Equal(t, models.RouteDirections, updates[2].Route.Source)
}

func TestTrackerKeepsProviderRouteWhileStopsUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	dir := newFakeDirections()
	tr := NewTracker(&Service{Fetcher: f, Directions: dir}, Spanish)

	_, err := tr.Submit(ctx, "X1")
	require.NoError(t, err)
	f.respond(ride("X1", "driver_arrived", p1, p2))
	v, err := tr.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, dir.callCount())
	assert.Equal(t, models.RouteDirections, v.Route.Source)
	assert.Equal(t, models.StatusDriverArrived, *v.Status)
}

func TestTrackerStaleRouteForOlderRideIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	f.respond(ride("X2", "driver_on_way", p3, p4))
	dir := newFakeDirections()
	gate := dir.block(p1)
	tr := NewTracker(&Service{Fetcher: f, Directions: dir}, Spanish)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = tr.Submit(ctx, "X1")
	}()
	require.Equal(t, p1, <-dir.started)

	v, err := tr.Submit(ctx, "X2")
	require.NoError(t, err)
	want := roadPath(route.Request{Origin: p3, Destination: p4})
	assert.Equal(t, want, v.Route.Points)

	close(gate)
	<-done

	v = tr.View()
	assert.Equal(t, "X2", v.RideID)
	assert.Equal(t, want, v.Route.Points)
}

func TestTrackerStaleRouteForChangedStopsIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	dir := newFakeDirections()
	gate := dir.block(p1)
	tr := NewTracker(&Service{Fetcher: f, Directions: dir}, Spanish)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = tr.Submit(ctx, "X1")
	}()
	require.Equal(t, p1, <-dir.started)

	// the rider edited the trip: new pickup point
	f.respond(ride("X1", "driver_on_way", p3, p2))
	v, err := tr.Refresh(ctx)
	require.NoError(t, err)
	want := roadPath(route.Request{Origin: p3, Destination: p2})
	assert.Equal(t, want, v.Route.Points)

	close(gate)
	<-done
	assert.Equal(t, want, tr.View().Route.Points)
}

func TestTrackerFailureClearsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "in_progress", p1, p2))
	tr := NewTracker(&Service{Fetcher: f}, Spanish)

	_, err := tr.Submit(ctx, "X1")
	require.NoError(t, err)

	f.fail("X1", errors.New("connection reset"))
	v, err := tr.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, "connection reset", v.Error)
	assert.Nil(t, v.Status)
	assert.Empty(t, v.Markers)
	assert.Nil(t, v.Route)
	assert.Equal(t, "X1", v.RideID)

	// retrying recovers
	f.respond(ride("X1", "in_progress", p1, p2))
	v, err = tr.Submit(ctx, "X1")
	require.NoError(t, err)
	assert.Empty(t, v.Error)
	assert.NotNil(t, v.Status)
}

func TestTrackerUnavailableRide(t *testing.T) {
	f := newFakeFetcher()
	tr := NewTracker(&Service{Fetcher: f}, Spanish)

	v, err := tr.Submit(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRideUnavailable)
	assert.Equal(t, "Ride not found", v.Error)
}

func TestTrackerOpenLoadsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	tr := NewTracker(&Service{Fetcher: f}, Spanish)

	_, err := tr.Open(ctx, "X1")
	require.NoError(t, err)
	v, err := tr.Open(ctx, " X1")
	require.NoError(t, err)
	assert.Equal(t, "X1", v.RideID)
	assert.Equal(t, 1, f.callCount("X1"))

	v, err = tr.Open(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "X1", v.RideID)
}

func TestTrackerRecordsOncePerStatus(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.respond(ride("X1", "driver_on_way", p1, p2))
	rec := &fakeRecorder{}
	tr := NewTracker(&Service{Fetcher: f, Recorders: []Recorder{rec}}, Spanish)

	_, _ = tr.Submit(ctx, "X1")
	_, _ = tr.Refresh(ctx)
	assert.Equal(t, 1, rec.count())

	f.respond(ride("X1", "driver_arrived", p1, p2))
	_, _ = tr.Refresh(ctx)
	require.Equal(t, 2, rec.count())
	assert.Equal(t, "driver_arrived", rec.lookups[1].Status)
	assert.InDelta(t, 0.4, rec.lookups[1].Progress, 1e-9)
}

func TestTrackerCanceledSkipsProvider(t *testing.T) {
	f := newFakeFetcher()
	f.respond(ride("X1", "canceled", p1, p2))
	dir := newFakeDirections()
	tr := NewTracker(&Service{Fetcher: f, Directions: dir}, Spanish)

	v, err := tr.Submit(context.Background(), "X1")
	require.NoError(t, err)
	assert.True(t, v.Canceled)
	assert.Nil(t, v.Route)
	assert.Equal(t, 0, dir.callCount())
}
