package route

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-tracking/internal/models"
)

type fakeDirections struct {
	pts   []models.GeoPoint
	err   error
	calls int
	last  Request
}

func (f *fakeDirections) Route(ctx context.Context, req Request) ([]models.GeoPoint, error) {
	f.calls++
	f.last = req
	return f.pts, f.err
}

var (
	origin = &models.GeoPoint{Lat: 12.10, Lng: -86.25}
	extra  = &models.GeoPoint{Lat: 12.11, Lng: -86.22}
	final  = &models.GeoPoint{Lat: 12.12, Lng: -86.20}
)

func TestBuildWithoutProviderIsStraightLine(t *testing.T) {
	got := Build(context.Background(), origin, nil, final, nil)
	assert.Equal(t, models.RouteStraightLine, got.Source)
	assert.Equal(t, []models.GeoPoint{*origin, *final}, got.Points)
	assert.True(t, got.Drawable())
}

func TestBuildStraightLineKeepsStopOrder(t *testing.T) {
	got := Build(context.Background(), origin, extra, final, nil)
	assert.Equal(t, []models.GeoPoint{*origin, *extra, *final}, got.Points)
}

func TestBuildProviderSuccessReplacesPath(t *testing.T) {
	road := []models.GeoPoint{*origin, {Lat: 12.105, Lng: -86.24}, *extra, {Lat: 12.115, Lng: -86.21}, *final}
	dir := &fakeDirections{pts: road}

	got := Build(context.Background(), origin, extra, final, dir)
	assert.Equal(t, models.RouteDirections, got.Source)
	assert.Equal(t, road, got.Points)

	require.Equal(t, 1, dir.calls)
	assert.Equal(t, *origin, dir.last.Origin)
	assert.Equal(t, *final, dir.last.Destination)
	require.NotNil(t, dir.last.Stopover)
	assert.Equal(t, *extra, *dir.last.Stopover)
}

func TestBuildProviderFailureFallsBack(t *testing.T) {
	for name, dir := range map[string]*fakeDirections{
		"error":        {err: errors.New("boom")},
		"empty":        {},
		"single point": {pts: []models.GeoPoint{*origin}},
	} {
		t.Run(name, func(t *testing.T) {
			got := Build(context.Background(), origin, extra, final, dir)
			assert.Equal(t, models.RouteStraightLine, got.Source)
			assert.Equal(t, []models.GeoPoint{*origin, *extra, *final}, got.Points)
		})
	}
}

func TestBuildSkipsProviderWhenEndpointMissing(t *testing.T) {
	dir := &fakeDirections{pts: []models.GeoPoint{*origin, *final}}

	got := Build(context.Background(), nil, extra, final, dir)
	assert.Equal(t, 0, dir.calls)
	assert.Equal(t, []models.GeoPoint{*extra, *final}, got.Points)

	got = Build(context.Background(), origin, nil, nil, dir)
	assert.Equal(t, 0, dir.calls)
	assert.False(t, got.Drawable())
}

func TestBuildNoStops(t *testing.T) {
	got := Build(context.Background(), nil, nil, nil, nil)
	assert.Empty(t, got.Points)
	assert.False(t, got.Drawable())
}

func TestRequestKey(t *testing.T) {
	a := Request{Origin: *origin, Destination: *final}
	b := a
	b.Stopover = extra
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), Request{Origin: *origin, Destination: *final}.Key())
}
