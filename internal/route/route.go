package route

import (
	"context"
	"errors"

	"github.com/example/ride-tracking/internal/geo"
	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/observability"
)

// Request asks a provider for a driving route. Stopover, when set, is a
// required intermediate stop rather than a via-point.
type Request struct {
	Origin      models.GeoPoint
	Destination models.GeoPoint
	Stopover    *models.GeoPoint
}

// Key identifies the request for caching and call coalescing.
func (r Request) Key() string {
	k := geo.FormatPoint(r.Origin) + "|" + geo.FormatPoint(r.Destination)
	if r.Stopover != nil {
		k += "|" + geo.FormatPoint(*r.Stopover)
	}
	return k
}

// Directions is a road-following route provider.
type Directions interface {
	Route(ctx context.Context, req Request) ([]models.GeoPoint, error)
}

var ErrNoRoute = errors.New("directions: no route")

// Build returns the path to draw for the given stops. The provider result is
// used only when both endpoints are known and the call succeeds with a
// drawable path; otherwise the straight line through the known stops is
// returned. The two are never combined.
func Build(ctx context.Context, origin, extra, final *models.GeoPoint, dir Directions) models.RoutePath {
	fallback := StraightLine(origin, extra, final)
	if dir == nil || origin == nil || final == nil {
		return fallback
	}
	req := Request{Origin: *origin, Destination: *final, Stopover: extra}
	pts, err := dir.Route(ctx, req)
	if err != nil || len(pts) < 2 {
		observability.DirectionsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}
	observability.DirectionsTotal.WithLabelValues("provider").Inc()
	return models.RoutePath{Source: models.RouteDirections, Points: pts}
}

// BuildForStops is Build over resolved snapshot stops.
func BuildForStops(ctx context.Context, st geo.Stops, dir Directions) models.RoutePath {
	return Build(ctx, st.Origin, st.Extra, st.Final, dir)
}

// StraightLine connects origin, extra and final, skipping unknown stops.
func StraightLine(origin, extra, final *models.GeoPoint) models.RoutePath {
	st := geo.Stops{Origin: origin, Extra: extra, Final: final}
	return models.RoutePath{Source: models.RouteStraightLine, Points: st.Path()}
}
