package route

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"googlemaps.github.io/maps"

	"github.com/example/ride-tracking/internal/geo"
	"github.com/example/ride-tracking/internal/models"
)

// GoogleClient queries the Google Directions web service in driving mode.
type GoogleClient struct {
	client *maps.Client
}

// NewGoogleClient builds a client for key. Extra options, such as
// maps.WithBaseURL, are applied after the key and timeout.
func NewGoogleClient(key string, timeout time.Duration, opts ...maps.ClientOption) (*GoogleClient, error) {
	base := []maps.ClientOption{
		maps.WithAPIKey(key),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	c, err := maps.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("google directions: %w", err)
	}
	return &GoogleClient{client: c}, nil
}

func (g *GoogleClient) Route(ctx context.Context, req Request) ([]models.GeoPoint, error) {
	dr := &maps.DirectionsRequest{
		Origin:      geo.FormatPoint(req.Origin),
		Destination: geo.FormatPoint(req.Destination),
		Mode:        maps.TravelModeDriving,
	}
	if req.Stopover != nil {
		// a plain waypoint is a stopover; "via:" would only shape the route
		dr.Waypoints = []string{geo.FormatPoint(*req.Stopover)}
	}
	routes, _, err := g.client.Directions(ctx, dr)
	if err != nil {
		return nil, fmt.Errorf("google directions: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: google returned no routes", ErrNoRoute)
	}
	line := routes[0].OverviewPolyline
	pts, err := line.Decode()
	return checked(line.Points, pts, err)
}
