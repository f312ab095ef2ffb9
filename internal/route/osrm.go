package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/ride-tracking/internal/models"
)

// OSRMClient performs route lookups against an OSRM HTTP server.
type OSRMClient struct {
	Endpoint string
	Client   *http.Client
}

func NewOSRMClient(endpoint string, timeout time.Duration) *OSRMClient {
	return &OSRMClient{Endpoint: strings.TrimRight(endpoint, "/"), Client: &http.Client{Timeout: timeout}}
}

// Route queries /route/v1/driving with every stop as a waypoint, so the
// stopover is always visited.
func (o *OSRMClient) Route(ctx context.Context, req Request) ([]models.GeoPoint, error) {
	// OSRM wants {lon},{lat};{lon},{lat}...
	coords := []models.GeoPoint{req.Origin}
	if req.Stopover != nil {
		coords = append(coords, *req.Stopover)
	}
	coords = append(coords, req.Destination)
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=polyline", o.Endpoint, strings.Join(parts, ";"))

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.Client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out struct {
		Routes []struct {
			Geometry string `json:"geometry"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return nil, fmt.Errorf("%w: osrm %v", ErrNoRoute, out.Code)
	}
	return DecodePolyline(out.Routes[0].Geometry)
}
