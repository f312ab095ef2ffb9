package route

import (
	"errors"
	"math"

	"googlemaps.github.io/maps"

	"github.com/example/ride-tracking/internal/models"
)

// Encoded Polyline Algorithm Format, precision 1e5. Google and OSRM
// (geometries=polyline) both return route geometry this way.

var ErrBadPolyline = errors.New("polyline: truncated or invalid input")

// DecodePolyline decodes an encoded polyline into points.
func DecodePolyline(s string) ([]models.GeoPoint, error) {
	ll, err := maps.DecodePolyline(s)
	return checked(s, ll, err)
}

// checked rejects input the decoder would cut short silently.
func checked(s string, ll []maps.LatLng, err error) ([]models.GeoPoint, error) {
	if err != nil {
		return nil, errors.Join(ErrBadPolyline, err)
	}
	if !wellFormed(s) {
		return nil, ErrBadPolyline
	}
	out := make([]models.GeoPoint, len(ll))
	for i, p := range ll {
		out[i] = models.GeoPoint{Lat: p.Lat, Lng: p.Lng}
	}
	return out, nil
}

// wellFormed reports whether every byte is in the alphabet and the
// terminated chunks pair up into whole points.
func wellFormed(s string) bool {
	ends := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 63 || c > 126 {
			return false
		}
		if c-63 < 0x20 {
			ends++
		}
	}
	return ends%2 == 0 && (s == "" || s[len(s)-1]-63 < 0x20)
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(points []models.GeoPoint) string {
	ll := make([]maps.LatLng, len(points))
	for i, p := range points {
		ll[i] = maps.LatLng{Lat: snap(p.Lat), Lng: snap(p.Lng)}
	}
	return maps.Encode(ll)
}

// snap moves x to its nearest 1e-5 step plus a quarter step away from zero,
// so the encoder's integer conversion lands on that step.
func snap(x float64) float64 {
	v := math.Round(x * 1e5)
	return (v + math.Copysign(0.25, v)) / 1e5
}
