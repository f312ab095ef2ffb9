package geo

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/example/ride-tracking/internal/models"
)

// DefaultCenter is used when a snapshot has no resolvable point (Managua).
var DefaultCenter = models.GeoPoint{Lat: 12.136389, Lng: -86.251389}

// coordinate field conventions, tried in order
var conventions = [][2]string{
	{"latitude", "longitude"},
	{"lat", "lng"},
}

var labelFields = []string{"title", "name", "label", "address", "formattedAddress", "description"}

// ResolveLocation extracts a point from a loosely shaped location object.
// The first convention with both fields numeric wins. A convention with only
// one usable half poisons the whole location, which then resolves to nil.
func ResolveLocation(raw any) *models.GeoPoint {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	for _, c := range conventions {
		p, present := pair(obj, c[0], c[1])
		if p != nil || present {
			return p
		}
	}
	if nested, ok := obj["location"].(map[string]any); ok {
		p, _ := pair(nested, "lat", "lng")
		return p
	}
	return nil
}

// pair reads a lat/lng pair. present is true when at least one half is non-null.
func pair(obj map[string]any, latKey, lngKey string) (p *models.GeoPoint, present bool) {
	rawLat, rawLng := obj[latKey], obj[lngKey]
	if rawLat == nil && rawLng == nil {
		return nil, false
	}
	lat, okLat := number(rawLat)
	lng, okLng := number(rawLng)
	if !okLat || !okLng {
		return nil, true
	}
	return &models.GeoPoint{Lat: lat, Lng: lng}, true
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ResolveLabel returns the first non-blank label-like field, else fallback.
func ResolveLabel(raw any, fallback string) string {
	obj, ok := raw.(map[string]any)
	if !ok {
		return fallback
	}
	for _, k := range labelFields {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fallback
}

// Stops are the resolved stop points of one snapshot.
type Stops struct {
	Origin  *models.GeoPoint
	Extra   *models.GeoPoint
	Final   *models.GeoPoint
	Vehicle *models.GeoPoint
}

// ResolveStops resolves every point of a snapshot independently.
// The final stop prefers finalDestination and falls back to destination.
func ResolveStops(s *models.RideSnapshot) Stops {
	if s == nil {
		return Stops{}
	}
	final := ResolveLocation(s.FinalDestination)
	if final == nil {
		final = ResolveLocation(s.Destination)
	}
	return Stops{
		Origin:  ResolveLocation(s.Origin),
		Extra:   ResolveLocation(s.ExtraDestination),
		Final:   final,
		Vehicle: ResolveLocation(s.VehicleLocation),
	}
}

// FinalLabel resolves the final stop label with the same preference as ResolveStops.
func FinalLabel(s *models.RideSnapshot, fallback string) string {
	if s == nil {
		return fallback
	}
	if l := ResolveLabel(s.FinalDestination, ""); l != "" {
		return l
	}
	return ResolveLabel(s.Destination, fallback)
}

// Center picks vehicle, origin, final, extra in that order.
func (st Stops) Center() (models.GeoPoint, bool) {
	for _, p := range []*models.GeoPoint{st.Vehicle, st.Origin, st.Final, st.Extra} {
		if p != nil {
			return *p, true
		}
	}
	return DefaultCenter, false
}

// Path is the straight-line sequence through the known stops.
func (st Stops) Path() []models.GeoPoint {
	out := make([]models.GeoPoint, 0, 3)
	for _, p := range []*models.GeoPoint{st.Origin, st.Extra, st.Final} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Key identifies the stop set; it changes whenever origin, extra or final do.
func (st Stops) Key() string {
	var b strings.Builder
	for _, p := range []*models.GeoPoint{st.Origin, st.Extra, st.Final} {
		if p == nil {
			b.WriteString("-;")
			continue
		}
		b.WriteString(FormatPoint(*p))
		b.WriteByte(';')
	}
	return b.String()
}

type MarkerSet struct {
	Center  models.GeoPoint    `json:"center"`
	Markers []models.MapMarker `json:"markers"`
}

// BuildMarkerSet computes the map center and markers for a snapshot.
func BuildMarkerSet(s *models.RideSnapshot) MarkerSet {
	st := ResolveStops(s)
	center, _ := st.Center()
	markers := make([]models.MapMarker, 0, 4)
	add := func(p *models.GeoPoint, k models.MarkerKind) {
		if p != nil {
			markers = append(markers, models.MapMarker{Position: *p, Kind: k})
		}
	}
	add(st.Origin, models.MarkerOrigin)
	add(st.Extra, models.MarkerExtra)
	add(st.Final, models.MarkerFinal)
	add(st.Vehicle, models.MarkerVehicle)
	return MarkerSet{Center: center, Markers: markers}
}

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// PathLength sums the haversine length of consecutive segments.
func PathLength(points []models.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		total += Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
	}
	return total
}
