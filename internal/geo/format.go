package geo

import (
	"strconv"

	"github.com/example/ride-tracking/internal/models"
)

// FormatPoint renders "lat,lng" with six decimals, the form map APIs accept.
func FormatPoint(p models.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
