package view

import (
	"net/url"
	"strings"

	"github.com/example/ride-tracking/internal/geo"
	"github.com/example/ride-tracking/internal/models"
)

const staticMapEndpoint = "https://maps.googleapis.com/maps/api/staticmap"

var markerStyle = map[models.MarkerKind]string{
	models.MarkerOrigin:  "color:0x4FC3F7|label:O|",
	models.MarkerExtra:   "color:0xFBC02D|label:E|",
	models.MarkerFinal:   "color:0x66BB6A|label:D|",
	models.MarkerVehicle: "color:0xFFFFFF|label:V|",
}

// StaticMapURL builds a Google Static Maps image URL for the stops. It is
// empty without an API key or without any resolvable point.
func StaticMapURL(st geo.Stops, apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	center, ok := st.Center()
	if apiKey == "" || !ok {
		return ""
	}
	params := []string{
		"size=640x360",
		"scale=2",
		"maptype=roadmap",
		"center=" + geo.FormatPoint(center),
		"zoom=14",
	}
	for _, m := range []struct {
		p    *models.GeoPoint
		kind models.MarkerKind
	}{
		{st.Origin, models.MarkerOrigin},
		{st.Extra, models.MarkerExtra},
		{st.Final, models.MarkerFinal},
		{st.Vehicle, models.MarkerVehicle},
	} {
		if m.p != nil {
			params = append(params, "markers="+url.QueryEscape(markerStyle[m.kind]+geo.FormatPoint(*m.p)))
		}
	}
	params = append(params, "key="+url.QueryEscape(apiKey))
	return staticMapEndpoint + "?" + strings.Join(params, "&")
}
