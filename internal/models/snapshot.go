package models

import (
	"encoding/json"
	"math"
)

// UnmarshalJSON reads the payload field by field. The backend is only
// partly trusted: a scalar of the wrong type decodes as absent instead of
// failing the whole snapshot.
func (s *RideSnapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = SnapshotFromMap(raw)
	return nil
}

// SnapshotFromMap coerces a decoded JSON object into a RideSnapshot.
// Strings must be strings and numbers finite numbers; anything else is nil.
// Location and driver fields are kept as-is for the geo and vehicle packages.
func SnapshotFromMap(raw map[string]any) RideSnapshot {
	s := RideSnapshot{
		Status:            optString(raw["status"]),
		ServiceType:       optString(raw["serviceType"]),
		DriverID:          optString(raw["driverId"]),
		Origin:            raw["origin"],
		Destination:       raw["destination"],
		ExtraDestination:  raw["extraDestination"],
		FinalDestination:  raw["finalDestination"],
		VehicleLocation:   raw["vehicleLocation"],
		DriverInfo:        raw["driverInfo"],
		VehicleHeading:    optNumber(raw["vehicleHeading"]),
		EstimatedDistance: optNumber(raw["estimatedDistance"]),
		EstimatedDuration: optNumber(raw["estimatedDuration"]),
		EstimatedPrice:    optNumber(raw["estimatedPrice"]),
		Progress:          optNumber(raw["progress"]),
	}
	if id := optString(raw["rideId"]); id != nil {
		s.RideID = *id
	}
	if src := optString(raw["source"]); src != nil {
		s.Source = *src
	}
	s.HasTracking, _ = raw["hasTracking"].(bool)
	return s
}

func optString(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func optNumber(v any) *float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
