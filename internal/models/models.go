package models

import "time"

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TripStatus is the closed set of client-facing trip stages.
type TripStatus string

const (
	StatusDriverOnWay    TripStatus = "driver_on_way"
	StatusDriverArrived  TripStatus = "driver_arrived"
	StatusInProgress     TripStatus = "in_progress"
	StatusPendingPayment TripStatus = "pending_payment"
	StatusCompleted      TripStatus = "completed"
	StatusCanceled       TripStatus = "canceled"
)

// RideSnapshot is the public payload returned by getPublicRideTracking.
// Location fields are left loosely typed; the geo package turns them into
// GeoPoints and nothing past it should look at the raw shape.
type RideSnapshot struct {
	RideID            string   `json:"rideId"`
	Source            string   `json:"source,omitempty"` // active, completed
	Status            *string  `json:"status"`
	ServiceType       *string  `json:"serviceType,omitempty"`
	Origin            any      `json:"origin,omitempty"`
	Destination       any      `json:"destination,omitempty"`
	ExtraDestination  any      `json:"extraDestination,omitempty"`
	FinalDestination  any      `json:"finalDestination,omitempty"`
	VehicleLocation   any      `json:"vehicleLocation,omitempty"`
	DriverID          *string  `json:"driverId,omitempty"`
	DriverInfo        any      `json:"driverInfo,omitempty"`
	VehicleHeading    *float64 `json:"vehicleHeading,omitempty"`
	EstimatedDistance *float64 `json:"estimatedDistance,omitempty"` // meters
	EstimatedDuration *float64 `json:"estimatedDuration,omitempty"` // seconds
	EstimatedPrice    *float64 `json:"estimatedPrice,omitempty"`
	Progress          *float64 `json:"progress"` // 0..100
	HasTracking       bool     `json:"hasTracking"`
}

type MarkerKind string

const (
	MarkerOrigin  MarkerKind = "origin"
	MarkerExtra   MarkerKind = "extra"
	MarkerFinal   MarkerKind = "final"
	MarkerVehicle MarkerKind = "vehicle"
)

type MapMarker struct {
	Position GeoPoint   `json:"position"`
	Kind     MarkerKind `json:"kind"`
}

type RouteSource string

const (
	RouteDirections   RouteSource = "directions"
	RouteStraightLine RouteSource = "straight_line"
)

// RoutePath is the single authoritative polyline for a snapshot.
type RoutePath struct {
	Source RouteSource `json:"source"`
	Points []GeoPoint  `json:"points"`
}

// Drawable reports whether the path has enough points to render as a line.
func (p RoutePath) Drawable() bool { return len(p.Points) >= 2 }

// Lookup is the record kept for every accepted ride snapshot.
type Lookup struct {
	RideID      string      `json:"rideId"`
	RawStatus   string      `json:"rawStatus"`
	Status      string      `json:"status"` // normalized, empty when unknown
	Progress    float64     `json:"progress"`
	RouteSource RouteSource `json:"routeSource"`
	HasTracking bool        `json:"hasTracking"`
	FetchedAt   time.Time   `json:"fetchedAt"`
}
