package view

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/ride-tracking/internal/geo"
	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/observability"
	"github.com/example/ride-tracking/internal/progress"
	"github.com/example/ride-tracking/internal/route"
	"github.com/example/ride-tracking/internal/status"
	"github.com/example/ride-tracking/internal/tracking"
)

var ErrRideUnavailable = errors.New("ride unavailable")

const defaultUnavailableMessage = "could not load the ride information"

// UnavailableError is a well-formed response with success=false.
type UnavailableError struct {
	Code    string
	Message string
}

func (e *UnavailableError) Error() string { return e.Message }

func (e *UnavailableError) Is(target error) bool { return target == ErrRideUnavailable }

// Fetcher is the subset of tracking.Client the service needs.
type Fetcher interface {
	Fetch(ctx context.Context, rideID string, opts tracking.FetchOptions) (tracking.Response, error)
}

// Recorder receives every accepted lookup (history store, event stream).
type Recorder interface {
	Record(ctx context.Context, l models.Lookup) error
}

// Service wires the fetcher, the directions provider and the recorders.
// Directions may be nil, in which case routes are always straight lines.
type Service struct {
	Fetcher    Fetcher
	Directions route.Directions
	MapsKey    string
	Recorders  []Recorder
	Logger     *slog.Logger
}

// FetchSnapshot fetches one ride and unwraps the envelope.
func (s *Service) FetchSnapshot(ctx context.Context, rideID string) (*models.RideSnapshot, error) {
	start := time.Now()
	resp, err := s.Fetcher.Fetch(ctx, rideID, tracking.FetchOptions{})
	observability.RideFetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.RideFetchesTotal.WithLabelValues(fetchResult(err)).Inc()
		return nil, err
	}
	if !resp.Success || resp.Ride == nil {
		observability.RideFetchesTotal.WithLabelValues("unavailable").Inc()
		msg := resp.Error
		if msg == "" {
			msg = defaultUnavailableMessage
		}
		return nil, &UnavailableError{Code: resp.Code, Message: msg}
	}
	observability.RideFetchesTotal.WithLabelValues("ok").Inc()
	if resp.Ride.RideID == "" {
		resp.Ride.RideID = rideID
	}
	return resp.Ride, nil
}

// Route resolves the authoritative path for a snapshot's stops.
func (s *Service) Route(ctx context.Context, st geo.Stops) models.RoutePath {
	return route.BuildForStops(ctx, st, s.Directions)
}

// Lookup is the one-shot pipeline: fetch, route, project, record.
func (s *Service) Lookup(ctx context.Context, rideID string, labels Labels) (View, error) {
	snap, err := s.FetchSnapshot(ctx, rideID)
	if err != nil {
		return View{}, err
	}
	rt := s.Route(ctx, geo.ResolveStops(snap))
	v := Build(snap, rt, Options{Labels: labels, MapsKey: s.MapsKey})
	s.Record(ctx, snap, rt.Source)
	return v, nil
}

// Record hands an accepted snapshot to every recorder. Failures are logged
// and never reach the viewer.
func (s *Service) Record(ctx context.Context, snap *models.RideSnapshot, src models.RouteSource) {
	if len(s.Recorders) == 0 || snap == nil {
		return
	}
	l := models.Lookup{
		RideID:      snap.RideID,
		Progress:    progress.Compute(status.NormalizePtr(snap.Status), snap.Progress),
		RouteSource: src,
		HasTracking: snap.HasTracking,
		FetchedAt:   time.Now().UTC(),
	}
	if snap.Status != nil {
		l.RawStatus = *snap.Status
	}
	if st := status.NormalizePtr(snap.Status); st != nil {
		l.Status = string(*st)
	}
	for _, r := range s.Recorders {
		if err := r.Record(ctx, l); err != nil && s.Logger != nil {
			s.Logger.Warn("lookup record failed", "ride_id", l.RideID, "error", err)
		}
	}
}

func fetchResult(err error) string {
	var apiErr *tracking.APIError
	switch {
	case errors.Is(err, tracking.ErrMissingBaseURL), errors.Is(err, tracking.ErrEmptyRideID):
		return "config"
	case errors.Is(err, tracking.ErrInvalidResponse):
		return "invalid_response"
	case errors.As(err, &apiErr):
		return "http_error"
	default:
		return "network_error"
	}
}
