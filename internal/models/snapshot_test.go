package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotMistypedScalarsDecodeAsAbsent(t *testing.T) {
	payload := `{
		"rideId": 42,
		"status": 7,
		"serviceType": ["suv"],
		"progress": "87",
		"estimatedDistance": "1200",
		"estimatedDuration": {"value": 600},
		"vehicleHeading": true,
		"hasTracking": "yes",
		"origin": {"lat": 12.1, "lng": -86.25}
	}`
	var s RideSnapshot
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Empty(t, s.RideID)
	assert.Nil(t, s.Status)
	assert.Nil(t, s.ServiceType)
	assert.Nil(t, s.Progress)
	assert.Nil(t, s.EstimatedDistance)
	assert.Nil(t, s.EstimatedDuration)
	assert.Nil(t, s.VehicleHeading)
	assert.False(t, s.HasTracking)
	assert.Equal(t, map[string]any{"lat": 12.1, "lng": -86.25}, s.Origin)
}

func TestSnapshotWellTypedFields(t *testing.T) {
	payload := `{"rideId":"R1","source":"active","status":"in_progress","driverId":"d9","progress":55.5,"estimatedPrice":120,"hasTracking":true,"progress_extra":1}`
	var s RideSnapshot
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Equal(t, "R1", s.RideID)
	assert.Equal(t, "active", s.Source)
	require.NotNil(t, s.Status)
	assert.Equal(t, "in_progress", *s.Status)
	require.NotNil(t, s.DriverID)
	assert.Equal(t, "d9", *s.DriverID)
	require.NotNil(t, s.Progress)
	assert.Equal(t, 55.5, *s.Progress)
	require.NotNil(t, s.EstimatedPrice)
	assert.Equal(t, 120.0, *s.EstimatedPrice)
	assert.True(t, s.HasTracking)
}

func TestSnapshotMustBeObject(t *testing.T) {
	var s RideSnapshot
	assert.Error(t, json.Unmarshal([]byte(`"ride"`), &s))
}
