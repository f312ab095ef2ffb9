package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"  ":           "",
		"Camioneta":    Pickup,
		"4x4":          Pickup,
		"Ford Truck":   Pickup,
		"Jeep":         SUV,
		"Microbús":     Van,
		"school bus":   Van,
		"Coupé":        Convertible,
		"Sports Coupe": Convertible,
		"carro":        Sedan,
		"Compact Car":  Sedan,
		"Motorcycle":   "motorcycle",
		" TukTuk ":     "tuktuk",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "in=%q", in)
	}
}

func TestFromDriverInfoCandidateOrder(t *testing.T) {
	info := map[string]any{
		"vehicle":        map[string]any{"type": "van"},
		"currentVehicle": map[string]any{"type": "suv"},
	}
	assert.Equal(t, SUV, FromDriverInfo(info))

	assert.Equal(t, Pickup, FromDriverInfo(map[string]any{"vehicleType": "camioneta"}))
}

func TestFromDriverInfoActiveVehicleList(t *testing.T) {
	info := map[string]any{
		"vehicles": []any{
			map[string]any{"type": "van", "is_active": false},
			map[string]any{"type": "sedan", "isActive": true},
		},
	}
	assert.Equal(t, Sedan, FromDriverInfo(info))

	byID := map[string]any{
		"vehicles": map[string]any{
			"a": map[string]any{"type": "cabrio", "is_active": true},
		},
	}
	assert.Equal(t, Convertible, FromDriverInfo(byID))
}

func TestFromDriverInfoMissing(t *testing.T) {
	assert.Equal(t, "", FromDriverInfo(nil))
	assert.Equal(t, "", FromDriverInfo("sedan"))
	assert.Equal(t, "", FromDriverInfo(map[string]any{"vehicle": map[string]any{"type": 3}}))
}

func TestResolveFallsBackToServiceType(t *testing.T) {
	svc := "premium"
	assert.Equal(t, "premium", Resolve(nil, &svc))
	assert.Equal(t, SUV, Resolve(map[string]any{"vehicleType": "suv"}, &svc))
	assert.Equal(t, "", Resolve(nil, nil))
}
