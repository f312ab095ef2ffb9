// Package vehicle derives a marker icon hint from the driver info blob.
package vehicle

import (
	"sort"
	"strings"
)

const (
	Sedan       = "sedan"
	SUV         = "suv"
	Van         = "van"
	Pickup      = "pickup"
	Convertible = "convertible"
)

var synonyms = map[string]string{
	"pickup":       Pickup,
	"pick-up":      Pickup,
	"pickup truck": Pickup,
	"camioneta":    Pickup,
	"4x4":          Pickup,
	"suv":          SUV,
	"crossover":    SUV,
	"jeep":         SUV,
	"van":          Van,
	"minivan":      Van,
	"microbus":     Van,
	"microbús":     Van,
	"sedan":        Sedan,
	"saloon":       Sedan,
	"car":          Sedan,
	"auto":         Sedan,
	"automóvil":    Sedan,
	"carro":        Sedan,
	"coche":        Sedan,
	"coupe":        Convertible,
	"coupé":        Convertible,
	"convertible":  Convertible,
	"cabrio":       Convertible,
}

// substring heuristics, checked in order after the synonym table misses
var contains = []struct {
	kind  string
	parts []string
}{
	{Pickup, []string{"pickup", "truck"}},
	{SUV, []string{"suv", "crossover"}},
	{Van, []string{"van", "bus"}},
	{Convertible, []string{"convert", "cabrio", "coupe"}},
	{Sedan, []string{"sedan", "saloon", "car"}},
}

// Normalize maps a free-form vehicle type onto a known kind. Unknown but
// non-blank input is returned lower-cased; blank input returns "".
func Normalize(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return ""
	}
	if k, ok := synonyms[lower]; ok {
		return k
	}
	for _, c := range contains {
		for _, p := range c.parts {
			if strings.Contains(lower, p) {
				return c.kind
			}
		}
	}
	return lower
}

// FromDriverInfo looks for the active vehicle's type in a driver info object.
func FromDriverInfo(info any) string {
	obj, ok := info.(map[string]any)
	if !ok {
		return ""
	}
	candidates := []any{
		nestedType(obj["currentVehicle"]),
		nestedType(obj["activeVehicle"]),
		nestedType(obj["vehicle"]),
		obj["vehicleType"],
		nestedType(obj["active_vehicle"]),
	}
	switch vs := obj["vehicles"].(type) {
	case []any:
		for _, v := range vs {
			if isActive(v) {
				candidates = append(candidates, nestedType(v))
				break
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(vs))
		for k := range vs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if isActive(vs[k]) {
				candidates = append(candidates, nestedType(vs[k]))
			}
		}
	}
	for _, c := range candidates {
		if s, ok := c.(string); ok {
			if n := Normalize(s); n != "" {
				return n
			}
		}
	}
	return ""
}

// Resolve prefers the driver info hint and falls back to the service type.
func Resolve(driverInfo any, serviceType *string) string {
	if t := FromDriverInfo(driverInfo); t != "" {
		return t
	}
	if serviceType != nil {
		return strings.TrimSpace(*serviceType)
	}
	return ""
}

func nestedType(v any) any {
	if m, ok := v.(map[string]any); ok {
		return m["type"]
	}
	return nil
}

func isActive(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	a, _ := m["is_active"].(bool)
	b, _ := m["isActive"].(bool)
	return a || b
}
