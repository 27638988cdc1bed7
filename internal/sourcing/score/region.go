package score

import "strings"

// Region lookups used by the proxy maturity path.
var (
	regionReputation = map[string]float64{
		"US": 0.85,
		"EU": 0.85,
		"DE": 0.87,
		"JP": 0.88,
		"KR": 0.82,
		"TW": 0.80,
		"MX": 0.72,
		"IN": 0.70,
		"CN": 0.70,
		"VN": 0.68,
	}

	geopoliticalAlignment = map[string]float64{
		"US": 1.0,
		"EU": 0.95,
		"DE": 0.95,
		"JP": 0.95,
		"KR": 0.92,
		"TW": 0.85,
		"MX": 0.85,
		"IN": 0.80,
		"VN": 0.70,
		"CN": 0.50,
	}
)

const (
	defaultRegionReputation      = 0.65
	defaultGeopoliticalAlignment = 0.6
)

// RegionReputation returns the reputation factor for a region code.
func RegionReputation(region string) float64 {
	if v, ok := regionReputation[strings.ToUpper(strings.TrimSpace(region))]; ok {
		return v
	}
	return defaultRegionReputation
}

// GeopoliticalAlignment returns the alignment factor for a region code.
func GeopoliticalAlignment(region string) float64 {
	if v, ok := geopoliticalAlignment[strings.ToUpper(strings.TrimSpace(region))]; ok {
		return v
	}
	return defaultGeopoliticalAlignment
}
