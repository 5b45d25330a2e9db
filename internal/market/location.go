package market

import "strings"

// CapitalRegion is the reference region all adjustment factors are
// relative to. Salary sources report capital-centric numbers.
const CapitalRegion = "bratislava"

// regionAliases maps location spellings (including diacritics-free
// variants) to canonical region codes.
var regionAliases = map[string]string{
	"bratislava":      "bratislava",
	"košice":          "kosice",
	"kosice":          "kosice",
	"žilina":          "zilina",
	"zilina":          "zilina",
	"banská bystrica": "banska-bystrica",
	"banska bystrica": "banska-bystrica",
	"prešov":          "presov",
	"presov":          "presov",
	"nitra":           "nitra",
	"eu remote":       "eu-remote",
	"remote":          "remote",
}

// regionFactors are the fixed multiplicative adjustments applied to
// capital-centric samples per secondary region.
var regionFactors = map[string]float64{
	"bratislava":      1.00,
	"kosice":          0.85,
	"zilina":          0.80,
	"banska-bystrica": 0.78,
	"presov":          0.80,
	"nitra":           0.82,
	"remote":          1.10,
	"eu-remote":       1.30,
}

// CanonicalRegion resolves a free-form location string to a canonical
// region code. Longer aliases are tried first so "eu remote" does not
// resolve as plain "remote".
func CanonicalRegion(location string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(location))
	if lower == "" {
		return "", false
	}
	if region, ok := regionAliases[lower]; ok {
		return region, true
	}

	best := ""
	bestLen := 0
	for alias, region := range regionAliases {
		if strings.Contains(lower, alias) && len(alias) > bestLen {
			best, bestLen = region, len(alias)
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// RegionFactor returns the salary adjustment for a canonical region.
// Unknown regions fall back to the capital baseline.
func RegionFactor(region string) float64 {
	if f, ok := regionFactors[region]; ok {
		return f
	}
	return 1.0
}
