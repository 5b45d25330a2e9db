// Package market aggregates salary statistics from multiple sources into
// one comparable distribution per role family and region.
package market

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Confidence qualifies an aggregated estimate.
type Confidence string

const (
	ConfidenceNone Confidence = "none"
	ConfidenceLow  Confidence = "low"
	ConfidenceHigh Confidence = "high"
)

// Sample is one salary observation set from a named source. A source
// reports either raw salary points or pre-bucketed percentiles, never
// both. Samples are immutable after ingestion.
type Sample struct {
	Source     string `json:"source" yaml:"source"`
	Location   string `json:"location" yaml:"location"`
	RoleFamily string `json:"role_family" yaml:"role_family"`
	// Points are raw monthly gross observations.
	Points []float64 `json:"points,omitempty" yaml:"points"`
	// Percentiles are pre-bucketed estimates keyed by percentile
	// (e.g. 25, 50, 75). min and max may arrive as 0 and 100.
	Percentiles map[int]float64 `json:"percentiles,omitempty" yaml:"percentiles"`
	// DataPoints is the source-reported observation count behind a
	// bucketed sample.
	DataPoints  int       `json:"data_points,omitempty" yaml:"data_points"`
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`
}

// Summary is the aggregated salary distribution for one query.
type Summary struct {
	RoleFamily  string     `json:"role_family"`
	Region      string     `json:"region"`
	Min         float64    `json:"min"`
	P25         float64    `json:"p25"`
	Median      float64    `json:"median"`
	P75         float64    `json:"p75"`
	Max         float64    `json:"max"`
	SampleCount int        `json:"sample_count"`
	Sources     []string   `json:"sources,omitempty"`
	Confidence  Confidence `json:"confidence"`
}

// canonicalGrid is the percentile grid every representation is
// normalized onto.
var canonicalGrid = [5]int{0, 25, 50, 75, 100}

// Aggregator combines samples into summaries. Stale samples are excluded
// before aggregation so an empty window reports no data instead of old
// numbers.
type Aggregator struct {
	minSamples int
	maxAge     time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

const (
	// DefaultMinSamples is the sample count below which confidence is low.
	DefaultMinSamples = 5
	// DefaultMaxSampleAge is the staleness cutoff.
	DefaultMaxSampleAge = 90 * 24 * time.Hour
)

func NewAggregator(minSamples int, maxAge time.Duration, logger *zap.Logger) *Aggregator {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxSampleAge
	}
	return &Aggregator{
		minSamples: minSamples,
		maxAge:     maxAge,
		logger:     logger,
		now:        time.Now,
	}
}

// Aggregate combines all fresh samples matching the role family and
// location into one distribution summary. Capital-centric samples are
// adjusted by the region factor before aggregation. A window with zero
// fresh samples yields a summary with Confidence none and no numbers.
func (a *Aggregator) Aggregate(roleFamily, location string, samples []Sample) *Summary {
	region, ok := CanonicalRegion(location)
	if !ok {
		region = CapitalRegion
	}

	summary := &Summary{
		RoleFamily: roleFamily,
		Region:     region,
		Confidence: ConfidenceNone,
	}

	cutoff := a.now().Add(-a.maxAge)
	var estimates []estimate
	stale := 0

	for _, sample := range samples {
		if !strings.EqualFold(sample.RoleFamily, roleFamily) {
			continue
		}

		sampleRegion, ok := CanonicalRegion(sample.Location)
		if !ok {
			sampleRegion = CapitalRegion
		}
		if sampleRegion != region && sampleRegion != CapitalRegion {
			continue
		}

		if sample.CollectedAt.Before(cutoff) {
			stale++
			if a.logger != nil {
				a.logger.Debug("excluding stale market sample",
					zap.String("source", sample.Source),
					zap.String("role_family", sample.RoleFamily),
					zap.Time("collected_at", sample.CollectedAt),
				)
			}
			continue
		}

		est, ok := normalize(sample)
		if !ok {
			continue
		}

		// Capital samples answering a secondary-region query are
		// scaled down (or up, for remote) before pooling.
		if sampleRegion == CapitalRegion && region != CapitalRegion {
			factor := RegionFactor(region)
			for i := range est.grid {
				est.grid[i] *= factor
			}
		}

		estimates = append(estimates, est)
	}

	if len(estimates) == 0 {
		if a.logger != nil {
			a.logger.Warn("no fresh market samples",
				zap.String("role_family", roleFamily),
				zap.String("region", region),
				zap.Int("stale_excluded", stale),
			)
		}
		return summary
	}

	// Weighted average per percentile across sources.
	var pooled [5]float64
	var totalWeight float64
	sources := make(map[string]struct{})

	for _, est := range estimates {
		weight := float64(est.count)
		totalWeight += weight
		for i := range pooled {
			pooled[i] += est.grid[i] * weight
		}
		summary.SampleCount += est.count
		sources[est.source] = struct{}{}
	}
	for i := range pooled {
		pooled[i] /= totalWeight
	}

	summary.Min = pooled[0]
	summary.P25 = pooled[1]
	summary.Median = pooled[2]
	summary.P75 = pooled[3]
	summary.Max = pooled[4]

	for source := range sources {
		summary.Sources = append(summary.Sources, source)
	}
	sort.Strings(summary.Sources)

	if summary.SampleCount < a.minSamples || len(summary.Sources) < 2 {
		summary.Confidence = ConfidenceLow
	} else {
		summary.Confidence = ConfidenceHigh
	}

	return summary
}

type estimate struct {
	source string
	grid   [5]float64
	count  int
}

// normalize projects a sample onto the canonical percentile grid. Raw
// points use empirical quantiles; bucketed sources are linearly
// interpolated between their known percentile points.
func normalize(sample Sample) (estimate, bool) {
	if len(sample.Points) > 0 {
		points := append([]float64(nil), sample.Points...)
		sort.Float64s(points)

		var grid [5]float64
		for i, p := range canonicalGrid {
			grid[i] = quantile(points, float64(p)/100)
		}
		return estimate{source: sample.Source, grid: grid, count: len(points)}, true
	}

	if len(sample.Percentiles) > 0 {
		known := make([]int, 0, len(sample.Percentiles))
		for p := range sample.Percentiles {
			known = append(known, p)
		}
		sort.Ints(known)

		var grid [5]float64
		for i, p := range canonicalGrid {
			grid[i] = interpolate(sample.Percentiles, known, p)
		}

		count := sample.DataPoints
		if count <= 0 {
			count = len(sample.Percentiles)
		}
		return estimate{source: sample.Source, grid: grid, count: count}, true
	}

	return estimate{}, false
}

// quantile computes the empirical quantile of sorted points with linear
// interpolation between observations.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}

// interpolate estimates the value at percentile p from known percentile
// points, clamping beyond the known range.
func interpolate(values map[int]float64, known []int, p int) float64 {
	if v, ok := values[p]; ok {
		return v
	}
	if p <= known[0] {
		return values[known[0]]
	}
	if p >= known[len(known)-1] {
		return values[known[len(known)-1]]
	}

	for i := 1; i < len(known); i++ {
		if p < known[i] {
			lo, hi := known[i-1], known[i]
			frac := float64(p-lo) / float64(hi-lo)
			return values[lo]*(1-frac) + values[hi]*frac
		}
	}
	return values[known[len(known)-1]]
}
