// internal/features/vector.go
package features

import (
	"fmt"
	"sort"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// Section offsets into the fixed feature vector. The layout is append-only:
// trained weights are only meaningful against the exact slot order below.
const (
	configOffset      = 0  // 16 slots: count, 8 ratios, complexity, 6 origin.
	usageOffset       = 16 // 25 slots: 5 base stats, 8 type shares, 12 property counts.
	performanceOffset = 41 // 20 slots: 4 metrics x 5 stats.
	contextOffset     = 61 // 17 slots: 6 archetype, 4 devices, 3 scores, 4 industry.
	reservedOffset    = 78 // Zero-padded tail up to FeatureVectorSize.
)

// typeShareSlots and propertyCountSlots bound the map-derived sections to a
// fixed width. Entries are ranked by value descending with name ascending as
// the tie-break, so identical feature records always flatten identically.
const (
	typeShareSlots     = 8
	propertyCountSlots = 12
)

// Vector flattens a feature record into exactly
// schemas.FeatureVectorSize numbers in the fixed section order. Unused
// capacity is zero-padded. The flattening is deterministic: the same record
// always yields the same vector regardless of map iteration order.
func Vector(f *schemas.ModelFeatures) []float64 {
	vec := make([]float64, schemas.FeatureVectorSize)
	if f == nil {
		return vec
	}

	// -- Config section --
	i := configOffset
	vec[i] = float64(f.Config.BreakpointCount)
	i++
	for _, r := range f.Config.BreakpointRatios {
		vec[i] = r
		i++
	}
	vec[i] = f.Config.TokenComplexity
	i++
	for _, v := range f.Config.OriginDistribution {
		vec[i] = v
		i++
	}

	// -- Usage section --
	i = usageOffset
	i = putSummary(vec, i, f.Usage.BaseValues)
	shares := rankedValues(f.Usage.TypeShares, typeShareSlots)
	for _, v := range shares {
		vec[i] = v
		i++
	}
	counts := rankedStringValues(f.Usage.PropertyCounts, propertyCountSlots)
	for _, v := range counts {
		vec[i] = v
		i++
	}

	// -- Performance section --
	i = performanceOffset
	i = putSummary(vec, i, f.Performance.RenderTime)
	i = putSummary(vec, i, f.Performance.BundleSize)
	i = putSummary(vec, i, f.Performance.Memory)
	i = putSummary(vec, i, f.Performance.LayoutShift)

	// -- Context section --
	i = contextOffset
	for _, arch := range schemas.Archetypes {
		if f.Context.Archetype == arch {
			vec[i] = 1
		}
		i++
	}
	vec[i] = f.Context.Devices.Desktop
	i++
	vec[i] = f.Context.Devices.Tablet
	i++
	vec[i] = f.Context.Devices.Mobile
	i++
	vec[i] = f.Context.Devices.Other
	i++
	vec[i] = f.Context.Engagement
	i++
	vec[i] = f.Context.Accessibility
	i++
	vec[i] = f.Context.Performance
	i++
	for _, label := range industries {
		if f.Context.Industry == label {
			vec[i] = 1
		}
		i++
	}

	return vec
}

// VectorNames returns the stable name of every vector slot, in slot order.
// The names pair with explanation output; they never depend on the data
// being flattened.
func VectorNames() []string {
	names := make([]string, 0, schemas.FeatureVectorSize)

	names = append(names, "config.breakpointCount")
	for i := 0; i < schemas.BreakpointRatioSlots; i++ {
		names = append(names, fmt.Sprintf("config.breakpointRatio.%d", i))
	}
	names = append(names, "config.tokenComplexity")
	for _, axis := range schemas.OriginAxes {
		names = append(names, "config.origin."+string(axis))
	}

	names = appendSummaryNames(names, "usage.baseValue")
	for i := 0; i < typeShareSlots; i++ {
		names = append(names, fmt.Sprintf("usage.typeShare.%d", i))
	}
	for i := 0; i < propertyCountSlots; i++ {
		names = append(names, fmt.Sprintf("usage.propertyCount.%d", i))
	}

	names = appendSummaryNames(names, "perf.renderTime")
	names = appendSummaryNames(names, "perf.bundleSize")
	names = appendSummaryNames(names, "perf.memory")
	names = appendSummaryNames(names, "perf.layoutShift")

	for _, arch := range schemas.Archetypes {
		names = append(names, "context.archetype."+string(arch))
	}
	names = append(names,
		"context.device.desktop",
		"context.device.tablet",
		"context.device.mobile",
		"context.device.other",
		"context.engagement",
		"context.accessibility",
		"context.performance",
	)
	for _, label := range industries {
		names = append(names, "context.industry."+label)
	}

	for i := len(names); i < schemas.FeatureVectorSize; i++ {
		names = append(names, fmt.Sprintf("reserved.%d", i))
	}
	return names
}

func putSummary(vec []float64, i int, s schemas.ValueSummary) int {
	vec[i] = s.Mean
	vec[i+1] = s.Median
	vec[i+2] = s.Min
	vec[i+3] = s.Max
	vec[i+4] = s.StdDev
	return i + 5
}

func appendSummaryNames(names []string, prefix string) []string {
	return append(names,
		prefix+".mean",
		prefix+".median",
		prefix+".min",
		prefix+".max",
		prefix+".stdDev",
	)
}

// rankedValues flattens a component-type map into a fixed number of slots,
// highest value first, name ascending on ties.
func rankedValues(m map[schemas.ComponentType]float64, slots int) []float64 {
	type entry struct {
		name  string
		value float64
	}
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		entries = append(entries, entry{string(k), v})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].value != entries[b].value {
			return entries[a].value > entries[b].value
		}
		return entries[a].name < entries[b].name
	})

	out := make([]float64, slots)
	for i := 0; i < slots && i < len(entries); i++ {
		out[i] = entries[i].value
	}
	return out
}

// rankedStringValues is rankedValues for string-keyed maps.
func rankedStringValues(m map[string]float64, slots int) []float64 {
	type entry struct {
		name  string
		value float64
	}
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		entries = append(entries, entry{k, v})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].value != entries[b].value {
			return entries[a].value > entries[b].value
		}
		return entries[a].name < entries[b].name
	})

	out := make([]float64, slots)
	for i := 0; i < slots && i < len(entries); i++ {
		out[i] = entries[i].value
	}
	return out
}
