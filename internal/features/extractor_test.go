// internal/features/extractor_test.go
package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// -- Test Fixtures --

func testConfig() *schemas.ResponsiveConfig {
	return &schemas.ResponsiveConfig{
		Base: schemas.Viewport{Width: 1280, Height: 800},
		Breakpoints: []schemas.Breakpoint{
			{Name: "xs", Width: 320, Height: 568},
			{Name: "sm", Width: 640, Height: 800},
			{Name: "md", Width: 768, Height: 1024},
			{Name: "lg", Width: 1024, Height: 768},
			{Name: "xl", Width: 1280, Height: 800},
		},
		Strategy: schemas.ScalingStrategy{
			Origin: schemas.OriginWidth,
			Mode:   schemas.InterpolationLinear,
			Tokens: map[string]schemas.ScalingToken{
				"fontSize": {Scale: 1.0, Min: 12, Max: 24, Step: 0.5, Unit: "px"},
				"spacing":  {Scale: 1.0, Min: 4, Max: 32, Step: 2, Unit: "px"},
			},
			Accessibility: schemas.AccessibilityConfig{MinFontSize: 12, MinTapTarget: 44},
			Rounding:      schemas.RoundingConfig{Mode: schemas.RoundNearest},
		},
	}
}

func usageRecord(id string, typ schemas.ComponentType, position string, renderMS float64) schemas.ComponentUsageData {
	rt := renderMS
	return schemas.ComponentUsageData{
		ComponentID:   id,
		ComponentType: typ,
		Properties: []schemas.PropertyUsage{
			{
				Property:  "font-size",
				Token:     "fontSize",
				BaseValue: 16,
				ResponsiveValues: map[string]float64{
					"sm": 14,
					"lg": 18,
				},
				UsageFrequency: 0.8,
			},
		},
		Performance: schemas.PerformanceSnapshot{RenderTimeMS: &rt},
		Interaction: schemas.InteractionSnapshot{
			InteractionRate:    0.5,
			AvgViewTimeMS:      1200,
			ScrollBehavior:     schemas.ScrollFlow,
			AccessibilityScore: 0.9,
		},
		Context: schemas.StructuralContext{
			ChildCount:     2,
			LayoutPosition: position,
			Importance:     schemas.ImportancePrimary,
		},
	}
}

// -- Config Features --

func TestExtractConfigFeatures(t *testing.T) {
	e := New(zaptest.NewLogger(t))
	f := e.Extract(testConfig(), nil)

	assert.Equal(t, 5, f.Config.BreakpointCount)
	assert.InDelta(t, 0.25, f.Config.BreakpointRatios[0], 1e-9)
	assert.InDelta(t, 0.50, f.Config.BreakpointRatios[1], 1e-9)
	assert.InDelta(t, 0.60, f.Config.BreakpointRatios[2], 1e-9)
	assert.InDelta(t, 0.80, f.Config.BreakpointRatios[3], 1e-9)
	assert.InDelta(t, 1.00, f.Config.BreakpointRatios[4], 1e-9)

	// Trailing slots pad with the neutral ratio.
	assert.Equal(t, 1.0, f.Config.BreakpointRatios[5])
	assert.Equal(t, 1.0, f.Config.BreakpointRatios[6])
	assert.Equal(t, 1.0, f.Config.BreakpointRatios[7])

	assert.Equal(t, 8.0, f.Config.TokenComplexity, "two tokens at a weight of four each")

	assert.Equal(t, 1.0, f.Config.OriginDistribution[0], "width axis should be hot")
	for i := 1; i < len(f.Config.OriginDistribution); i++ {
		assert.Zero(t, f.Config.OriginDistribution[i], "axis slot %d should be cold", i)
	}
}

func TestExtractTruncatesExtraBreakpoints(t *testing.T) {
	cfg := testConfig()
	for _, name := range []string{"xxl", "uw", "tv", "wall"} {
		cfg.Breakpoints = append(cfg.Breakpoints, schemas.Breakpoint{Name: name, Width: 2560, Height: 1440})
	}
	require.Greater(t, len(cfg.Breakpoints), schemas.BreakpointRatioSlots)

	f := New(zaptest.NewLogger(t)).Extract(cfg, nil)
	assert.Equal(t, 9, f.Config.BreakpointCount, "count reflects every breakpoint")
	assert.InDelta(t, 2.0, f.Config.BreakpointRatios[7], 1e-9, "last slot holds the eighth breakpoint")
}

// -- Usage and Performance Features --

func TestExtractEmptyUsage(t *testing.T) {
	e := New(zaptest.NewLogger(t))
	f := e.Extract(testConfig(), []schemas.ComponentUsageData{})

	assert.Equal(t, schemas.ValueSummary{}, f.Usage.BaseValues)
	assert.NotNil(t, f.Usage.TypeShares)
	assert.Empty(t, f.Usage.TypeShares)
	assert.NotNil(t, f.Usage.PropertyCounts)
	assert.Empty(t, f.Usage.PropertyCounts)

	assert.Equal(t, schemas.ValueSummary{}, f.Performance.RenderTime)
	assert.Equal(t, schemas.ValueSummary{}, f.Performance.LayoutShift)

	assert.Equal(t, schemas.ArchetypeGenericMixed, f.Context.Archetype)
	assert.Equal(t, schemas.DeviceMix{}, f.Context.Devices)
	assert.Zero(t, f.Context.Engagement)
	assert.Equal(t, "general", f.Context.Industry)
}

func TestExtractUsageAggregates(t *testing.T) {
	usage := []schemas.ComponentUsageData{
		usageRecord("b1", schemas.ComponentButton, "header", 10),
		usageRecord("b2", schemas.ComponentButton, "sidebar", 20),
		usageRecord("c1", schemas.ComponentCard, "hero", 30),
		usageRecord("i1", schemas.ComponentInput, "inline", 40),
	}
	f := New(zaptest.NewLogger(t)).Extract(testConfig(), usage)

	assert.InDelta(t, 0.5, f.Usage.TypeShares[schemas.ComponentButton], 1e-9)
	assert.InDelta(t, 0.25, f.Usage.TypeShares[schemas.ComponentCard], 1e-9)
	assert.InDelta(t, 0.25, f.Usage.TypeShares[schemas.ComponentInput], 1e-9)

	assert.Equal(t, 4.0, f.Usage.PropertyCounts["font-size"], "raw occurrence count, not normalized")

	// Every record shares the same base value in the fixture.
	assert.Equal(t, 16.0, f.Usage.BaseValues.Mean)
	assert.Equal(t, 16.0, f.Usage.BaseValues.Median)
	assert.Zero(t, f.Usage.BaseValues.StdDev)

	assert.InDelta(t, 25.0, f.Performance.RenderTime.Mean, 1e-9)
	assert.InDelta(t, 25.0, f.Performance.RenderTime.Median, 1e-9)
	assert.Equal(t, 10.0, f.Performance.RenderTime.Min)
	assert.Equal(t, 40.0, f.Performance.RenderTime.Max)
}

func TestSingleObservationStatistics(t *testing.T) {
	usage := []schemas.ComponentUsageData{usageRecord("b1", schemas.ComponentButton, "header", 120)}
	f := New(zaptest.NewLogger(t)).Extract(testConfig(), usage)

	rt := f.Performance.RenderTime
	assert.Equal(t, 120.0, rt.Mean)
	assert.Equal(t, 120.0, rt.Median)
	assert.Equal(t, 120.0, rt.Min)
	assert.Equal(t, 120.0, rt.Max)
	assert.Zero(t, rt.StdDev, "a single observation has no spread")
}

func TestMissingMetricsAreExcluded(t *testing.T) {
	mem := 2048.0
	withMemory := usageRecord("a", schemas.ComponentCard, "inline", 10)
	withMemory.Performance.MemoryKB = &mem
	withoutMemory := usageRecord("b", schemas.ComponentCard, "inline", 20)

	f := New(zaptest.NewLogger(t)).Extract(testConfig(), []schemas.ComponentUsageData{withMemory, withoutMemory})

	// The nil memory reading must not drag the mean toward zero.
	assert.Equal(t, 2048.0, f.Performance.Memory.Mean)
	assert.Equal(t, 2048.0, f.Performance.Memory.Max)
	assert.Equal(t, schemas.ValueSummary{}, f.Performance.BundleSize, "no record carries a bundle size")
}

// -- Context Features --

func TestArchetypeInference(t *testing.T) {
	t.Run("dominant type selects a specific archetype", func(t *testing.T) {
		usage := []schemas.ComponentUsageData{
			usageRecord("b1", schemas.ComponentButton, "header", 10),
			usageRecord("b2", schemas.ComponentButton, "header", 10),
			usageRecord("b3", schemas.ComponentButton, "header", 10),
			usageRecord("c1", schemas.ComponentCard, "inline", 10),
			usageRecord("i1", schemas.ComponentInput, "inline", 10),
		}
		f := New(zaptest.NewLogger(t)).Extract(testConfig(), usage)
		assert.Equal(t, schemas.ArchetypeFormApp, f.Context.Archetype, "buttons hold 60% of the population")
	})

	t.Run("mixed population stays generic", func(t *testing.T) {
		usage := []schemas.ComponentUsageData{
			usageRecord("b1", schemas.ComponentButton, "header", 10),
			usageRecord("b2", schemas.ComponentButton, "header", 10),
			usageRecord("c1", schemas.ComponentCard, "inline", 10),
			usageRecord("c2", schemas.ComponentCard, "inline", 10),
			usageRecord("t1", schemas.ComponentChart, "inline", 10),
		}
		f := New(zaptest.NewLogger(t)).Extract(testConfig(), usage)
		assert.Equal(t, schemas.ArchetypeGenericMixed, f.Context.Archetype)
	})

	t.Run("custom archetype table wins", func(t *testing.T) {
		e := New(zaptest.NewLogger(t), WithArchetypeHeuristic(map[schemas.ComponentType]schemas.Archetype{
			schemas.ComponentButton: schemas.ArchetypeDashboard,
		}))
		usage := []schemas.ComponentUsageData{
			usageRecord("b1", schemas.ComponentButton, "header", 10),
		}
		f := e.Extract(testConfig(), usage)
		assert.Equal(t, schemas.ArchetypeDashboard, f.Context.Archetype)
	})
}

func TestDeviceMixInference(t *testing.T) {
	usage := []schemas.ComponentUsageData{
		usageRecord("a", schemas.ComponentButton, "header", 10),
		usageRecord("b", schemas.ComponentButton, "sidebar", 10),
		usageRecord("c", schemas.ComponentCard, "hero", 10),
		usageRecord("d", schemas.ComponentCard, "somewhere-new", 10),
	}
	f := New(zaptest.NewLogger(t)).Extract(testConfig(), usage)

	assert.InDelta(t, 0.5, f.Context.Devices.Desktop, 1e-9)
	assert.InDelta(t, 0.25, f.Context.Devices.Mobile, 1e-9)
	assert.InDelta(t, 0.25, f.Context.Devices.Other, 1e-9, "unknown positions bucket into other")

	t.Run("custom device table wins", func(t *testing.T) {
		e := New(zaptest.NewLogger(t), WithDeviceHeuristic(map[string]DeviceBucket{
			"header": DeviceMobile,
		}))
		f := e.Extract(testConfig(), usage[:1])
		assert.Equal(t, 1.0, f.Context.Devices.Mobile)
	})
}

func TestContextScores(t *testing.T) {
	first := usageRecord("a", schemas.ComponentButton, "header", 10)
	first.Interaction.InteractionRate = 0.2
	first.Interaction.AccessibilityScore = 0.8
	second := usageRecord("b", schemas.ComponentButton, "header", 10)
	second.Interaction.InteractionRate = 0.6
	second.Interaction.AccessibilityScore = 1.0

	f := New(zaptest.NewLogger(t)).Extract(testConfig(), []schemas.ComponentUsageData{first, second})

	assert.InDelta(t, 0.4, f.Context.Engagement, 1e-9)
	assert.InDelta(t, 0.9, f.Context.Accessibility, 1e-9)
	assert.Greater(t, f.Context.Performance, 0.0)
	assert.LessOrEqual(t, f.Context.Performance, 1.0)
}

func TestExtractWithIndustryOption(t *testing.T) {
	e := New(zaptest.NewLogger(t), WithIndustry("ecommerce"))
	f := e.Extract(testConfig(), nil)
	assert.Equal(t, "ecommerce", f.Context.Industry)
}

func TestExtractNilConfig(t *testing.T) {
	f := New(zaptest.NewLogger(t)).Extract(nil, nil)
	assert.Zero(t, f.Config.BreakpointCount)
	for _, r := range f.Config.BreakpointRatios {
		assert.Equal(t, 1.0, r)
	}
}
