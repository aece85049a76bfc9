// api/schemas/schemas_test.go
package schemas_test

import (
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

func validResponsiveConfig() *schemas.ResponsiveConfig {
	return &schemas.ResponsiveConfig{
		Base: schemas.Viewport{Width: 1440, Height: 900},
		Breakpoints: []schemas.Breakpoint{
			{Name: "mobile", Width: 375, Height: 667},
			{Name: "desktop", Width: 1440, Height: 900},
		},
		Strategy: schemas.ScalingStrategy{
			Origin: schemas.OriginWidth,
			Mode:   schemas.InterpolationLinear,
			Tokens: map[string]schemas.ScalingToken{
				"fontSize": {Scale: 16, Min: 12, Max: 24, Step: 0.5, Unit: "px"},
			},
		},
	}
}

func TestResponsiveConfigValidate(t *testing.T) {
	t.Run("accepts a well-formed config", func(t *testing.T) {
		require.NoError(t, validResponsiveConfig().Validate())
	})

	t.Run("rejects a nil config", func(t *testing.T) {
		var rc *schemas.ResponsiveConfig
		require.Error(t, rc.Validate())
	})

	t.Run("rejects a non-positive base viewport", func(t *testing.T) {
		rc := validResponsiveConfig()
		rc.Base.Width = 0
		err := rc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base viewport")
	})

	t.Run("rejects a degenerate breakpoint", func(t *testing.T) {
		rc := validResponsiveConfig()
		rc.Breakpoints[1].Height = -1
		err := rc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `breakpoint "desktop"`)
	})

	t.Run("rejects an inverted token range", func(t *testing.T) {
		rc := validResponsiveConfig()
		rc.Strategy.Tokens["fontSize"] = schemas.ScalingToken{Scale: 16, Min: 24, Max: 12, Step: 0.5}
		err := rc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min (24) must not exceed max (12)")
	})

	t.Run("rejects a non-positive step", func(t *testing.T) {
		rc := validResponsiveConfig()
		rc.Strategy.Tokens["fontSize"] = schemas.ScalingToken{Scale: 16, Min: 12, Max: 24}
		err := rc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step must be positive")
	})
}

func TestResponsiveConfigHasStrategy(t *testing.T) {
	t.Run("nil config has no strategy", func(t *testing.T) {
		var rc *schemas.ResponsiveConfig
		assert.False(t, rc.HasStrategy())
	})

	t.Run("empty strategy section", func(t *testing.T) {
		rc := &schemas.ResponsiveConfig{Base: schemas.Viewport{Width: 1, Height: 1}}
		assert.False(t, rc.HasStrategy())
	})

	t.Run("origin alone is enough", func(t *testing.T) {
		rc := &schemas.ResponsiveConfig{Strategy: schemas.ScalingStrategy{Origin: schemas.OriginHeight}}
		assert.True(t, rc.HasStrategy())
	})

	t.Run("tokens alone are enough", func(t *testing.T) {
		rc := &schemas.ResponsiveConfig{Strategy: schemas.ScalingStrategy{
			Tokens: map[string]schemas.ScalingToken{"spacing": {Scale: 8, Min: 4, Max: 32, Step: 2}},
		}}
		assert.True(t, rc.HasStrategy())
	})
}

func TestComponentUsageDataWellFormed(t *testing.T) {
	valid := func() schemas.ComponentUsageData {
		return schemas.ComponentUsageData{
			ComponentID:   "hero-button",
			ComponentType: schemas.ComponentButton,
			Properties: []schemas.PropertyUsage{
				{Property: "font-size", ResponsiveValues: map[string]float64{"mobile": 13}},
			},
		}
	}

	t.Run("accepts a well-formed record", func(t *testing.T) {
		u := valid()
		require.NoError(t, u.WellFormed())
	})

	t.Run("empty collections are fine when non-nil", func(t *testing.T) {
		u := valid()
		u.Properties = []schemas.PropertyUsage{}
		require.NoError(t, u.WellFormed())
	})

	t.Run("rejects a nil record", func(t *testing.T) {
		var u *schemas.ComponentUsageData
		require.Error(t, u.WellFormed())
	})

	t.Run("rejects a null properties list", func(t *testing.T) {
		u := valid()
		u.Properties = nil
		err := u.WellFormed()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "properties list is null")
	})

	t.Run("rejects null responsive values and names the property", func(t *testing.T) {
		u := valid()
		u.Properties[0].ResponsiveValues = nil
		err := u.WellFormed()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `property "font-size"`)
		assert.Contains(t, err.Error(), "null responsiveValues")
	})
}

func TestTrainingDataWellFormed(t *testing.T) {
	valid := func() schemas.TrainingData {
		return schemas.TrainingData{
			ID:       "sample-1",
			Features: &schemas.ModelFeatures{},
			Labels: schemas.TrainingLabels{
				TokenTargets:       map[string]float64{"fontSize": 1.1},
				PerformanceTargets: map[string]float64{"renderTime": 0.7},
			},
		}
	}

	t.Run("accepts a well-formed example", func(t *testing.T) {
		d := valid()
		require.NoError(t, d.WellFormed())
	})

	t.Run("rejects a nil example", func(t *testing.T) {
		var d *schemas.TrainingData
		require.Error(t, d.WellFormed())
	})

	t.Run("rejects missing features", func(t *testing.T) {
		d := valid()
		d.Features = nil
		err := d.WellFormed()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "features are missing")
	})

	t.Run("rejects null label maps", func(t *testing.T) {
		d := valid()
		d.Labels.TokenTargets = nil
		require.ErrorContains(t, d.WellFormed(), "tokenTargets is null")

		d = valid()
		d.Labels.PerformanceTargets = nil
		require.ErrorContains(t, d.WellFormed(), "performanceTargets is null")
	})
}

// TestResponsiveConfigWireFormat decodes the JSON shape external collaborators
// produce and checks the typed fields land where suggestions expect them.
func TestResponsiveConfigWireFormat(t *testing.T) {
	doc := `{
		"base": {"width": 1440, "height": 900},
		"breakpoints": [
			{"name": "mobile", "width": 375, "height": 667}
		],
		"strategy": {
			"origin": "width",
			"mode": "golden-ratio",
			"tokens": {
				"fontSize": {"scale": 16, "min": 12, "max": 24, "step": 0.5, "unit": "px", "responsive": true}
			},
			"accessibility": {"minFontSize": 12, "minTapTarget": 44},
			"rounding": {"mode": "nearest", "precision": 1}
		}
	}`

	var rc schemas.ResponsiveConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &rc))
	require.NoError(t, rc.Validate())

	assert.Equal(t, schemas.OriginWidth, rc.Strategy.Origin)
	assert.Equal(t, schemas.InterpolationGoldenRatio, rc.Strategy.Mode)
	assert.Equal(t, schemas.RoundNearest, rc.Strategy.Rounding.Mode)
	require.Contains(t, rc.Strategy.Tokens, "fontSize")
	assert.Equal(t, 0.5, rc.Strategy.Tokens["fontSize"].Step)
	assert.True(t, rc.Strategy.Tokens["fontSize"].Responsive)
	assert.InDelta(t, 44, rc.Strategy.Accessibility.MinTapTarget, 1e-12)
}
