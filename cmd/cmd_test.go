// -- cmd/cmd_test.go --
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/scaletuner/api/schemas"
	"github.com/xkilldash9x/scaletuner/internal/config"
	"github.com/xkilldash9x/scaletuner/internal/observability"
)

// resetForTest puts the global logger into a silent state so command runs
// stay quiet, and restores a clean slate afterwards.
func resetForTest(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	observability.Initialize(
		config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"},
		zapcore.AddSync(io.Discard),
	)
	t.Cleanup(observability.ResetForTest)
}

// testConfig builds a validated config with a fixed seed, a short training
// schedule, and temp directories for artifacts.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("logger.level", "fatal")
	v.Set("model.dir", t.TempDir())
	v.Set("model.seed", 4321)
	v.Set("training.epochs", 15)
	v.Set("engine.confidence_passes", 6)
	v.Set("data.dir", t.TempDir())
	v.Set("data.follow_flush_interval", "25ms")
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

// writeQuietConfigFile writes a config file mirroring testConfig for
// end-to-end command runs.
func writeQuietConfigFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`logger:
  level: fatal
  format: console
model:
  dir: %s
  seed: 4321
training:
  epochs: 15
engine:
  confidence_passes: 6
data:
  dir: %s
`, dir, dir)
	path := filepath.Join(dir, "scaletuner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// executeCommand runs a pristine command tree and captures combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// responsiveFixture is a desktop-first configuration with five breakpoints
// and three constrained tokens.
func responsiveFixture() *schemas.ResponsiveConfig {
	return &schemas.ResponsiveConfig{
		Base: schemas.Viewport{Width: 1440, Height: 900},
		Breakpoints: []schemas.Breakpoint{
			{Name: "mobile", Width: 375, Height: 667},
			{Name: "tablet", Width: 768, Height: 1024},
			{Name: "laptop", Width: 1024, Height: 768},
			{Name: "desktop", Width: 1440, Height: 900},
			{Name: "wide", Width: 1920, Height: 1080},
		},
		Strategy: schemas.ScalingStrategy{
			Origin: schemas.OriginWidth,
			Mode:   schemas.InterpolationLinear,
			Tokens: map[string]schemas.ScalingToken{
				"fontSize": {Scale: 16, Min: 12, Max: 24, Step: 0.5, Unit: "px", Responsive: true},
				"spacing":  {Scale: 8, Min: 4, Max: 32, Step: 2, Unit: "px", Responsive: true},
				"radius":   {Scale: 4, Min: 0, Max: 16, Step: 1, Unit: "px"},
			},
			Accessibility: schemas.AccessibilityConfig{
				MinFontSize:      12,
				MinTapTarget:     44,
				PreserveContrast: true,
			},
			Rounding: schemas.RoundingConfig{Mode: schemas.RoundNearest, Precision: 1},
		},
	}
}

// writeResponsiveFixture writes the fixture config as JSON and returns its
// path.
func writeResponsiveFixture(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(responsiveFixture())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "responsive.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func usageFixture(id string, ctype schemas.ComponentType, variant float64) schemas.ComponentUsageData {
	render := 15 + 5*variant
	shift := 0.05 * variant
	memory := 200 + 40*variant
	bundle := 90 + 10*variant
	return schemas.ComponentUsageData{
		ComponentID:   id,
		ComponentType: ctype,
		Properties: []schemas.PropertyUsage{
			{
				Property:  "font-size",
				Token:     "fontSize",
				BaseValue: 14 + variant,
				ResponsiveValues: map[string]float64{
					"mobile":  13,
					"desktop": 14 + variant,
				},
				UsageFrequency: 0.8,
			},
		},
		Performance: schemas.PerformanceSnapshot{
			RenderTimeMS:     &render,
			LayoutShiftScore: &shift,
			MemoryKB:         &memory,
			BundleSizeKB:     &bundle,
		},
		Interaction: schemas.InteractionSnapshot{
			InteractionRate:    0.3 + 0.1*variant,
			AvgViewTimeMS:      2200,
			ScrollBehavior:     schemas.ScrollFlow,
			AccessibilityScore: 0.85,
		},
		Context: schemas.StructuralContext{
			Parent:         schemas.ComponentContainer,
			ChildCount:     2,
			LayoutPosition: "hero",
			Importance:     schemas.ImportancePrimary,
		},
	}
}

// writeUsageFixture writes n usage records as JSONL and returns the path.
func writeUsageFixture(t *testing.T, n int) string {
	t.Helper()
	types := []schemas.ComponentType{schemas.ComponentButton, schemas.ComponentCard, schemas.ComponentInput}
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		rec := usageFixture(fmt.Sprintf("comp-%d", i), types[i%len(types)], float64(i%4))
		line, err := json.Marshal(rec)
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "usage.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func trainingFixture(id string, variant float64) schemas.TrainingData {
	return schemas.TrainingData{
		ID: id,
		Features: &schemas.ModelFeatures{
			Config: schemas.ConfigFeatures{
				BreakpointCount: 2 + int(variant),
				TokenComplexity: 6 * variant,
			},
			Usage: schemas.UsageFeatures{
				BaseValues: schemas.ValueSummary{Mean: 14 + variant, Median: 15, Min: 12, Max: 24, StdDev: 2},
				TypeShares: map[schemas.ComponentType]float64{schemas.ComponentButton: 1},
			},
			Context: schemas.ContextFeatures{
				Archetype:  schemas.ArchetypeContentApp,
				Engagement: 0.1 * variant,
			},
		},
		Labels: schemas.TrainingLabels{
			TokenTargets:       map[string]float64{"fontSize": 1 + 0.05*variant},
			PerformanceTargets: map[string]float64{"renderTime": 0.7},
			SatisfactionScore:  0.8,
			AccessibilityScore: 0.9,
		},
		Provenance: schemas.Provenance{
			Timestamp:    time.Now().UTC(),
			Source:       "test",
			QualityScore: 1,
			SampleSize:   10,
		},
	}
}

// writeTrainingFixture writes n labeled samples as JSONL and returns the
// path.
func writeTrainingFixture(t *testing.T, n int) string {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		rec := trainingFixture(fmt.Sprintf("sample-%d", i), float64(i%4)+1)
		line, err := json.Marshal(rec)
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "training.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}
