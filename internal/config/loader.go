// File: internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// LoadResponsiveConfig reads a responsive design configuration from a YAML or
// JSON file, chosen by extension, and validates it. YAML documents pass
// through a JSON round trip so the schema's camelCase json tags name the
// fields in both formats.
func LoadResponsiveConfig(path string) (*schemas.ResponsiveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading responsive config: %w", err)
	}

	var cfg schemas.ResponsiveConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		bridged, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", path, err)
		}
		if err := json.Unmarshal(bridged, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid responsive config %s: %w", path, err)
	}
	return &cfg, nil
}
