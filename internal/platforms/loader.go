package platforms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of platforms.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new platform config loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the platforms.yaml file. Sections missing from the
// file fall back to the built-in defaults, so a partial file only overrides
// what it names. An absent file (or no path at all) means defaults only.
func (l *Loader) Load() (FileConfig, error) {
	if l.filePath == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(l.filePath)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read platforms file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to parse platforms yaml: %w", err)
	}

	def := Defaults()
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = def.Platforms
	}
	if len(cfg.HeaderOverrides) == 0 {
		cfg.HeaderOverrides = def.HeaderOverrides
	}
	if len(cfg.TrustedHosts) == 0 {
		cfg.TrustedHosts = def.TrustedHosts
	}
	if len(cfg.ShortURLHosts) == 0 {
		cfg.ShortURLHosts = def.ShortURLHosts
	}
	if len(cfg.TrackingParams) == 0 {
		cfg.TrackingParams = def.TrackingParams
	}

	return cfg, nil
}
