package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/attentive/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Engine EngineConfig `toml:"engine"`
	Output OutputConfig `toml:"output"`
}

// EngineConfig maps engine settings. Durations are in seconds.
type EngineConfig struct {
	FaceThreshold   *float64 `toml:"face-threshold"`
	EyeThreshold    *float64 `toml:"eye-threshold"`
	HysteresisDelay *float64 `toml:"hysteresis-delay"`
	LogInterval     *float64 `toml:"log-interval"`
	AlertDelay      *float64 `toml:"alert-delay"`
	SeedFirst       *bool    `toml:"seed-first"`
}

// OutputConfig maps where records and diagnostics go.
type OutputConfig struct {
	Dir      *string `toml:"dir"`
	DB       *string `toml:"db"`
	CSV      *bool   `toml:"csv"`
	SQLite   *bool   `toml:"sqlite"`
	LogLevel *string `toml:"log-level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Apply overlays the file's engine values onto s. The result is clamped.
func (c EngineConfig) Apply(s model.Settings) model.Settings {
	if c.FaceThreshold != nil {
		s.FaceThreshold = *c.FaceThreshold
	}
	if c.EyeThreshold != nil {
		s.EyeThreshold = *c.EyeThreshold
	}
	if c.HysteresisDelay != nil {
		s.HysteresisDelay = Seconds(*c.HysteresisDelay)
	}
	if c.LogInterval != nil {
		s.LogInterval = Seconds(*c.LogInterval)
	}
	if c.AlertDelay != nil {
		s.AlertDelay = Seconds(*c.AlertDelay)
	}
	if c.SeedFirst != nil {
		s.SeedFromFirst = *c.SeedFirst
	}
	return s.Clamp()
}

// Seconds converts fractional seconds to a duration.
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// DefaultTemplate returns the commented default config file.
func DefaultTemplate() string {
	return fmt.Sprintf(`# attentive configuration
# All values are optional. Command line flags override this file.

[engine]
# Maximum nose offset, as a fraction of face size, still counted as facing
# the screen. Range %.2f..%.2f.
# face-threshold = %.2f

# Maximum averaged iris offset, as a fraction of eye size. Range %.2f..%.2f.
# eye-threshold = %.2f

# Seconds a new state must hold before it is committed.
# hysteresis-delay = %.1f

# Seconds between persisted samples.
# log-interval = %.1f

# Seconds of continuous distraction before an alert.
# alert-delay = %.1f

# Commit the first observation without waiting for the delay.
# seed-first = false

[output]
# Directory for CSV session logs.
# dir = "%s"

# SQLite database path.
# db = "%s"

# csv = true
# sqlite = true

# debug | info | warn | error
# log-level = "info"
`,
		model.MinFaceThreshold, model.MaxFaceThreshold, model.DefaultFaceThreshold,
		model.MinEyeThreshold, model.MaxEyeThreshold, model.DefaultEyeThreshold,
		model.DefaultHysteresisDelay.Seconds(),
		model.DefaultLogInterval.Seconds(),
		model.DefaultAlertDelay.Seconds(),
		DefaultLogDir(),
		DefaultDBPath(),
	)
}
