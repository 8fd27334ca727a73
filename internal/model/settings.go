package model

import "time"

// Defaults and clamp bounds for engine settings.
const (
	DefaultFaceThreshold   = 0.31
	DefaultEyeThreshold    = 0.22
	DefaultHysteresisDelay = 300 * time.Millisecond
	DefaultLogInterval     = time.Second
	DefaultAlertDelay      = 5 * time.Second

	MinFaceThreshold = 0.05
	MaxFaceThreshold = 0.5
	MinEyeThreshold  = 0.1
	MaxEyeThreshold  = 0.5
	ThresholdStep    = 0.02

	MinHysteresisDelay = 0
	MaxHysteresisDelay = 5 * time.Second
	MinLogInterval     = 100 * time.Millisecond
	MaxLogInterval     = time.Minute
	MinAlertDelay      = 0
	MaxAlertDelay      = time.Hour
)

// Settings holds the runtime-adjustable engine configuration.
type Settings struct {
	FaceThreshold   float64
	EyeThreshold    float64
	HysteresisDelay time.Duration
	LogInterval     time.Duration
	AlertDelay      time.Duration
	// SeedFromFirst commits the first observed raw value without debounce.
	SeedFromFirst bool
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		FaceThreshold:   DefaultFaceThreshold,
		EyeThreshold:    DefaultEyeThreshold,
		HysteresisDelay: DefaultHysteresisDelay,
		LogInterval:     DefaultLogInterval,
		AlertDelay:      DefaultAlertDelay,
	}
}

// Clamp returns a copy with every field forced into its valid range.
func (s Settings) Clamp() Settings {
	s.FaceThreshold = ClampFloat(s.FaceThreshold, MinFaceThreshold, MaxFaceThreshold)
	s.EyeThreshold = ClampFloat(s.EyeThreshold, MinEyeThreshold, MaxEyeThreshold)
	s.HysteresisDelay = ClampDuration(s.HysteresisDelay, MinHysteresisDelay, MaxHysteresisDelay)
	s.LogInterval = ClampDuration(s.LogInterval, MinLogInterval, MaxLogInterval)
	s.AlertDelay = ClampDuration(s.AlertDelay, MinAlertDelay, MaxAlertDelay)
	return s
}

// ClampFloat limits v to [lo, hi]. NaN maps to lo.
func ClampFloat(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampDuration limits d to [lo, hi].
func ClampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
