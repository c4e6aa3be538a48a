package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if PROCTORAI_CONFIG is set
//  3. env (prefix PROCTORAI_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PROCTORAI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PROCTORAI_ADDR, PROCTORAI_SAMPLE_INTERVAL_MS, ...
	// Map env keys like PROCTORAI_SAMPLE_INTERVAL_MS -> sample_interval_ms
	// (flat keys). Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PROCTORAI_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "proctorai_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects settings the pipeline cannot run with.
func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.SampleIntervalMS <= 0 {
		return fmt.Errorf("%w: sample_interval_ms must be positive", ErrInvalidConfig)
	}
	if cfg.FaceAbsenceDelayMS <= 0 || cfg.LookingAwayDelayMS <= 0 {
		return fmt.Errorf("%w: debounce delays must be positive", ErrInvalidConfig)
	}
	if cfg.AbsenceEscalationMS <= cfg.FaceAbsenceDelayMS {
		return fmt.Errorf("%w: absence_escalation_ms must exceed face_absence_delay_ms", ErrInvalidConfig)
	}
	if cfg.FaceConfidence <= 0 || cfg.FaceConfidence > 1 {
		return fmt.Errorf("%w: face_confidence must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.ObjectConfidence <= 0 || cfg.ObjectConfidence > 1 {
		return fmt.Errorf("%w: object_confidence must be in (0, 1]", ErrInvalidConfig)
	}
	if cfg.GazeThreshold <= 0 || cfg.GazeThreshold >= 0.5 {
		return fmt.Errorf("%w: gaze_threshold must be in (0, 0.5)", ErrInvalidConfig)
	}
	return nil
}
