// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/frameflow/assets"
)

// Config is the file form of the engine options.
type Config struct {
	Workers       int      `toml:"workers"`
	LaneWorkers   int      `toml:"lane_workers"`
	FenceTimeout  Duration `toml:"fence_timeout"`
	LaneReuse     bool     `toml:"lane_reuse"`
	AssetCapacity int      `toml:"asset_capacity"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the settings NewEngine uses without options.
func DefaultConfig() Config {
	return Config{
		LaneReuse:     true,
		AssetCapacity: assets.DefaultCapacity,
	}
}

// LoadConfig reads a TOML file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("frameflow: load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports out-of-range values.
func (c Config) Validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d < 0", ErrInvalidConfig, c.Workers)
	case c.LaneWorkers < 0:
		return fmt.Errorf("%w: lane_workers %d < 0", ErrInvalidConfig, c.LaneWorkers)
	case c.FenceTimeout.Duration < 0:
		return fmt.Errorf("%w: fence_timeout %s < 0", ErrInvalidConfig, c.FenceTimeout)
	case c.AssetCapacity < 0:
		return fmt.Errorf("%w: asset_capacity %d < 0", ErrInvalidConfig, c.AssetCapacity)
	}
	return nil
}

// Options converts the config to engine options.
func (c Config) Options() []Option {
	return []Option{
		WithWorkers(c.Workers),
		WithLaneWorkers(c.LaneWorkers),
		WithFenceTimeout(c.FenceTimeout.Duration),
		WithLaneReuse(c.LaneReuse),
		WithAssetCapacity(c.AssetCapacity),
	}
}
