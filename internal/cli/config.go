package cli

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Qefaraki/treescape/pkg/camera"
	"github.com/Qefaraki/treescape/pkg/lod"
	"github.com/Qefaraki/treescape/pkg/viewport"
)

// Config is the TOML-configurable tuning surface. Every field has a
// working default; a config file overrides only the keys it names.
type Config struct {
	Camera CameraConfig `toml:"camera"`
	Lod    LodConfig    `toml:"lod"`
	Loader LoaderConfig `toml:"loader"`
	Server ServerConfig `toml:"server"`
	Redis  RedisConfig  `toml:"redis"`
	Demo   DemoConfig   `toml:"demo"`
}

// CameraConfig tunes gesture physics.
type CameraConfig struct {
	MinScale    float64 `toml:"min_scale"`
	MaxScale    float64 `toml:"max_scale"`
	DecayLambda float64 `toml:"decay_lambda"`
	MaxVelocity float64 `toml:"max_velocity"`
}

// LodConfig tunes tier classification and image buckets.
type LodConfig struct {
	FullPx      float64 `toml:"full_px"`
	CompactPx   float64 `toml:"compact_px"`
	Hysteresis  float64 `toml:"hysteresis"`
	PixelRatio  float64 `toml:"pixel_ratio"`
	CrossfadeMs int     `toml:"crossfade_ms"`
}

// LoaderConfig tunes progressive loading.
type LoaderConfig struct {
	DebounceMs         int     `toml:"debounce_ms"`
	Margin             float64 `toml:"margin"`
	PredictLead        float64 `toml:"predict_lead"`
	ResidentCap        int     `toml:"resident_cap"`
	InitialGenerations int     `toml:"initial_generations"`
}

// ServerConfig tunes the reference server and the HTTP source.
type ServerConfig struct {
	Addr   string `toml:"addr"`
	TreeID string `toml:"tree_id"`
}

// RedisConfig selects the Redis region cache; empty Addr disables it.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// DemoConfig tunes the generated fixture tree.
type DemoConfig struct {
	Count int   `toml:"count"`
	Seed  int64 `toml:"seed"`
}

// DefaultConfig returns the built-in tuning.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8470", TreeID: "default"},
		Demo:   DemoConfig{Count: 2400, Seed: 7},
	}
}

// LoadConfig reads a TOML file over the defaults. Unknown keys are an
// error so typos surface instead of silently using defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// CameraConfig converts to the camera package's tuning.
// Zero fields stay zero; the constructor fills defaults.
func (c Config) CameraConfig() camera.Config {
	return camera.Config{
		MinScale:    c.Camera.MinScale,
		MaxScale:    c.Camera.MaxScale,
		DecayLambda: c.Camera.DecayLambda,
		MaxVelocity: c.Camera.MaxVelocity,
	}
}

// TierConfig converts to the lod package's tuning.
func (c Config) TierConfig() lod.TierConfig {
	return lod.TierConfig{
		FullPx:     c.Lod.FullPx,
		CompactPx:  c.Lod.CompactPx,
		Hysteresis: c.Lod.Hysteresis,
		PixelRatio: c.Lod.PixelRatio,
		Crossfade:  time.Duration(c.Lod.CrossfadeMs) * time.Millisecond,
	}
}

// LoaderConfig converts to the viewport package's tuning.
func (c Config) LoaderConfig() viewport.Config {
	return viewport.Config{
		Debounce:           time.Duration(c.Loader.DebounceMs) * time.Millisecond,
		Margin:             c.Loader.Margin,
		PredictLead:        c.Loader.PredictLead,
		ResidentCap:        c.Loader.ResidentCap,
		InitialGenerations: c.Loader.InitialGenerations,
	}
}
