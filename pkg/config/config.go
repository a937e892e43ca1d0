// Package config loads particula settings from TOML.
//
// A missing file is not an error: every field has a default, and a file
// only needs to name what it changes.
//
//	[particles]
//	shape = "kite"
//	count = 12000
//
//	[interaction]
//	tier = "auto"
//
//	[interaction.two_hands]
//	gain = 5.0
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/interaction"
	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

const (
	appName  = "particula"
	fileName = "config.toml"

	// EnvPath overrides the config file location.
	EnvPath = "PARTICULA_CONFIG"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// =============================================================================
// Types
// =============================================================================

// Duration is a time.Duration written as a string ("150ms", "10m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full set of settings.
type Config struct {
	Particles   Particles   `toml:"particles"`
	Scene       Scene       `toml:"scene"`
	Breathing   Breathing   `toml:"breathing"`
	Interaction Interaction `toml:"interaction"`
	Cache       Cache       `toml:"cache"`
	Server      Server      `toml:"server"`
}

type Particles struct {
	Shape string `toml:"shape"`
	Count int    `toml:"count"`
	// Seed makes clouds reproducible; 0 picks a random seed per cloud.
	Seed  uint64 `toml:"seed"`
	Color string `toml:"color"`
}

type Scene struct {
	FPS             int     `toml:"fps"`
	ScaleDamping    float64 `toml:"scale_damping"`
	FOVDamping      float64 `toml:"fov_damping"`
	CameraDamping   float64 `toml:"camera_damping"`
	BaseFOV         float64 `toml:"base_fov"`
	FOVGain         float64 `toml:"fov_gain"`
	RateIndependent bool    `toml:"rate_independent"`
	ReferenceFPS    float64 `toml:"reference_fps"`
	PointerReach    float64 `toml:"pointer_reach"`
}

type Breathing struct {
	Amplitude float64 `toml:"amplitude"`
	// Frequency is in radians per millisecond.
	Frequency float64 `toml:"frequency"`
}

type Interaction struct {
	Disabled   bool                `toml:"disabled"`
	Tier       string              `toml:"tier"`
	Hysteresis float64             `toml:"hysteresis"`
	OneHand    interaction.Mapping `toml:"one_hand"`
	TwoHands   interaction.Mapping `toml:"two_hands"`
	// Tiers overrides the dispatch interval per tier name.
	Tiers map[string]Duration `toml:"tiers"`
}

type Cache struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	// TTL bounds the lifetime of rendered artifacts.
	TTL      Duration `toml:"ttl"`
	RedisURL string   `toml:"redis_url"`
	// Scope prefixes every key so deployments can share one redis.
	Scope string `toml:"scope"`
}

type Server struct {
	Addr        string   `toml:"addr"`
	SessionTTL  Duration `toml:"session_ttl"`
	MaxSessions int      `toml:"max_sessions"`
	FPS         int      `toml:"fps"`
}

// =============================================================================
// Defaults and Validation
// =============================================================================

// Default returns a config with every field set.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.Particles.Shape == "" {
		c.Particles.Shape = string(shape.Default)
	}
	if c.Particles.Count == 0 {
		c.Particles.Count = sampler.DefaultCount
	}
	if c.Particles.Color == "" {
		c.Particles.Color = scene.DefaultColor
	}

	if c.Scene.FPS == 0 {
		c.Scene.FPS = scene.DefaultFPS
	}
	if c.Scene.ScaleDamping == 0 {
		c.Scene.ScaleDamping = scene.DefaultScaleDamping
	}
	if c.Scene.FOVDamping == 0 {
		c.Scene.FOVDamping = scene.DefaultFOVDamping
	}
	if c.Scene.CameraDamping == 0 {
		c.Scene.CameraDamping = scene.DefaultCameraDamping
	}
	if c.Scene.BaseFOV == 0 {
		c.Scene.BaseFOV = scene.DefaultBaseFOV
	}
	if c.Scene.FOVGain == 0 {
		c.Scene.FOVGain = scene.DefaultFOVGain
	}
	if c.Scene.ReferenceFPS == 0 {
		c.Scene.ReferenceFPS = scene.DefaultReferenceFPS
	}
	if c.Scene.PointerReach == 0 {
		c.Scene.PointerReach = scene.DefaultPointerReach
	}

	if c.Breathing.Amplitude == 0 {
		c.Breathing.Amplitude = scene.DefaultBreathingAmplitude
	}
	if c.Breathing.Frequency == 0 {
		c.Breathing.Frequency = scene.DefaultBreathingFrequency
	}

	p := interaction.DefaultParams()
	if c.Interaction.Tier == "" {
		c.Interaction.Tier = interaction.TierAuto
	}
	if c.Interaction.Hysteresis == 0 {
		c.Interaction.Hysteresis = interaction.DefaultHysteresis
	}
	if c.Interaction.OneHand == (interaction.Mapping{}) {
		c.Interaction.OneHand = p.OneHand
	}
	if c.Interaction.TwoHands == (interaction.Mapping{}) {
		c.Interaction.TwoHands = p.TwoHands
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = 24 * time.Hour
	}

	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Server.SessionTTL.Duration == 0 {
		c.Server.SessionTTL.Duration = 30 * time.Minute
	}
	if c.Server.MaxSessions == 0 {
		c.Server.MaxSessions = 64
	}
	if c.Server.FPS == 0 {
		c.Server.FPS = 30
	}
}

// Validate checks the config. Call SetDefaults first.
func (c *Config) Validate() error {
	if _, ok := shape.Parse(c.Particles.Shape); !ok {
		return errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", c.Particles.Shape)
	}
	if _, err := ParseColor(c.Particles.Color); err != nil {
		return err
	}
	if err := errors.ValidateRange("scene.fps", float64(c.Scene.FPS), 1, 240); err != nil {
		return err
	}
	if err := errors.ValidateRange("server.fps", float64(c.Server.FPS), 1, 120); err != nil {
		return err
	}
	if _, err := interaction.ParseTier(c.Interaction.Tier); err != nil {
		return err
	}
	for name, d := range c.Interaction.Tiers {
		if _, err := interaction.ParseTier(name); err != nil || name == interaction.TierAuto {
			return errors.New(errors.ErrCodeInvalidConfig, "interaction.tiers: unknown tier %q", name)
		}
		if d.Duration <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "interaction.tiers.%s must be positive", name)
		}
	}
	for name, m := range map[string]interaction.Mapping{"one_hand": c.Interaction.OneHand, "two_hands": c.Interaction.TwoHands} {
		if m.Min <= 0 || m.Max < m.Min || m.Max > scene.MaxScale {
			return errors.New(errors.ErrCodeInvalidConfig, "interaction.%s: need 0 < min <= max <= %v", name, scene.MaxScale)
		}
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Server.MaxSessions < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_sessions must be at least 1")
	}
	_, err := c.SceneOptions()
	return err
}

// =============================================================================
// Conversions
// =============================================================================

// Shape returns the configured start shape.
func (c *Config) Shape() shape.Kind {
	return shape.Resolve(c.Particles.Shape)
}

// SceneOptions builds validated scene options.
func (c *Config) SceneOptions() (scene.Options, error) {
	col, err := ParseColor(c.Particles.Color)
	if err != nil {
		return scene.Options{}, err
	}
	o := scene.Options{
		Count:              c.Particles.Count,
		Color:              col,
		Seed:               c.Particles.Seed,
		ScaleDamping:       c.Scene.ScaleDamping,
		FOVDamping:         c.Scene.FOVDamping,
		CameraDamping:      c.Scene.CameraDamping,
		BaseFOV:            c.Scene.BaseFOV,
		FOVGain:            c.Scene.FOVGain,
		BreathingAmplitude: c.Breathing.Amplitude,
		BreathingFrequency: c.Breathing.Frequency,
		RateIndependent:    c.Scene.RateIndependent,
		ReferenceFPS:       c.Scene.ReferenceFPS,
		PointerReach:       c.Scene.PointerReach,
	}
	if err := o.Validate(); err != nil {
		return scene.Options{}, err
	}
	return o, nil
}

// DriverOptions builds interaction driver options.
func (c *Config) DriverOptions(logger *log.Logger) (interaction.Options, error) {
	tier, err := interaction.ParseTier(c.Interaction.Tier)
	if err != nil {
		return interaction.Options{}, err
	}
	o := interaction.Options{
		Tier:       tier,
		Hysteresis: c.Interaction.Hysteresis,
		Params: interaction.Params{
			OneHand:            c.Interaction.OneHand,
			TwoHands:           c.Interaction.TwoHands,
			BreathingAmplitude: c.Breathing.Amplitude,
			BreathingFrequency: c.Breathing.Frequency,
		},
		Logger: logger,
	}
	if d, ok := c.Interaction.Tiers[string(tier)]; ok {
		o.Interval = d.Duration
	}
	return o, nil
}

// ParseColor parses a hex color such as "#ff6b9d" or "ff6b9d".
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return colorful.Color{}, errors.New(errors.ErrCodeInvalidConfig, "color %q: want #rgb or #rrggbb", s)
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "color %q", s)
	}
	return col, nil
}

// =============================================================================
// Loading and Saving
// =============================================================================

// Path returns the config file location: $PARTICULA_CONFIG, then
// $XDG_CONFIG_HOME/particula/config.toml, then ~/.config/particula/config.toml.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "locate home directory")
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses TOML from r over the defaults and validates the result.
// Keys the file leaves out keep their default, so a partial table such as
// [interaction.two_hands] only overrides the keys it names. Unknown keys
// are rejected.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return nil
}

// String returns the TOML form of c.
func (c *Config) String() string {
	var buf bytes.Buffer
	_ = c.Encode(&buf)
	return buf.String()
}

// Save writes c to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create config directory")
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write config")
	}
	return nil
}
