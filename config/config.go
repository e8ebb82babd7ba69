package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/milk9111/bossmod/bossmod"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEncounter = "bone_crawler"
	DefaultRaidSize  = 8
	DefaultTick      = 100 * time.Millisecond
	DefaultFeedAddr  = "127.0.0.1:8787"
	DefaultScale     = 12
)

// Config holds the settings shared by the bossmod tools.
//
// Replay is a sample name or a path to a replay log; empty uses the sample
// matching the encounter. Speed scales replay playback against wall time,
// zero runs the headless tool as fast as possible.
type Config struct {
	Encounter    string        `yaml:"encounter"`
	EncounterDir string        `yaml:"encounter_dir"`
	Replay       string        `yaml:"replay"`
	RaidSize     int           `yaml:"raid_size"`
	Tick         time.Duration `yaml:"tick"`
	Speed        float64       `yaml:"speed"`
	FeedAddr     string        `yaml:"feed_addr"`
	Watch        bool          `yaml:"watch"`
	Debug        bool          `yaml:"debug"`
	Window       Window        `yaml:"window"`
	Colors       Palette       `yaml:"colors"`
}

// Window sizes the viewer. Scale is screen pixels per world unit.
type Window struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a YAML config. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Encounter == "" {
		c.Encounter = DefaultEncounter
	}
	if c.RaidSize == 0 {
		c.RaidSize = DefaultRaidSize
	}
	if c.Tick == 0 {
		c.Tick = DefaultTick
	}
	if c.FeedAddr == "" {
		c.FeedAddr = DefaultFeedAddr
	}
	if c.Window.Width == 0 {
		c.Window.Width = 960
	}
	if c.Window.Height == 0 {
		c.Window.Height = 720
	}
	if c.Window.Scale == 0 {
		c.Window.Scale = DefaultScale
	}
	c.Colors.fill(DefaultPalette())
}

func (c *Config) Validate() error {
	var errs []error
	if c.RaidSize < 0 {
		errs = append(errs, fmt.Errorf("raid_size must not be negative, got %d", c.RaidSize))
	}
	if c.Tick < 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %v", c.Tick))
	}
	if c.Speed < 0 {
		errs = append(errs, fmt.Errorf("speed must not be negative, got %g", c.Speed))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Color is a hex color such as "#ff8000" or "ff800080".
type Color struct {
	color.NRGBA
}

func Hex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("invalid color format: %s", s)
	}
	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}
	var c Color
	var err error
	if c.R, err = parse(0); err != nil {
		return Color{}, err
	}
	if c.G, err = parse(2); err != nil {
		return Color{}, err
	}
	if c.B, err = parse(4); err != nil {
		return Color{}, err
	}
	c.A = 255
	if len(s) == 8 {
		if c.A, err = parse(6); err != nil {
			return Color{}, err
		}
	}
	return c, nil
}

func mustHex(s string) *Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return &c
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	parsed, err := Hex(value.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) MarshalYAML() (any, error) {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A), nil
}

// Palette maps arena colors to screen colors. Unset entries fall back to
// DefaultPalette.
type Palette struct {
	Background        *Color `yaml:"background"`
	Border            *Color `yaml:"border"`
	AOE               *Color `yaml:"aoe"`
	SafeFromAOE       *Color `yaml:"safe_from_aoe"`
	Danger            *Color `yaml:"danger"`
	Safe              *Color `yaml:"safe"`
	Enemy             *Color `yaml:"enemy"`
	Object            *Color `yaml:"object"`
	PC                *Color `yaml:"pc"`
	PlayerGeneric     *Color `yaml:"player_generic"`
	PlayerInteresting *Color `yaml:"player_interesting"`
	Vulnerable        *Color `yaml:"vulnerable"`
}

func DefaultPalette() Palette {
	return Palette{
		Background:        mustHex("#101018"),
		Border:            mustHex("#c0c0c0"),
		AOE:               mustHex("#ff800060"),
		SafeFromAOE:       mustHex("#00ff0040"),
		Danger:            mustHex("#ff0000"),
		Safe:              mustHex("#00ff00"),
		Enemy:             mustHex("#ff4040"),
		Object:            mustHex("#ff8000"),
		PC:                mustHex("#00ff00"),
		PlayerGeneric:     mustHex("#c0c0c0"),
		PlayerInteresting: mustHex("#ffffff"),
		Vulnerable:        mustHex("#ff00ff"),
	}
}

func (p *Palette) entries() []**Color {
	return []**Color{
		&p.Background, &p.Border, &p.AOE, &p.SafeFromAOE, &p.Danger, &p.Safe,
		&p.Enemy, &p.Object, &p.PC, &p.PlayerGeneric, &p.PlayerInteresting, &p.Vulnerable,
	}
}

func (p *Palette) fill(defaults Palette) {
	dst, src := p.entries(), defaults.entries()
	for i := range dst {
		if *dst[i] == nil {
			*dst[i] = *src[i]
		}
	}
}

// Lookup returns the screen color for an arena color.
func (p Palette) Lookup(c bossmod.ArenaColor) color.Color {
	entries := p.entries()
	if int(c) >= len(entries) || *entries[c] == nil {
		return color.White
	}
	return (*entries[c]).NRGBA
}
