// Package config loads the daemon configuration from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete daemon configuration.
type Config struct {
	Display    DisplayConfig    `yaml:"display"`
	Board      BoardConfig      `yaml:"board"`
	Brightness BrightnessConfig `yaml:"brightness"`
	Location   LocationConfig   `yaml:"location"`
	Modules    []ModuleConfig   `yaml:"modules"`
	Scores     ScoresConfig     `yaml:"scores"`
	News       NewsConfig       `yaml:"news"`
	Transit    TransitConfig    `yaml:"transit"`
	Bikeshare  BikeshareConfig  `yaml:"bikeshare"`
}

// DisplayConfig selects and configures the output device. Width and height
// apply to the terminal, memory and SPI drivers; the fb driver reads the
// mode from the device instead.
type DisplayConfig struct {
	Driver   string    `yaml:"driver"`
	Width    int       `yaml:"width"`
	Height   int       `yaml:"height"`
	Rotation int       `yaml:"rotation"`
	Device   string    `yaml:"device"`
	SPI      SPIConfig `yaml:"spi"`
}

// SPIConfig contains the bus and pin assignments for SPI panels.
type SPIConfig struct {
	Port         string `yaml:"port"`
	SpeedMHz     int    `yaml:"speed_mhz"`
	ResetPin     string `yaml:"reset_pin"`
	DCPin        string `yaml:"dc_pin"`
	BacklightPin string `yaml:"backlight_pin"`
}

// BoardConfig contains the render loop settings.
type BoardConfig struct {
	FPS              int    `yaml:"fps"`
	Workers          int    `yaml:"workers"`
	StaleSlotSeconds int    `yaml:"stale_slot_seconds"`
	LogFile          string `yaml:"log_file"`
}

// TickRate returns the render interval.
func (b BoardConfig) TickRate() time.Duration {
	return time.Second / time.Duration(b.FPS)
}

// StaleSlot returns the slot duration for stale modules.
func (b BoardConfig) StaleSlot() time.Duration {
	return time.Duration(b.StaleSlotSeconds) * time.Second
}

// BrightnessConfig sets the contrast levels for day and night. Equal levels
// disable the solar dimmer and hold the display at that contrast.
type BrightnessConfig struct {
	Day   uint8 `yaml:"day"`
	Night uint8 `yaml:"night"`
}

// Auto reports whether the solar dimmer is active.
func (b BrightnessConfig) Auto() bool {
	return b.Day != b.Night
}

// LocationConfig anchors the solar dimmer and the local clock.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`
}

// ModuleConfig is one entry of the rotation, in display order. Settings
// specific to a module type live in that type's top level section.
type ModuleConfig struct {
	Type            string `yaml:"type"`
	Name            string `yaml:"name"`
	RefreshSeconds  int    `yaml:"refresh_seconds"`
	StaleSeconds    int    `yaml:"stale_seconds"`
	DurationSeconds int    `yaml:"duration_seconds"`
	Disabled        bool   `yaml:"disabled"`
}

// Refresh returns the background refresh interval.
func (m ModuleConfig) Refresh() time.Duration {
	return time.Duration(m.RefreshSeconds) * time.Second
}

// Stale returns the staleness window, zero meaning the board default.
func (m ModuleConfig) Stale() time.Duration {
	return time.Duration(m.StaleSeconds) * time.Second
}

// Duration returns the slot duration override, zero meaning the module
// decides per state.
func (m ModuleConfig) Duration() time.Duration {
	return time.Duration(m.DurationSeconds) * time.Second
}

// ScoresConfig contains the scoreboard settings.
type ScoresConfig struct {
	Leagues       []string            `yaml:"leagues"`
	Favorites     map[string][]string `yaml:"favorites"`
	LookaheadDays int                 `yaml:"lookahead_days"`
	GameSeconds   int                 `yaml:"game_seconds"`
}

// NewsConfig contains the headline ticker settings. Font selects an optional
// TrueType file for the headline text, the built-in face if empty.
type NewsConfig struct {
	Feeds         []FeedConfig `yaml:"feeds"`
	ScrollSpeed   float64      `yaml:"scroll_pixels_per_second"`
	SettleSeconds float64      `yaml:"settle_seconds"`
	Font          string       `yaml:"font"`
	FontSize      float64      `yaml:"font_size"`
}

// FeedConfig is one RSS or Atom feed.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// TransitConfig contains the arrival prediction settings.
type TransitConfig struct {
	Agency      string       `yaml:"agency"`
	APIKey      string       `yaml:"api_key"`
	StopSeconds int          `yaml:"stop_seconds"`
	Stops       []StopConfig `yaml:"stops"`
}

// StopConfig is one transit stop, identified by its agency stop code.
type StopConfig struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// BikeshareConfig contains the bike share settings.
type BikeshareConfig struct {
	Region         string   `yaml:"region"`
	StationSeconds int      `yaml:"station_seconds"`
	Stations       []string `yaml:"stations"`
}

// Module types known to the daemon.
var moduleTypes = map[string]bool{
	"scores":    true,
	"news":      true,
	"transit":   true,
	"bikeshare": true,
	"weather":   true,
}

// Refresh intervals per module type, in seconds.
var defaultRefresh = map[string]int{
	"scores":    30,
	"news":      300,
	"transit":   30,
	"bikeshare": 30,
	"weather":   1800,
}

// Default returns the built-in configuration: a terminal emulator the size
// of a common LED matrix, all module types enabled, San Francisco sources.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads and validates the configuration from a YAML file. Unknown keys
// are rejected; missing values fall back to the built-in defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Display.Driver == "" {
		c.Display.Driver = "terminal"
	}
	if c.Display.Width == 0 {
		c.Display.Width = 64
	}
	if c.Display.Height == 0 {
		c.Display.Height = 32
	}
	if c.Display.Device == "" {
		c.Display.Device = "/dev/fb0"
	}
	if c.Board.FPS == 0 {
		c.Board.FPS = 30
	}
	if c.Board.Workers == 0 {
		c.Board.Workers = 3
	}
	if c.Board.StaleSlotSeconds == 0 {
		c.Board.StaleSlotSeconds = 5
	}
	if c.Brightness.Day == 0 && c.Brightness.Night == 0 {
		c.Brightness = BrightnessConfig{Day: 224, Night: 32}
	}
	if c.Location.Timezone == "" {
		c.Location.Timezone = "America/Los_Angeles"
	}
	if c.Location.Latitude == 0 && c.Location.Longitude == 0 {
		c.Location.Latitude = 37.7749
		c.Location.Longitude = -122.4194
	}
	if len(c.Modules) == 0 {
		c.Modules = []ModuleConfig{
			{Type: "scores"},
			{Type: "weather", DurationSeconds: 15},
			{Type: "news"},
			{Type: "transit"},
			{Type: "bikeshare"},
		}
	}
	for i := range c.Modules {
		m := &c.Modules[i]
		if m.Name == "" {
			m.Name = m.Type
		}
		if m.RefreshSeconds == 0 {
			m.RefreshSeconds = defaultRefresh[m.Type]
		}
	}

	if len(c.Scores.Leagues) == 0 {
		c.Scores.Leagues = []string{"NBA", "NFL"}
	}
	if c.Scores.Favorites == nil {
		c.Scores.Favorites = map[string][]string{
			"NBA": {"Warriors"},
			"NFL": {"49ers"},
		}
	}
	if c.Scores.LookaheadDays == 0 {
		c.Scores.LookaheadDays = 7
	}
	if c.Scores.GameSeconds == 0 {
		c.Scores.GameSeconds = 3
	}
	if len(c.News.Feeds) == 0 {
		c.News.Feeds = []FeedConfig{
			{Name: "NYT", URL: "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml"},
		}
	}
	if c.News.ScrollSpeed == 0 {
		c.News.ScrollSpeed = 24
	}
	if c.News.SettleSeconds == 0 {
		c.News.SettleSeconds = 2
	}
	if c.News.FontSize == 0 {
		c.News.FontSize = 13
	}
	if c.Transit.Agency == "" {
		c.Transit.Agency = "sfmta-cis"
	}
	if c.Transit.StopSeconds == 0 {
		c.Transit.StopSeconds = 5
	}
	if len(c.Transit.Stops) == 0 {
		c.Transit.Stops = []StopConfig{
			{Code: "15553", Name: "Market & 4th"},
		}
	}
	if c.Bikeshare.Region == "" {
		c.Bikeshare.Region = "SFO"
	}
	if c.Bikeshare.StationSeconds == 0 {
		c.Bikeshare.StationSeconds = 5
	}
	if len(c.Bikeshare.Stations) == 0 {
		c.Bikeshare.Stations = []string{"Market St at 4th St"}
	}
}

// Validate checks the configuration for values the daemon cannot start
// with. It assumes defaults have been applied.
func (c *Config) Validate() error {
	switch c.Display.Driver {
	case "terminal", "st7735", "st7789", "fb", "memory":
	default:
		return fmt.Errorf("display: unknown driver %q", c.Display.Driver)
	}
	if c.Display.Width < 8 || c.Display.Height < 8 {
		return fmt.Errorf("display: size %dx%d too small", c.Display.Width, c.Display.Height)
	}
	switch c.Display.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("display: rotation %d not a quarter turn", c.Display.Rotation)
	}
	if c.Board.FPS < 1 || c.Board.FPS > 120 {
		return fmt.Errorf("board: fps %d out of range 1-120", c.Board.FPS)
	}
	if _, err := time.LoadLocation(c.Location.Timezone); err != nil {
		return fmt.Errorf("location: %w", err)
	}

	names := make(map[string]bool)
	for _, m := range c.Modules {
		if !moduleTypes[m.Type] {
			return fmt.Errorf("modules: unknown type %q", m.Type)
		}
		if names[m.Name] {
			return fmt.Errorf("modules: duplicate name %q", m.Name)
		}
		names[m.Name] = true
		if m.RefreshSeconds < 1 {
			return fmt.Errorf("modules: %s: refresh_seconds must be positive", m.Name)
		}
		if m.Disabled {
			continue
		}
		if err := c.validateSource(m.Type); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSource(typ string) error {
	switch typ {
	case "scores":
		if len(c.Scores.Leagues) == 0 {
			return errors.New("scores: no leagues configured")
		}
	case "news":
		if len(c.News.Feeds) == 0 {
			return errors.New("news: no feeds configured")
		}
		for _, f := range c.News.Feeds {
			if f.URL == "" {
				return fmt.Errorf("news: feed %q has no url", f.Name)
			}
		}
	case "transit":
		if len(c.Transit.Stops) == 0 {
			return errors.New("transit: no stops configured")
		}
		for _, s := range c.Transit.Stops {
			if s.Code == "" {
				return fmt.Errorf("transit: stop %q has no code", s.Name)
			}
		}
	case "bikeshare":
		if len(c.Bikeshare.Stations) == 0 {
			return errors.New("bikeshare: no stations configured")
		}
	}
	return nil
}
