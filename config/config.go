// Package config holds chatview settings. Values come from a TOML file
// (default $HOME/.config/chatview/config.toml), CHATVIEW_* environment
// variables and built-in defaults, in that order of precedence reversed.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/arogya-ai/chatview/style"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/conversation"
	"github.com/arogya-ai/chatview/ui/message"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHATVIEW"

// Config holds all settings.
type Config struct {
	Theme          string        `toml:"theme" mapstructure:"theme"` // dark, light or auto
	Locale         string        `toml:"locale" mapstructure:"locale"`
	Timezone       string        `toml:"timezone" mapstructure:"timezone"` // IANA name, empty = local
	BrandName      string        `toml:"brand_name" mapstructure:"brand_name"`
	BrandLogo      string        `toml:"brand_logo" mapstructure:"brand_logo"`
	BrandGlyph     string        `toml:"brand_glyph" mapstructure:"brand_glyph"`
	EmptyTitle     string        `toml:"empty_title" mapstructure:"empty_title"`
	EmptyText      string        `toml:"empty_text" mapstructure:"empty_text"`
	LoadingCaption string        `toml:"loading_caption" mapstructure:"loading_caption"`
	ImageMaxHeight int           `toml:"image_max_height" mapstructure:"image_max_height"`
	ImageProtocol  string        `toml:"image_protocol" mapstructure:"image_protocol"` // auto, kitty, iterm2, none
	Width          int           `toml:"width" mapstructure:"width"`                   // 0 = terminal width
	AvatarTimeout  time.Duration `toml:"avatar_timeout" mapstructure:"avatar_timeout"`
	ImageBaseURL   string        `toml:"image_base_url" mapstructure:"image_base_url"`
	LogLevel       string        `toml:"log_level" mapstructure:"log_level"`
	LogSink        string        `toml:"log_sink" mapstructure:"log_sink"` // stderr, stdout or file:<path>
	ListenAddr     string        `toml:"listen_addr" mapstructure:"listen_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Theme:          "auto",
		Locale:         "en-US",
		BrandName:      avatar.DefaultBrand.Name,
		BrandLogo:      avatar.DefaultBrand.Logo,
		BrandGlyph:     avatar.DefaultBrand.Glyph,
		EmptyTitle:     conversation.DefaultEmptyTitle,
		EmptyText:      conversation.DefaultEmptyText,
		LoadingCaption: conversation.DefaultLoadingCaption,
		ImageMaxHeight: message.DefaultImageMaxHeight,
		ImageProtocol:  "auto",
		AvatarTimeout:  5 * time.Second,
		LogLevel:       "info",
		LogSink:        "stderr",
		ListenAddr:     "127.0.0.1:8080",
	}
}

// DefaultPath is $HOME/.config/chatview/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "chatview", "config.toml"), nil
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("theme", d.Theme)
	v.SetDefault("locale", d.Locale)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("brand_name", d.BrandName)
	v.SetDefault("brand_logo", d.BrandLogo)
	v.SetDefault("brand_glyph", d.BrandGlyph)
	v.SetDefault("empty_title", d.EmptyTitle)
	v.SetDefault("empty_text", d.EmptyText)
	v.SetDefault("loading_caption", d.LoadingCaption)
	v.SetDefault("image_max_height", d.ImageMaxHeight)
	v.SetDefault("image_protocol", d.ImageProtocol)
	v.SetDefault("width", d.Width)
	v.SetDefault("avatar_timeout", d.AvatarTimeout)
	v.SetDefault("image_base_url", d.ImageBaseURL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_sink", d.LogSink)
	v.SetDefault("listen_addr", d.ListenAddr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads path into v and decodes the result. A missing file at the
// default location is not an error; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if def, err := DefaultPath(); err == nil {
		v.SetConfigFile(def)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", def, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Theme != "auto" && !slices.Contains(style.ThemeNames, c.Theme) {
		return fmt.Errorf("theme %q: want auto or one of %s", c.Theme, strings.Join(style.ThemeNames, ", "))
	}
	switch strings.ToLower(c.ImageProtocol) {
	case "auto", "kitty", "iterm2", "none", "off":
	default:
		return fmt.Errorf("image_protocol %q: want auto, kitty, iterm2 or none", c.ImageProtocol)
	}
	if c.ImageMaxHeight < 0 {
		return fmt.Errorf("image_max_height must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Brand returns the configured assistant brand.
func (c *Config) Brand() avatar.Brand {
	return avatar.Brand{Name: c.BrandName, Logo: c.BrandLogo, Glyph: c.BrandGlyph}
}

// Conversation returns render options for the configured locale and copy.
// probe may be nil.
func (c *Config) Conversation(probe avatar.Probe) conversation.Options {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return conversation.Options{
		Item: message.Options{
			Clock:          message.ClockForLocale(c.Locale, loc),
			Brand:          c.Brand(),
			Probe:          probe,
			ImageMaxHeight: c.ImageMaxHeight,
		},
		EmptyTitle:     c.EmptyTitle,
		EmptyText:      c.EmptyText,
		LoadingCaption: c.LoadingCaption,
	}
}

// Write encodes cfg as TOML at path. It refuses to overwrite an existing
// file.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at: %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
