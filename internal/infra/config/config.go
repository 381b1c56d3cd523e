// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/karaokebox/internal/domain/flowrule"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/queue"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig              `yaml:"server"`
	Admin    AdminConfig               `yaml:"admin"`
	Room     RoomConfig                `yaml:"room"`
	Presets  map[string]map[string]any `yaml:"presets"`
	Filters  map[string]FilterConfig   `yaml:"filters"`
	Messages MessagesConfig            `yaml:"messages"`
	Store    StoreConfig               `yaml:"store"`
	Spotify  SpotifyConfig             `yaml:"spotify"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr        string      `yaml:"addr" default:":8080"`
	MetricsPath string      `yaml:"metrics_path" default:"/metrics"`
	Hooks       HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token        string   `yaml:"token" validate:"required"`
	DisplayNames []string `yaml:"display_names"`
}

// RoomConfig holds the defaults applied to newly created rooms.
// QueueSettings and PartyPolicy are raw maps; unknown or out-of-range values are
// normalized rather than rejected.
type RoomConfig struct {
	DefaultTitle  string         `yaml:"default_title" default:"Karaoke Night"`
	FlowRule      string         `yaml:"flow_rule" default:"balanced"`
	QueueSettings map[string]any `yaml:"queue_settings"`
	PartyPolicy   map[string]any `yaml:"party_policy"`
	HeavyModes    []string       `yaml:"heavy_modes"`
	EventBuffer   int            `yaml:"event_buffer" default:"32" validate:"gte=1,lte=1024"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents participant-facing messages.
type MessagesConfig struct {
	Success               string `yaml:"success" default:"Your song is in the queue!"`
	Pending               string `yaml:"pending" default:"Your song is in, but others go first."`
	DefaultError          string `yaml:"default_error" default:"Your request could not be accepted."`
	RoomClosed            string `yaml:"room_closed" default:"The room is closed for requests."`
	LastCallPassed        string `yaml:"last_call_passed" default:"Last call has passed."`
	EmptyTitle            string `yaml:"empty_title" default:"Tell us which song you want to sing."`
	Kicked                string `yaml:"kicked" default:"You can no longer request songs."`
	SingerQueued          string `yaml:"singer_queued" default:"You already have a song waiting."`
	DuplicateSong         string `yaml:"duplicate_song" default:"That song is already in the queue."`
	DurationLimitExceeded string `yaml:"duration_limit_exceeded" default:"That song is too short or too long."`
	RequestLimit          string `yaml:"request_limit" default:"You have reached the request limit."`
	SongNotFound          string `yaml:"song_not_found" default:"That song could not be found."`
	InvalidSinger         string `yaml:"invalid_singer" default:"Join the room before requesting."`
}

// StoreConfig selects the room store.
type StoreConfig struct {
	Driver string `yaml:"driver" default:"memory" validate:"oneof=memory sqlite postgres"`
	DSN    string `yaml:"dsn" validate:"required_unless=Driver memory"`
}

// SpotifyConfig represents Spotify API configuration used for song lookup.
type SpotifyConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id" validate:"required_if=Enabled true"`
	ClientSecret string `yaml:"client_secret" validate:"required_if=Enabled true"`
	RefreshToken string `yaml:"refresh_token" validate:"required_if=Enabled true"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("KARAOKEBOX_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return c.Messages.Success
	case "pending":
		return c.Messages.Pending
	case "room_closed":
		return c.Messages.RoomClosed
	case "last_call_passed":
		return c.Messages.LastCallPassed
	case "empty_title":
		return c.Messages.EmptyTitle
	case "kicked":
		return c.Messages.Kicked
	case "singer_queued":
		return c.Messages.SingerQueued
	case "duplicate_song":
		return c.Messages.DuplicateSong
	case "duration_limit_exceeded":
		return c.Messages.DurationLimitExceeded
	case "request_limit":
		return c.Messages.RequestLimit
	case "song_not_found":
		return c.Messages.SongNotFound
	case "invalid_singer":
		return c.Messages.InvalidSinger
	default:
		return c.Messages.DefaultError
	}
}

// IsAdminDisplayName checks if the given display name is an admin.
func (c *Config) IsAdminDisplayName(displayName string) bool {
	for _, name := range c.Admin.DisplayNames {
		if name == displayName {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if _, ok := flowrule.DefaultCatalog().Get(c.Room.FlowRule); !ok && c.Room.FlowRule != "" {
		return errors.Newf("unknown flow rule %q", c.Room.FlowRule)
	}
	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// FilterSettings returns the settings for a filter.
func (c *Config) FilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok && f.Settings != nil {
		return f.Settings
	}
	return map[string]any{}
}

// RoomQueueSettings returns the queue settings new rooms start with.
// Without overrides these are the settings of the configured flow rule.
func (c *Config) RoomQueueSettings() queue.Settings {
	settings := flowrule.DefaultCatalog().Resolve(c.Room.FlowRule)
	if len(c.Room.QueueSettings) == 0 {
		return settings
	}
	return queue.Merge(settings, c.Room.QueueSettings)
}

// RoomPolicy returns the party policy new rooms start with.
func (c *Config) RoomPolicy() party.Policy {
	return party.PolicyFromMap(c.Room.PartyPolicy)
}

// HeavyModes returns the configured heavy modes, or nil for the default set.
func (c *Config) HeavyModes() party.ModeSet {
	if len(c.Room.HeavyModes) == 0 {
		return nil
	}
	modes := make([]party.Mode, 0, len(c.Room.HeavyModes))
	for _, m := range c.Room.HeavyModes {
		modes = append(modes, party.ParseMode(m))
	}
	return party.NewModeSet(modes...)
}

// FlowPresets returns the configured presets.
func (c *Config) FlowPresets() flowrule.Presets {
	return flowrule.Presets(c.Presets)
}
