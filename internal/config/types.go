// Package config loads the bot configuration from a YAML/JSON file with
// environment variable overrides, and hot-reloads it on file change.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Duration accepts "3m", "90s" style strings in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*d = Duration(time.Duration(x) * time.Second)
		return nil
	case string:
		dur, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		*d = Duration(dur)
		return nil
	default:
		return fmt.Errorf("invalid duration: %v", v)
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

type TelegramConfig struct {
	BotToken    string   `json:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	PollTimeout Duration `json:"poll_timeout,omitempty"`
}

type ChannelConfig struct {
	// Target is the monitored broadcast channel, with or without a
	// leading @.
	Target string `json:"target" env:"TARGET_CHANNEL"`
	// PreviewBaseURL overrides the t.me endpoint, mainly for tests.
	PreviewBaseURL string `json:"preview_base_url,omitempty"`
}

type OpenAIConfig struct {
	APIKey string `json:"api_key" env:"OPENAI_API_KEY"`
	Model  string `json:"model,omitempty"`
}

type StoreConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty" env:"SUBSCRIBERS_DB_PATH"`
	URL    string `json:"url,omitempty" env:"DATABASE_URL"`
}

type MonitorConfig struct {
	// SummaryIntervalMin is the normal cadence between passes, minutes.
	SummaryIntervalMin int `json:"summary_interval_min,omitempty" env:"SUMMARY_INTERVAL"`
	// TestingIntervalMin replaces it when the bot runs in testing mode.
	TestingIntervalMin int `json:"testing_interval_min,omitempty" env:"TESTING_INTERVAL"`
	// Schedule is an optional cron expression for extra fixed-time
	// distribution passes on top of the interval loop.
	Schedule string `json:"schedule,omitempty"`
}

type LogConfig struct {
	Level   string `json:"level,omitempty" env:"LOG_LEVEL"`
	Console bool   `json:"console,omitempty"`
	File    string `json:"file,omitempty"`
}

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Channel  ChannelConfig  `json:"channel"`
	OpenAI   OpenAIConfig   `json:"openai"`
	Store    StoreConfig    `json:"store,omitempty"`
	Monitor  MonitorConfig  `json:"monitor,omitempty"`
	Log      LogConfig      `json:"log,omitempty"`

	// OwnerID unlocks operator-only commands. Zero disables them.
	OwnerID int64 `json:"owner_id,omitempty" env:"OWNER_ID"`
	// Timezone is used for summary timestamps.
	Timezone string `json:"timezone,omitempty" env:"BOT_TIMEZONE"`
}

// ApplyDefaults fills everything that may be omitted from the file.
func (c *Config) ApplyDefaults() {
	if c.Channel.Target == "" {
		c.Channel.Target = "marketfeed"
	}
	if c.Store.Path == "" {
		c.Store.Path = "subscribers.db"
	}
	if c.Monitor.SummaryIntervalMin <= 0 {
		c.Monitor.SummaryIntervalMin = 180
	}
	if c.Monitor.TestingIntervalMin <= 0 {
		c.Monitor.TestingIntervalMin = 5
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = Duration(10 * time.Second)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Singapore"
	}
}

// Validate checks that everything required to start is present.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		problems = append(problems, "telegram.bot_token is required")
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		problems = append(problems, "openai.api_key is required")
	}
	if strings.TrimSpace(c.Channel.Target) == "" {
		problems = append(problems, "channel.target is required")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			problems = append(problems, "timezone is not a valid IANA zone: "+c.Timezone)
		}
	}
	if spec := strings.TrimSpace(c.Monitor.Schedule); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			problems = append(problems, "monitor.schedule is not a valid cron expression: "+spec)
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

// SummaryInterval returns the active pass cadence.
func (c *Config) SummaryInterval(testing bool) time.Duration {
	if testing {
		return time.Duration(c.Monitor.TestingIntervalMin) * time.Minute
	}
	return time.Duration(c.Monitor.SummaryIntervalMin) * time.Minute
}
