// Package config provides newsagent configuration management.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	appconfig "github.com/RobinCoderZhao/newsagent/pkg/config"
	"github.com/RobinCoderZhao/newsagent/pkg/i18n"
	"github.com/RobinCoderZhao/newsagent/pkg/period"
	"github.com/robfig/cron/v3"
)

// ErrInvalid marks configuration that cannot be used to start the agent.
var ErrInvalid = errors.New("invalid configuration")

// Config is the main configuration for newsagent. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	GNews    GNewsConfig      `yaml:"gnews"`
	RSS      RSSConfig        `yaml:"rss"`
	Keywords []string         `yaml:"keywords" env:"NEWSAGENT_KEYWORDS"`
	Report   ReportConfig     `yaml:"report"`
	Callback CallbackConfig   `yaml:"callback"`
	Server   ServerConfig     `yaml:"server"`
	Store    StoreConfig      `yaml:"store"`
	Log      LogConfig        `yaml:"log"`
	Schedule []ScheduleConfig `yaml:"schedules"`
}

// GNewsConfig holds the keyword-search API credentials and locale.
type GNewsConfig struct {
	APIKey   string        `yaml:"api_key" env:"GNEWS_API_KEY"`
	Language string        `yaml:"language" env:"GNEWS_LANGUAGE"`
	Country  string        `yaml:"country" env:"GNEWS_COUNTRY"`
	BaseURL  string        `yaml:"base_url" env:"GNEWS_BASE_URL"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RSSConfig lists the feeds fetched on every run.
type RSSConfig struct {
	Feeds   []string      `yaml:"feeds" env:"NEWSAGENT_FEEDS"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReportConfig controls how articles are rendered into the report.
type ReportConfig struct {
	IncludeSummary bool `yaml:"include_summary" env:"NEWSAGENT_INCLUDE_SUMMARY"`
	SummaryLength  int  `yaml:"summary_length"`
}

// CallbackConfig configures outbound webhook delivery.
type CallbackConfig struct {
	Timeout time.Duration     `yaml:"timeout" env:"NEWSAGENT_CALLBACK_TIMEOUT"`
	Headers map[string]string `yaml:"headers"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"NEWSAGENT_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig configures the run ledger. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path" env:"NEWSAGENT_DB"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"` // "text" or "json"
}

// ScheduleConfig submits a run on a cron schedule.
type ScheduleConfig struct {
	Name        string `yaml:"name"`
	Cron        string `yaml:"cron"`
	Period      string `yaml:"period"`
	CallbackURL string `yaml:"callback_url"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GNews: GNewsConfig{
			Language: "en",
			Country:  "us",
			BaseURL:  "https://gnews.io/api/v4/search",
			Timeout:  15 * time.Second,
		},
		RSS: RSSConfig{
			Timeout: 15 * time.Second,
		},
		Report: ReportConfig{
			SummaryLength: 300,
		},
		Callback: CallbackConfig{
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":3000",
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path: "newsagent.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env files, the YAML file at path and environment overrides, then validates the result.
// A missing file is not an error: defaults and environment variables are used alone.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := appconfig.LoadDotEnv(); err != nil {
		return cfg, err
	}
	// An unset language follows the configured country.
	cfg.GNews.Language = ""
	if err := appconfig.LoadOrDefault(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.GNews.Language == "" {
		lang, _ := i18n.CountryToLanguage(cfg.GNews.Country)
		cfg.GNews.Language = string(lang)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every problem that would make a run impossible.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.GNews.APIKey) == "" || strings.HasPrefix(c.GNews.APIKey, "${") {
		problems = append(problems, "gnews.api_key is required (set GNEWS_API_KEY)")
	}
	if c.GNews.BaseURL != "" && !isHTTPURL(c.GNews.BaseURL) {
		problems = append(problems, fmt.Sprintf("gnews.base_url %q is not an http(s) URL", c.GNews.BaseURL))
	}
	if !i18n.IsValidLanguage(c.GNews.Language) {
		problems = append(problems, fmt.Sprintf("gnews.language %q is not supported", c.GNews.Language))
	}
	if !i18n.IsValidCountry(c.GNews.Country) {
		problems = append(problems, fmt.Sprintf("gnews.country %q is not supported", c.GNews.Country))
	}
	if len(c.Keywords) == 0 {
		problems = append(problems, "keywords must not be empty")
	}
	for i, k := range c.Keywords {
		if strings.TrimSpace(k) == "" {
			problems = append(problems, fmt.Sprintf("keywords[%d] is blank", i))
		}
	}
	for i, f := range c.RSS.Feeds {
		if !isHTTPURL(f) {
			problems = append(problems, fmt.Sprintf("rss.feeds[%d] %q is not an http(s) URL", i, f))
		}
	}
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	for i, s := range c.Schedule {
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			problems = append(problems, fmt.Sprintf("schedules[%d].cron %q: %v", i, s.Cron, err))
		}
		if !isHTTPURL(s.CallbackURL) {
			problems = append(problems, fmt.Sprintf("schedules[%d].callback_url %q is not an http(s) URL", i, s.CallbackURL))
		}
		if _, err := period.Parse(s.Period); err != nil {
			problems = append(problems, fmt.Sprintf("schedules[%d].period: %v", i, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
