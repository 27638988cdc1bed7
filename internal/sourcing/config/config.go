// Package config loads vendorscore settings from defaults, a YAML file,
// VENDORSCORE_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/score"
	"github.com/build-flow-labs/vendorscore/schema"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "VENDORSCORE"

// Source kinds.
const (
	SourceFile   = "file"
	SourceNotion = "notion"
	SourceGitHub = "github"
)

// Config is the full application configuration.
type Config struct {
	Weights    WeightsConfig    `mapstructure:"weights"`
	Thresholds score.Thresholds `mapstructure:"thresholds"`
	Source     SourceConfig     `mapstructure:"source"`
	History    HistoryConfig    `mapstructure:"history"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// WeightsConfig holds raw pillar coefficients. They need not sum to 1.
type WeightsConfig struct {
	TotalCost float64 `mapstructure:"total_cost"`
	TotalTime float64 `mapstructure:"total_time"`
	Maturity  float64 `mapstructure:"maturity"`
	Capacity  float64 `mapstructure:"capacity"`
}

// ToWeights returns the normalized weight set.
func (w WeightsConfig) ToWeights() schema.Weights {
	return schema.NewWeights(w.TotalCost, w.TotalTime, w.Maturity, w.Capacity)
}

// SourceConfig selects and configures where vendor data comes from.
type SourceConfig struct {
	Kind   string       `mapstructure:"kind"`
	File   FileConfig   `mapstructure:"file"`
	Notion NotionConfig `mapstructure:"notion"`
	GitHub GitHubConfig `mapstructure:"github"`
}

type FileConfig struct {
	Path string `mapstructure:"path"`
}

type NotionConfig struct {
	Token           string        `mapstructure:"token"`
	VendorsDatabase string        `mapstructure:"vendors_database"`
	PartsDatabase   string        `mapstructure:"parts_database"`
	BaseURL         string        `mapstructure:"base_url"`
	Version         string        `mapstructure:"version"`
	MinInterval     time.Duration `mapstructure:"min_interval"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Concurrency     int           `mapstructure:"concurrency"`
}

type GitHubConfig struct {
	Owner   string `mapstructure:"owner"`
	Repo    string `mapstructure:"repo"`
	Ref     string `mapstructure:"ref"`
	Path    string `mapstructure:"path"`
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// HistoryConfig configures the score snapshot store. An empty DSN disables it.
type HistoryConfig struct {
	DSN       string        `mapstructure:"dsn"`
	Retention time.Duration `mapstructure:"retention"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	w := schema.DefaultWeights()
	return Config{
		Weights: WeightsConfig{
			TotalCost: w.Cost,
			TotalTime: w.Time,
			Maturity:  w.Maturity,
			Capacity:  w.Capacity,
		},
		Thresholds: score.DefaultThresholds(),
		Source: SourceConfig{
			Kind: SourceFile,
			File: FileConfig{Path: "vendors.yaml"},
			Notion: NotionConfig{
				BaseURL:     "https://api.notion.com/v1",
				Version:     "2022-06-28",
				MinInterval: 350 * time.Millisecond,
				MaxRetries:  3,
				Timeout:     30 * time.Second,
				Concurrency: 4,
			},
			GitHub: GitHubConfig{Ref: "main", Path: "vendors.yaml"},
		},
		History: HistoryConfig{Retention: 365 * 24 * time.Hour},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// NewViper returns a viper instance preloaded with defaults and env bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, "", Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known token variables work without the prefix.
	_ = v.BindEnv("source.notion.token", EnvPrefix+"_SOURCE_NOTION_TOKEN", "NOTION_TOKEN")
	_ = v.BindEnv("source.github.token", EnvPrefix+"_SOURCE_GITHUB_TOKEN", "GITHUB_TOKEN")
	return v
}

// setDefaults registers every leaf of cfg so env overrides apply to nested keys.
func setDefaults(v *viper.Viper, prefix string, cfg any) {
	var m map[string]any
	if err := mapstructure.Decode(cfg, &m); err != nil {
		panic(fmt.Sprintf("config: encoding defaults: %v", err))
	}
	setMapDefaults(v, prefix, m)
}

func setMapDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setMapDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// BindFlags lets the given flags override their config keys. The map is
// config key to flag name.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration into a Config. When file is empty, vendorscore.yaml
// is searched in the working directory and $HOME/.config/vendorscore; a
// missing file is not an error in that case.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("vendorscore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/vendorscore")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks source selection, credentials and numeric ranges.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.File.Path == "" {
			errs = append(errs, errors.New("source.file.path is required"))
		}
	case SourceNotion:
		n := c.Source.Notion
		if n.Token == "" {
			errs = append(errs, errors.New("source.notion.token is required (or NOTION_TOKEN)"))
		}
		if n.VendorsDatabase == "" || n.PartsDatabase == "" {
			errs = append(errs, errors.New("source.notion.vendors_database and parts_database are required"))
		}
	case SourceGitHub:
		g := c.Source.GitHub
		if g.Owner == "" || g.Repo == "" {
			errs = append(errs, errors.New("source.github.owner and repo are required"))
		}
		if g.Path == "" {
			errs = append(errs, errors.New("source.github.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q (want file, notion or github)", c.Source.Kind))
	}

	w := c.Weights
	if w.TotalCost < 0 || w.TotalTime < 0 || w.Maturity < 0 || w.Capacity < 0 {
		errs = append(errs, errors.New("weights must not be negative"))
	}

	th := c.Thresholds
	if th.StaleHighDays < th.StaleDays {
		errs = append(errs, errors.New("thresholds.stale_high_days must be >= stale_days"))
	}
	if th.CostSpikeHigh < th.CostSpike {
		errs = append(errs, errors.New("thresholds.cost_spike_high must be >= cost_spike"))
	}
	if th.MinCapacityHigh > th.MinCapacity {
		errs = append(errs, errors.New("thresholds.min_capacity_high must be <= min_capacity"))
	}

	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown log.level %q", l.Level)
	}
	return lvl, nil
}

// Logger builds a slog logger writing to w in the configured format.
func (l LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
