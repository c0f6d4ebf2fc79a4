package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/futusense/futusense/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig    `mapstructure:"server"`
	Data       DataConfig      `mapstructure:"data"`
	Storage    StorageConfig   `mapstructure:"storage"`
	LLM        LLMConfig       `mapstructure:"llm"`
	News       NewsConfig      `mapstructure:"news"`
	Fusion     FusionConfig    `mapstructure:"fusion"`
	Plan       PlanConfig      `mapstructure:"plan"`
	Collectors CollectorConfig `mapstructure:"collectors"`
	Metrics    MetricsConfig   `mapstructure:"metrics"`
	Alerts     AlertsConfig    `mapstructure:"alerts"`
	Symbols    []SymbolConfig  `mapstructure:"symbols"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"` // empty disables auth
}

type DataConfig struct {
	Timezone     string        `mapstructure:"timezone"`
	LookbackDays int           `mapstructure:"lookback_days"`
	Interval     time.Duration `mapstructure:"interval"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Claude   ClaudeConfig  `mapstructure:"claude"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // OpenAI-compatible endpoints
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// NewsConfig controls time-decay weighting and lexicon scoring.
type NewsConfig struct {
	MaxItems       int             `mapstructure:"max_items"`
	MaxAgeDays     int             `mapstructure:"max_age_days"`
	HalfLifeDays   float64         `mapstructure:"half_life_days"`
	MinWeight      float64         `mapstructure:"min_weight"`
	FreshBoostDays int             `mapstructure:"fresh_boost_days"`
	FreshBoost     float64         `mapstructure:"fresh_boost"`
	Supersede      SupersedeConfig `mapstructure:"supersede"`
	BullWords      []string        `mapstructure:"bull_words"`
	BearWords      []string        `mapstructure:"bear_words"`
}

// SupersedeConfig controls the newest-wins topic override.
type SupersedeConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Topics  []TopicConfig `mapstructure:"topics"`
}

// TopicConfig declares one supersede topic: items whose titles match a
// topic marker plus a directional cue compete within the topic key.
type TopicConfig struct {
	Key       string         `mapstructure:"key"`
	Markers   []string       `mapstructure:"markers"`
	UpWords   []string       `mapstructure:"up_words"`
	DownWords []string       `mapstructure:"down_words"`
	Entities  []EntityConfig `mapstructure:"entities"`
}

// EntityConfig refines a topic key by named entity (e.g. central bank).
type EntityConfig struct {
	Name    string   `mapstructure:"name"`
	Markers []string `mapstructure:"markers"`
}

// FusionConfig holds fusion weights and band thresholds.
type FusionConfig struct {
	Weights WeightsConfig `mapstructure:"weights"`
	Bands   BandsConfig   `mapstructure:"bands"`
}

type WeightsConfig struct {
	Macro  float64 `mapstructure:"macro"`
	Symbol float64 `mapstructure:"symbol"`
	Market float64 `mapstructure:"market"`
}

// BandsConfig holds the two positive band thresholds; negatives mirror.
type BandsConfig struct {
	Neutral float64 `mapstructure:"neutral"`
	Strong  float64 `mapstructure:"strong"`
}

// PlanConfig holds the ATR multiplier table per horizon.
type PlanConfig struct {
	ShortTerm HorizonConfig `mapstructure:"short_term"`
	Swing     HorizonConfig `mapstructure:"swing"`
	MidTerm   HorizonConfig `mapstructure:"mid_term"`
}

type HorizonConfig struct {
	Entry   float64 `mapstructure:"entry"`
	Stop    float64 `mapstructure:"stop"`
	Target1 float64 `mapstructure:"target1"`
	Target2 float64 `mapstructure:"target2"`
}

type CollectorConfig struct {
	Price        PriceCollectorConfig        `mapstructure:"price"`
	News         NewsCollectorConfig         `mapstructure:"news"`
	Fundamentals FundamentalsCollectorConfig `mapstructure:"fundamentals"`
}

type PriceCollectorConfig struct {
	Provider string `mapstructure:"provider"`
	Endpoint string `mapstructure:"endpoint"`
}

// FundamentalsCollectorConfig points at a JSON endpoint serving raw
// fundamentals modules per symbol. Empty endpoint disables the feed.
type FundamentalsCollectorConfig struct {
	Endpoint string `mapstructure:"endpoint"` // {code} slot substituted per symbol
}

type NewsCollectorConfig struct {
	Feeds []FeedConfig `mapstructure:"feeds"`
}

type FeedConfig struct {
	Name  string `mapstructure:"name"`
	URL   string `mapstructure:"url"`
	Scope string `mapstructure:"scope"` // "macro" or "symbol"
}

// AlertsConfig controls change notifications between runs. A channel
// with empty credentials is left unwired.
type AlertsConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SymbolConfig declares one watched instrument.
type SymbolConfig struct {
	ID       string         `mapstructure:"id"`
	Name     string         `mapstructure:"name"`
	Enabled  *bool          `mapstructure:"enabled"`
	Keywords []string       `mapstructure:"keywords"`
	FeedCode string         `mapstructure:"feed_code"`
	Weights  *WeightsConfig `mapstructure:"weights"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with the documented defaults.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Data: DataConfig{
			Timezone:     "Asia/Shanghai",
			LookbackDays: 180,
			Interval:     6 * time.Hour,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "data",
		},
		LLM: LLMConfig{
			Timeout: 30 * time.Second,
		},
		News: NewsConfig{
			MaxItems:       30,
			MaxAgeDays:     30,
			HalfLifeDays:   10,
			MinWeight:      0.0005,
			FreshBoostDays: 1,
			FreshBoost:     1.25,
			Supersede:      SupersedeConfig{Enabled: true},
		},
		Fusion: FusionConfig{
			Weights: WeightsConfig{Macro: 0.30, Symbol: 0.30, Market: 0.40},
			Bands:   BandsConfig{Neutral: 0.1, Strong: 0.4},
		},
		Plan: PlanConfig{
			ShortTerm: HorizonConfig{Entry: 0.5, Stop: 1.5, Target1: 1.0, Target2: 2.0},
			Swing:     HorizonConfig{Entry: 1.0, Stop: 2.5, Target1: 2.0, Target2: 4.0},
			MidTerm:   HorizonConfig{Entry: 1.5, Stop: 3.5, Target1: 3.0, Target2: 6.0},
		},
		Collectors: CollectorConfig{
			Price: PriceCollectorConfig{Provider: "eastmoney"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors. A failure here is
// fatal at startup: it indicates an unusable run, not a data gap.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if err := c.Fusion.Weights.validate("fusion.weights"); err != nil {
		return err
	}
	for _, s := range c.Symbols {
		if s.ID == "" {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("symbol without id"))
		}
		if s.Weights != nil {
			if err := s.Weights.validate("symbols." + s.ID + ".weights"); err != nil {
				return err
			}
		}
	}

	if c.Fusion.Bands.Neutral <= 0 || c.Fusion.Bands.Strong <= c.Fusion.Bands.Neutral || c.Fusion.Bands.Strong >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("bands require 0 < neutral < strong < 1, got %v/%v",
				c.Fusion.Bands.Neutral, c.Fusion.Bands.Strong))
	}

	if c.News.HalfLifeDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("news.half_life_days must be positive, got %v", c.News.HalfLifeDays))
	}
	if c.News.FreshBoost < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("news.fresh_boost must be >= 1, got %v", c.News.FreshBoost))
	}

	for name, h := range map[string]HorizonConfig{
		"short_term": c.Plan.ShortTerm,
		"swing":      c.Plan.Swing,
		"mid_term":   c.Plan.MidTerm,
	} {
		if h.Entry <= 0 || h.Stop <= 0 || h.Target1 <= 0 || h.Target2 < h.Target1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("plan.%s multipliers must be positive with target2 >= target1", name))
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	return nil
}

func (w WeightsConfig) validate(field string) error {
	if w.Macro < 0 || w.Symbol < 0 || w.Market < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s must be non-negative", field))
	}
	if w.Macro+w.Symbol+w.Market <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s must not all be zero", field))
	}
	return nil
}

// CoreWeights converts to the core weight type.
func (w WeightsConfig) CoreWeights() core.Weights {
	return core.Weights{Macro: w.Macro, Symbol: w.Symbol, Market: w.Market}
}

// EnabledSymbols returns the watchlist with disabled entries removed.
func (c *Config) EnabledSymbols() []core.Symbol {
	out := make([]core.Symbol, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		if s.Enabled != nil && !*s.Enabled {
			continue
		}
		sym := core.Symbol{
			ID:       s.ID,
			Name:     s.Name,
			Keywords: s.Keywords,
			FeedCode: s.FeedCode,
		}
		if s.Weights != nil {
			w := s.Weights.CoreWeights()
			sym.Weights = &w
		}
		out = append(out, sym)
	}
	return out
}
