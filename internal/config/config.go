package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/segment-research/internal/cost"
	"github.com/sells-group/segment-research/internal/model"
)

// Config is the top-level configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Relay     RelayConfig     `yaml:"relay" mapstructure:"relay"`
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Gate      GateConfig      `yaml:"gate" mapstructure:"gate"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Verticals VerticalsConfig `yaml:"verticals" mapstructure:"verticals"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
}

type AnthropicConfig struct {
	Key             string   `yaml:"key" mapstructure:"key"`
	BaseURL         string   `yaml:"base_url" mapstructure:"base_url"`
	Model           string   `yaml:"model" mapstructure:"model"`
	SynthesisModel  string   `yaml:"synthesis_model" mapstructure:"synthesis_model"`
	ReasoningModels []string `yaml:"reasoning_models" mapstructure:"reasoning_models"`
}

// RelayConfig configures the secondary provider. It is disabled when Key is empty.
type RelayConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Enabled reports whether the relay is configured.
func (r RelayConfig) Enabled() bool {
	return r.Key != ""
}

type SerperConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

type LLMConfig struct {
	CallTimeoutSecs int `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
}

// GateConfig holds the hard gate and tier thresholds for niche scoring.
type GateConfig struct {
	HardGate          int `yaml:"hard_gate" mapstructure:"hard_gate"`
	Tier1MinTotal     int `yaml:"tier1_min_total" mapstructure:"tier1_min_total"`
	Tier1MinAlignment int `yaml:"tier1_min_alignment" mapstructure:"tier1_min_alignment"`
	Tier2MinTotal     int `yaml:"tier2_min_total" mapstructure:"tier2_min_total"`
	Tier2MinAlignment int `yaml:"tier2_min_alignment" mapstructure:"tier2_min_alignment"`
	Tier3MinTotal     int `yaml:"tier3_min_total" mapstructure:"tier3_min_total"`
	Tier3MinAlignment int `yaml:"tier3_min_alignment" mapstructure:"tier3_min_alignment"`
}

// Policy converts the gate config into a tier policy.
func (g GateConfig) Policy() model.TierPolicy {
	return model.TierPolicy{
		HardGate: g.HardGate,
		Tier1:    model.TierThreshold{MinTotal: g.Tier1MinTotal, MinAlignment: g.Tier1MinAlignment},
		Tier2:    model.TierThreshold{MinTotal: g.Tier2MinTotal, MinAlignment: g.Tier2MinAlignment},
		Tier3:    model.TierThreshold{MinTotal: g.Tier3MinTotal, MinAlignment: g.Tier3MinAlignment},
	}
}

type ResearchConfig struct {
	PageCharCap        int `yaml:"page_char_cap" mapstructure:"page_char_cap"`
	SearchCharCap      int `yaml:"search_char_cap" mapstructure:"search_char_cap"`
	EvidenceCharCap    int `yaml:"evidence_char_cap" mapstructure:"evidence_char_cap"`
	NumResults         int `yaml:"num_results" mapstructure:"num_results"`
	ScoringConcurrency int `yaml:"scoring_concurrency" mapstructure:"scoring_concurrency"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

type VerticalsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Serper    SerperPricing           `yaml:"serper" mapstructure:"serper"`
	Jina      JinaPricing             `yaml:"jina" mapstructure:"jina"`
}

type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

type SerperPricing struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

type JinaPricing struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// Rates converts pricing config into calculator rates, falling back to
// the built-in model table when none are configured.
func (p PricingConfig) Rates() cost.Rates {
	rates := cost.DefaultRates()
	for model, mp := range p.Anthropic {
		rates.Models[model] = cost.ModelRate{Input: mp.Input, Output: mp.Output}
	}
	if p.Serper.PerQuery > 0 {
		rates.Search["serper"] = p.Serper.PerQuery
	}
	if p.Jina.PerQuery > 0 {
		rates.Search["jina"] = p.Jina.PerQuery
	}
	return rates
}

// Load reads config.yaml from the working directory, a .env file if one
// exists, and SEGMENT_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SEGMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets have no defaults but must be registered for env lookup.
	for _, key := range []string{"anthropic.key", "relay.key", "serper.key", "jina.key", "store.redis_addr"} {
		_ = v.BindEnv(key)
	}

	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.synthesis_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("relay.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.rps", 5.0)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("llm.call_timeout_secs", 180)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("gate.hard_gate", 5)
	v.SetDefault("gate.tier1_min_total", 35)
	v.SetDefault("gate.tier1_min_alignment", 7)
	v.SetDefault("gate.tier2_min_total", 30)
	v.SetDefault("gate.tier2_min_alignment", 6)
	v.SetDefault("gate.tier3_min_total", 25)
	v.SetDefault("gate.tier3_min_alignment", 5)
	v.SetDefault("research.page_char_cap", 3000)
	v.SetDefault("research.search_char_cap", 1500)
	v.SetDefault("research.evidence_char_cap", 40000)
	v.SetDefault("research.num_results", 10)
	v.SetDefault("research.scoring_concurrency", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "segment-research.db")
	v.SetDefault("store.cache_ttl_hours", 168)
	v.SetDefault("verticals.path", "verticals.yaml")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pricing.serper.per_query", 0.001)
	v.SetDefault("pricing.jina.per_query", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by a command mode: "run",
// "score", "serve" or "export".
func (c *Config) Validate(mode string) error {
	var missing []string
	switch mode {
	case "run", "score", "serve":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key")
		}
		if c.Serper.Key == "" {
			missing = append(missing, "serper.key")
		}
	case "export":
		if c.Store.Driver == "none" {
			return eris.New("config: export requires a store driver")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}

	if mode == "serve" && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return eris.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	switch c.Store.Driver {
	case "sqlite", "redis", "none":
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}

	g := c.Gate
	if g.HardGate < 0 || g.HardGate > 10 {
		return eris.Errorf("config: gate.hard_gate %d must be within [0,10]", g.HardGate)
	}
	if g.Tier1MinTotal < g.Tier2MinTotal || g.Tier2MinTotal < g.Tier3MinTotal {
		return eris.New("config: tier totals must be non-increasing from tier1 to tier3")
	}
	return nil
}

// InitLogger replaces the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
