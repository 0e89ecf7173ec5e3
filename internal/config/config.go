package config

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"strings"
	"time"
)

const (
	VariantHeuristic  = "heuristic"
	VariantScientific = "scientific"
)

type Config struct {
	LogLevel string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Overpass OverpassConfig `mapstructure:"overpass"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Fallback FallbackConfig `mapstructure:"fallback"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

type OverpassConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url" validate:"required_if=Enabled true,omitempty,url"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RadiusMeters int           `mapstructure:"radius_meters" validate:"gte=100,lte=10000"`
}

// EngineConfig selects the mitigation model and its caps. Exactly one model
// is active per deployment.
type EngineConfig struct {
	Variant          string  `mapstructure:"variant" validate:"oneof=heuristic scientific"`
	ScenarioCap      float64 `mapstructure:"scenario_cap" validate:"gt=0,lte=1"`
	AggregateCap     float64 `mapstructure:"aggregate_cap" validate:"gt=0,lte=1"`
	StrictInvariants bool    `mapstructure:"strict_invariants"`
	CatalogPath      string  `mapstructure:"catalog_path"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type SourcesConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=1s,lte=90s"`
	ProsecutorURL    string        `mapstructure:"prosecutor_url" validate:"omitempty,url"`
	SocioeconomicURL string        `mapstructure:"socioeconomic_url" validate:"omitempty,url"`
	CivilSocietyURL  string        `mapstructure:"civil_society_url" validate:"omitempty,url"`
	RatePerSecond    float64       `mapstructure:"rate_per_second" validate:"gt=0"`
	Burst            int           `mapstructure:"burst" validate:"gte=1"`
}

// FallbackConfig decides when synthetic crime data may stand in for missing
// official data. Both are off by default.
type FallbackConfig struct {
	OnNotFound    bool `mapstructure:"on_not_found"`
	OnUnavailable bool `mapstructure:"on_unavailable"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("overpass.enabled", false)
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout", "15s")
	v.SetDefault("overpass.radius_meters", 1500)
	v.SetDefault("engine.variant", VariantHeuristic)
	v.SetDefault("engine.scenario_cap", 0.75)
	v.SetDefault("engine.aggregate_cap", 0.50)
	v.SetDefault("engine.strict_invariants", false)
	v.SetDefault("engine.catalog_path", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "45m")
	v.SetDefault("sources.timeout", "30s")
	v.SetDefault("sources.prosecutor_url", "")
	v.SetDefault("sources.socioeconomic_url", "")
	v.SetDefault("sources.civil_society_url", "")
	v.SetDefault("sources.rate_per_second", 2.0)
	v.SetDefault("sources.burst", 4)
	v.SetDefault("fallback.on_not_found", false)
	v.SetDefault("fallback.on_unavailable", false)
}

// Load reads configuration from an optional YAML file and RISK_* environment
// variables, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
