// Package config carrega a configuração com viper: defaults, arquivo YAML
// opcional e variáveis de ambiente DOCSEARCH_*.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"docsearch-gateway/logging"
	"docsearch-gateway/middleware/origin"
	"docsearch-gateway/middleware/ratelimit/domain"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const EnvPrefix = "DOCSEARCH"

// Modos do site.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
	ModeTest        = "test"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Site      SiteConfig      `mapstructure:"site"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Search    SearchConfig    `mapstructure:"search"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Store     StoreConfig     `mapstructure:"store"`
	Content   ContentConfig   `mapstructure:"content"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SiteConfig struct {
	// Origin é a origem pública do site, ex. https://docs.example.com.
	Origin string `mapstructure:"origin"`
	Mode   string `mapstructure:"mode"`
}

type RateLimitConfig struct {
	MaxRequests   int           `mapstructure:"max_requests"`
	Window        time.Duration `mapstructure:"window"`
	TrustedHeader string        `mapstructure:"trusted_header"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type SearchConfig struct {
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
	MaxQueryLength int           `mapstructure:"max_query_length"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

// StatsConfig liga a contagem de decisões do rate limit no Redis.
type StatsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	TrackKeys     bool          `mapstructure:"track_keys"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ContentConfig struct {
	Dir string `mapstructure:"dir"`
}

type GeminiConfig struct {
	APIKey     string  `mapstructure:"api_key"`
	Model      string  `mapstructure:"model"`
	Dimensions int     `mapstructure:"dimensions"`
	RPS        float64 `mapstructure:"rps"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registra os defaults. Toda chave precisa de default para que a
// variável de ambiente correspondente seja vista por AllSettings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("site.origin", "")
	v.SetDefault("site.mode", ModeProduction)

	v.SetDefault("ratelimit.max_requests", 20)
	v.SetDefault("ratelimit.window", "60s")
	v.SetDefault("ratelimit.trusted_header", "none")
	v.SetDefault("ratelimit.sweep_interval", "60s")

	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 20)
	v.SetDefault("search.max_query_length", 500)
	v.SetDefault("search.max_concurrent", 8)
	v.SetDefault("search.acquire_timeout", "2s")

	v.SetDefault("stats.enabled", false)
	v.SetDefault("stats.redis_addr", "")
	v.SetDefault("stats.redis_password", "")
	v.SetDefault("stats.redis_db", 0)
	v.SetDefault("stats.prefix", "docsearch:ratelimit")
	v.SetDefault("stats.ttl", "24h")
	v.SetDefault("stats.track_keys", false)

	v.SetDefault("store.path", "docsearch.db")
	v.SetDefault("content.dir", "content")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-embedding-001")
	v.SetDefault("gemini.dimensions", 768)
	v.SetDefault("gemini.rps", 5.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logging.FormatJSON)
}

// NewViper devolve um viper com defaults e DOCSEARCH_SECAO_CHAVE ligado.
func NewViper() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

// Configure aplica prefixo de ambiente e defaults num viper existente.
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load decodifica e valida.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Site.Mode = strings.ToLower(strings.TrimSpace(cfg.Site.Mode))
	cfg.Site.Origin = strings.TrimSpace(cfg.Site.Origin)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Site.Mode {
	case ModeProduction, ModeDevelopment, ModeTest:
	default:
		errs = append(errs, fmt.Errorf("site.mode must be one of production, development, test (got %q)", c.Site.Mode))
	}
	if c.Site.Origin != "" {
		if _, err := origin.Parse(c.Site.Origin); err != nil {
			errs = append(errs, fmt.Errorf("site.origin: %w", err))
		}
	}

	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("ratelimit.max_requests must be > 0"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be > 0"))
	}
	if _, err := domain.ParseTrustedHeader(c.RateLimit.TrustedHeader); err != nil {
		errs = append(errs, fmt.Errorf("ratelimit.trusted_header: %w", err))
	}
	if c.RateLimit.SweepInterval < 0 {
		errs = append(errs, errors.New("ratelimit.sweep_interval must be >= 0"))
	}

	if c.Search.MaxLimit < 1 {
		errs = append(errs, errors.New("search.max_limit must be >= 1"))
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > c.Search.MaxLimit {
		errs = append(errs, errors.New("search.default_limit must be between 1 and search.max_limit"))
	}
	if c.Search.MaxQueryLength < 1 {
		errs = append(errs, errors.New("search.max_query_length must be >= 1"))
	}
	if c.Search.MaxConcurrent < 0 {
		errs = append(errs, errors.New("search.max_concurrent must be >= 0"))
	}

	if c.Stats.Enabled && strings.TrimSpace(c.Stats.RedisAddr) == "" {
		errs = append(errs, errors.New("stats.redis_addr is required when stats.enabled=true"))
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Gemini.Dimensions < 0 {
		errs = append(errs, errors.New("gemini.dimensions must be >= 0"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console (got %q)", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// OriginEnv traduz site.mode para o Env do validador de origem.
func (c *Config) OriginEnv() origin.Env {
	return origin.Env{
		Development: c.Site.Mode == ModeDevelopment,
		Test:        c.Site.Mode == ModeTest,
	}
}

// RateLimitConfig traduz a seção ratelimit para o domínio. Chamar depois de Validate.
func (c *Config) RateLimitConfig() domain.Config {
	header, _ := domain.ParseTrustedHeader(c.RateLimit.TrustedHeader)
	return domain.Config{
		MaxRequests:   c.RateLimit.MaxRequests,
		Window:        c.RateLimit.Window,
		TrustedHeader: header,
	}
}
