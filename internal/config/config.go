package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "CLIPSTORE"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultLogLevel          = "info"
	defaultTokenIssuer       = "clipstore-auth"
	defaultTokenAudience     = "clipstore-api"
	defaultTokenTTLMinutes   = 60
	defaultCookieName        = "clipstore_session"
	defaultCorpusCap         = 1000
	defaultResultLimit       = 50
	defaultSearchRatePerSec  = 5.0
	defaultSearchBurst       = 10
	defaultHistoryLimit      = 100
	defaultAllowedCORSOrigin = "*"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress        string
	LogLevel           string
	SigningSecret      string
	TokenIssuer        string
	TokenAudience      string
	TokenTTL           time.Duration
	SessionCookieName  string
	CORSAllowedOrigins []string
	SearchCorpusCap    int
	SearchResultLimit  int
	SearchRatePerSec   float64
	SearchBurst        int
	HistoryLimit       int
	Categories         []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.cors_origins", []string{defaultAllowedCORSOrigin})
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.issuer", defaultTokenIssuer)
	configViper.SetDefault("auth.audience", defaultTokenAudience)
	configViper.SetDefault("auth.token_ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("auth.cookie_name", defaultCookieName)
	configViper.SetDefault("search.corpus_cap", defaultCorpusCap)
	configViper.SetDefault("search.result_limit", defaultResultLimit)
	configViper.SetDefault("search.rate_per_second", defaultSearchRatePerSec)
	configViper.SetDefault("search.burst", defaultSearchBurst)
	configViper.SetDefault("catalog.history_limit", defaultHistoryLimit)
	configViper.SetDefault("catalog.categories", []string{})
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		LogLevel:           configViper.GetString("log.level"),
		SigningSecret:      configViper.GetString("auth.signing_secret"),
		TokenIssuer:        configViper.GetString("auth.issuer"),
		TokenAudience:      configViper.GetString("auth.audience"),
		TokenTTL:           time.Duration(configViper.GetInt("auth.token_ttl_minutes")) * time.Minute,
		SessionCookieName:  configViper.GetString("auth.cookie_name"),
		CORSAllowedOrigins: trimAll(configViper.GetStringSlice("http.cors_origins")),
		SearchCorpusCap:    configViper.GetInt("search.corpus_cap"),
		SearchResultLimit:  configViper.GetInt("search.result_limit"),
		SearchRatePerSec:   configViper.GetFloat64("search.rate_per_second"),
		SearchBurst:        configViper.GetInt("search.burst"),
		HistoryLimit:       configViper.GetInt("catalog.history_limit"),
		Categories:         trimAll(configViper.GetStringSlice("catalog.categories")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.TokenIssuer) == "" {
		return fmt.Errorf("auth.issuer is required")
	}
	if strings.TrimSpace(c.TokenAudience) == "" {
		return fmt.Errorf("auth.audience is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	if c.SearchCorpusCap <= 0 {
		return fmt.Errorf("search.corpus_cap must be positive")
	}
	if c.SearchResultLimit <= 0 {
		return fmt.Errorf("search.result_limit must be positive")
	}
	if c.SearchRatePerSec < 0 {
		return fmt.Errorf("search.rate_per_second must not be negative")
	}
	if c.SearchRatePerSec > 0 && c.SearchBurst <= 0 {
		return fmt.Errorf("search.burst must be positive when rate limiting is enabled")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("catalog.history_limit must be positive")
	}
	return nil
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			trimmed = append(trimmed, value)
		}
	}
	return trimmed
}
