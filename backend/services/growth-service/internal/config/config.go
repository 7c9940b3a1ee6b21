package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "growthwatch/backend/libs/config"
	"growthwatch/backend/services/growth-service/internal/growth"
)

type httpConfig struct {
	Port         string `yaml:"port" env:"GROWTH_HTTP_PORT"`
	SecureCookie bool   `yaml:"secureCookie" env:"GROWTH_SECURE_COOKIE"`
}

type classifierConfig struct {
	Strategy      string `yaml:"strategy" env:"GROWTH_CLASSIFIER_STRATEGY"`
	ReferenceFile string `yaml:"referenceFile" env:"GROWTH_REFERENCE_FILE"`
}

type databaseConfig struct {
	DSN string `yaml:"dsn" env:"GROWTH_POSTGRES_DSN"`
}

type redisConfig struct {
	Addr     string `yaml:"addr" env:"GROWTH_REDIS_ADDR"`
	Password string `yaml:"password" env:"GROWTH_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"GROWTH_REDIS_DB"`
	TTL      int    `yaml:"ttlSeconds" env:"GROWTH_REDIS_TTL"`
}

type sessionConfig struct {
	Secret string `yaml:"secret" env:"GROWTH_SESSION_SECRET"`
}

type recommendationConfig struct {
	APIKey         string  `yaml:"apiKey" env:"OPENAI_API_KEY"`
	BaseURL        string  `yaml:"baseUrl" env:"GROWTH_RECOMMENDATION_URL"`
	Model          string  `yaml:"model" env:"GROWTH_RECOMMENDATION_MODEL"`
	Temperature    float64 `yaml:"temperature" env:"GROWTH_RECOMMENDATION_TEMPERATURE"`
	TimeoutSeconds int     `yaml:"timeoutSeconds" env:"GROWTH_RECOMMENDATION_TIMEOUT"`
}

// Config defines growth service configuration.
type Config struct {
	HTTP           httpConfig           `yaml:"http"`
	Classifier     classifierConfig     `yaml:"classifier"`
	Database       databaseConfig       `yaml:"database"`
	Redis          redisConfig          `yaml:"redis"`
	Session        sessionConfig        `yaml:"session"`
	Recommendation recommendationConfig `yaml:"recommendation"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:       httpConfig{Port: "8090"},
		Classifier: classifierConfig{Strategy: string(growth.StrategyZScore)},
		Redis:      redisConfig{Addr: "localhost:6379", TTL: 3600},
		Recommendation: recommendationConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o",
			Temperature:    0.7,
			TimeoutSeconds: 30,
		},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch growth.StrategyName(strings.ToLower(strings.TrimSpace(c.Classifier.Strategy))) {
	case growth.StrategyBanded, growth.StrategyLinear, growth.StrategyZScore, growth.StrategyBMI:
	default:
		return fmt.Errorf("config: unknown classifier strategy %q", c.Classifier.Strategy)
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("config: redis addr required")
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("config: session secret required")
	}
	if c.Recommendation.Temperature < 0 || c.Recommendation.Temperature > 2 {
		return errors.New("config: recommendation temperature must be between 0 and 2")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// SessionTTL returns the session record lifetime.
func (c *Config) SessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// RecommendationTimeout bounds one recommendation attempt.
func (c *Config) RecommendationTimeout() time.Duration {
	if c.Recommendation.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Recommendation.TimeoutSeconds) * time.Second
}

// HTTPWriteTimeout leaves room for a recommendation attempt, its one retry and the page
// render that follows.
func (c *Config) HTTPWriteTimeout() time.Duration {
	return 2*c.RecommendationTimeout() + 15*time.Second
}

// HistoryEnabled reports whether a database DSN is configured.
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}
