package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	HotelAPI HotelAPIConfig `yaml:"hotel_api"`
	Gateway  GatewayConfig  `yaml:"payment_gateway"`
	Wizard   WizardConfig   `yaml:"wizard"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`

	// Requests per minute allowed per client on mobile payment initiation.
	PushRateLimitPerMinute int `yaml:"push_rate_limit_per_minute"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Enabled reports whether a database was configured at all. The payment audit
// trail is skipped when it is not.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// TTL for cached booking/conversion/room reads.
	TTLSeconds int `yaml:"ttl_seconds"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	WizardTopic  string   `yaml:"wizard_topic"`
	NoticesTopic string   `yaml:"notices_topic"`
	GroupID      string   `yaml:"group_id"`
}

type HotelAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	HotelID        int64  `yaml:"hotel_id"`
}

type GatewayConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type WizardConfig struct {
	SettlementCurrency     string `yaml:"settlement_currency"`
	ConversionPollMillis   int    `yaml:"conversion_poll_ms"`
	ConversionMaxAttempts  int    `yaml:"conversion_max_attempts"`
	ConversionFetchRetries int    `yaml:"conversion_fetch_retries"`
	MobilePollMillis       int    `yaml:"mobile_poll_ms"`
	MobileMaxAttempts      int    `yaml:"mobile_max_attempts"`
	SessionIdleMinutes     int    `yaml:"session_idle_minutes"`
	SessionSweepSeconds    int    `yaml:"session_sweep_seconds"`
	SearchAutomaticRetries int    `yaml:"search_automatic_retries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// .env is optional; it only feeds the overrides below.
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.HotelAPI.BaseURL == "" {
		return nil, fmt.Errorf("hotel_api.base_url is required")
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.HotelAPI.BaseURL = getEnv("HOTEL_API_BASE_URL", c.HotelAPI.BaseURL)
	c.HotelAPI.Token = getEnv("HOTEL_API_TOKEN", c.HotelAPI.Token)
	c.HotelAPI.HotelID = int64(getEnvAsInt("HOTEL_ID", int(c.HotelAPI.HotelID)))
	c.Gateway.BaseURL = getEnv("PAYMENT_GATEWAY_BASE_URL", c.Gateway.BaseURL)
	c.Gateway.APIKey = getEnv("PAYMENT_GATEWAY_API_KEY", c.Gateway.APIKey)
	c.Database.Password = getEnv("DATABASE_PASSWORD", c.Database.Password)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.PushRateLimitPerMinute == 0 {
		c.HTTP.PushRateLimitPerMinute = 6
	}
	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = 60
	}
	if c.HotelAPI.TimeoutSeconds == 0 {
		c.HotelAPI.TimeoutSeconds = 15
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	w := &c.Wizard
	if w.SettlementCurrency == "" {
		w.SettlementCurrency = "TZS"
	}
	if w.ConversionPollMillis == 0 {
		w.ConversionPollMillis = 2000
	}
	if w.ConversionMaxAttempts == 0 {
		w.ConversionMaxAttempts = 60
	}
	if w.ConversionFetchRetries == 0 {
		w.ConversionFetchRetries = 2
	}
	if w.MobilePollMillis == 0 {
		w.MobilePollMillis = 5000
	}
	if w.MobileMaxAttempts == 0 {
		w.MobileMaxAttempts = 60
	}
	if w.SessionIdleMinutes == 0 {
		w.SessionIdleMinutes = 30
	}
	if w.SessionSweepSeconds == 0 {
		w.SessionSweepSeconds = 60
	}
	if w.SearchAutomaticRetries == 0 {
		w.SearchAutomaticRetries = 1
	}
}

func (w WizardConfig) ConversionPollInterval() time.Duration {
	return time.Duration(w.ConversionPollMillis) * time.Millisecond
}

func (w WizardConfig) MobilePollInterval() time.Duration {
	return time.Duration(w.MobilePollMillis) * time.Millisecond
}

func (w WizardConfig) SessionIdleTTL() time.Duration {
	return time.Duration(w.SessionIdleMinutes) * time.Minute
}

func (w WizardConfig) SessionSweepInterval() time.Duration {
	return time.Duration(w.SessionSweepSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
