package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-wide configuration, loaded once at startup.
type Config struct {
	Environment string

	Server        ServerConfig
	Logging       LoggingConfig
	Assets        AssetsConfig
	Risk          RiskConfig
	Enums         EnumConfig
	Bucketing     BucketingConfig
	Redis         RedisConfig
	Clickhouse    ClickhouseConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	Model         ModelConfig
}

type ServerConfig struct {
	Port         int
	TLSPort      int
	EnableTLS    bool
	AutoCert     bool
	Domain       string
	CertFile     string
	KeyFile      string
	AutoCertDir  string
	Email        string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// AssetsConfig points at the directory holding the fitted artifacts
// written by the corpus/fit pipeline.
type AssetsConfig struct {
	Dir string
}

// RiskConfig carries the scoring constants the pipeline depends on.
type RiskConfig struct {
	// SequenceLength is the fixed window length N consumed by the
	// temporal model.
	SequenceLength int
	// Weights maps risk flag name to its scoring weight. Validated to
	// sum to 1.0 so the rule-based score stays in [0,1].
	Weights map[string]float64
	// HighRiskThreshold is the predicted-score cutoff for the
	// "high risk" verdict.
	HighRiskThreshold float64
}

// EnumConfig holds the closed enumerations request fields are drawn from.
type EnumConfig struct {
	MFAMethods   []string
	Applications []string
	Browsers     []string
	OSes         []string
	Units        []string
	Titles       []string
}

type BucketingConfig struct {
	UserBuckets  int
	EventBuckets int
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
	DB       int
	PoolSize int
	// HistoryTTL bounds how long a cached per-user history slice lives.
	HistoryTTL time.Duration
}

type ClickhouseConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
	Database string
	Table    string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type ElasticsearchConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
	Index    string
}

// ModelConfig describes the external sequence-model serving endpoint.
type ModelConfig struct {
	URL     string
	Name    string
	Timeout time.Duration
}

// DefaultRiskWeights mirrors the weights the corpus was labeled with.
var DefaultRiskWeights = map[string]float64{
	"ip_change":          0.35,
	"time_anomaly":       0.25,
	"mfa_change":         0.15,
	"browser_os_change":  0.10,
	"application_change": 0.05,
	"unit_change":        0.05,
	"title_mismatch":     0.05,
}

// LoadConfig reads configuration from the environment (.env is honored
// when present) and validates the invariants the core depends on.
func LoadConfig() (*Config, error) {
	// Best-effort: a missing .env just means plain env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			TLSPort:      getEnvInt("SERVER_TLS_PORT", 8443),
			EnableTLS:    getEnvBool("SERVER_ENABLE_TLS", false),
			AutoCert:     getEnvBool("SERVER_AUTO_CERT", false),
			Domain:       getEnv("SERVER_DOMAIN", "localhost"),
			CertFile:     getEnv("SERVER_CERT_FILE", ""),
			KeyFile:      getEnv("SERVER_KEY_FILE", ""),
			AutoCertDir:  getEnv("SERVER_AUTOCERT_DIR", "/var/cache/autocert"),
			Email:        getEnv("SERVER_ACME_EMAIL", ""),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Assets: AssetsConfig{
			Dir: getEnv("ASSETS_DIR", "output"),
		},
		Risk: RiskConfig{
			SequenceLength:    getEnvInt("SEQUENCE_LENGTH", 5),
			Weights:           parseWeights(getEnv("RISK_WEIGHTS", "")),
			HighRiskThreshold: getEnvFloat("HIGH_RISK_THRESHOLD", 0.50),
		},
		Enums: EnumConfig{
			MFAMethods:   getEnvList("ENUM_MFA_METHODS", []string{"SMS_OTP", "Email_OTP", "App_Auth", "Hardware_Token"}),
			Applications: getEnvList("ENUM_APPLICATIONS", []string{"AppA", "AppB", "AppC", "AppD"}),
			Browsers:     getEnvList("ENUM_BROWSERS", []string{"Chrome", "Firefox", "Safari", "Edge"}),
			OSes:         getEnvList("ENUM_OSES", []string{"Windows", "macOS", "Linux", "iOS", "Android"}),
			Units:        getEnvList("ENUM_UNITS", []string{"HR", "Finance", "Engineering", "Marketing", "Sales"}),
			Titles:       getEnvList("ENUM_TITLES", []string{"Manager", "Analyst", "Director", "Specialist", "Associate"}),
		},
		Bucketing: BucketingConfig{
			UserBuckets:  getEnvInt("USER_BUCKETS", 64),
			EventBuckets: getEnvInt("EVENT_BUCKETS", 256),
		},
		Redis: RedisConfig{
			Enabled:    getEnvBool("REDIS_ENABLED", false),
			URL:        getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			PoolSize:   getEnvInt("REDIS_POOL_SIZE", 50),
			HistoryTTL: getEnvDuration("REDIS_HISTORY_TTL", 5*time.Minute),
		},
		Clickhouse: ClickhouseConfig{
			Enabled:  getEnvBool("CLICKHOUSE_ENABLED", false),
			URL:      getEnv("CLICKHOUSE_URL", "http://localhost:8123"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			Database: getEnv("CLICKHOUSE_DATABASE", "risk"),
			Table:    getEnv("CLICKHOUSE_TABLE", "access_events"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "access-risk-events"),
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:  getEnvBool("ELASTICSEARCH_ENABLED", false),
			URL:      getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username: getEnv("ELASTICSEARCH_USERNAME", ""),
			Password: getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:    getEnv("ELASTICSEARCH_INDEX", "risk-verdicts"),
		},
		Model: ModelConfig{
			URL:     getEnv("MODEL_URL", "http://localhost:8501"),
			Name:    getEnv("MODEL_NAME", "risk_prediction_model"),
			Timeout: getEnvDuration("MODEL_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the scoring pipeline depends on.
func (c *Config) Validate() error {
	if c.Risk.SequenceLength < 1 {
		return fmt.Errorf("sequence length must be at least 1, got %d", c.Risk.SequenceLength)
	}
	var sum float64
	for name, w := range c.Risk.Weights {
		if w < 0 {
			return fmt.Errorf("risk weight %q is negative: %f", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("risk weights must sum to 1.0, got %f", sum)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// parseWeights reads "name=weight,name=weight" overrides; an empty or
// malformed spec falls back to the defaults the corpus was labeled with.
func parseWeights(spec string) map[string]float64 {
	if spec == "" {
		return copyWeights(DefaultRiskWeights)
	}
	weights := make(map[string]float64)
	for _, pair := range strings.Split(spec, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return copyWeights(DefaultRiskWeights)
		}
		w, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return copyWeights(DefaultRiskWeights)
		}
		weights[parts[0]] = w
	}
	return weights
}

func copyWeights(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
