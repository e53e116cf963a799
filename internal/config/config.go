package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location relative to the working directory.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                   string `yaml:"port"`
	LogLevel               string `yaml:"logLevel"`
	DatabaseURL            string `yaml:"databaseURL"`
	RedisAddr              string `yaml:"redisAddr"`
	RedisPassword          string `yaml:"redisPassword"`
	QueueName              string `yaml:"queueName"`
	QueueGroup             string `yaml:"queueGroup"`
	QueueConcurrency       int    `yaml:"queueConcurrency"`
	QueueMaxRetries        int    `yaml:"queueMaxRetries"`
	QueueRetryDelaySeconds int    `yaml:"queueRetryDelaySeconds"`
	MinioEndpoint          string `yaml:"minioEndpoint"`
	MinioAccessKey         string `yaml:"minioAccessKey"`
	MinioSecretKey         string `yaml:"minioSecretKey"`
	MinioBucket            string `yaml:"minioBucket"`
	MinioUseSSL            bool   `yaml:"minioUseSSL"`
	AssistantBaseURL       string `yaml:"assistantBaseURL"`
	PollIntervalSeconds    int    `yaml:"pollIntervalSeconds"`
	PollTimeoutSeconds     int    `yaml:"pollTimeoutSeconds"`
	ReadinessDelaySeconds  int    `yaml:"readinessDelaySeconds"`
	ProbeAddr              string `yaml:"probeAddr"`
	ProbeTimeoutSeconds    int    `yaml:"probeTimeoutSeconds"`
	AuthTokenSecret        string `yaml:"authTokenSecret"`
	AuthTokenTTLMinutes    int    `yaml:"authTokenTTLMinutes"`
	RateLimitPerMinute     int    `yaml:"rateLimitPerMinute"`
	MaxUploadBytes         int64  `yaml:"maxUploadBytes"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("INGEST_QUEUE_NAME"); v != "" {
		cfg.QueueName = v
	}
	if v := os.Getenv("INGEST_QUEUE_GROUP"); v != "" {
		cfg.QueueGroup = v
	}
	if v := os.Getenv("INGEST_QUEUE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueConcurrency = n
		}
	}
	if v := os.Getenv("INGEST_QUEUE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueMaxRetries = n
		}
	}
	if v := os.Getenv("INGEST_QUEUE_RETRY_DELAY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueRetryDelaySeconds = n
		}
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if ssl, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = ssl
		}
	}
	if v := os.Getenv("ASSISTANT_BASE_URL"); v != "" {
		cfg.AssistantBaseURL = v
	}
	if v := os.Getenv("ELIECHAT_AUTH_TOKEN_SECRET"); v != "" {
		cfg.AuthTokenSecret = v
	}
	if v := os.Getenv("ELIECHAT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = n
		}
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.AssistantBaseURL == "" {
		cfg.AssistantBaseURL = "https://api.openai.com"
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "eliechat:ingest"
	}
	if cfg.QueueGroup == "" {
		cfg.QueueGroup = "ingest-workers"
	}
	if cfg.QueueConcurrency <= 0 {
		cfg.QueueConcurrency = 2
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 2
	}
	if cfg.ReadinessDelaySeconds <= 0 {
		cfg.ReadinessDelaySeconds = 5
	}
	if cfg.ProbeAddr == "" {
		cfg.ProbeAddr = "api.openai.com:443"
	}
	if cfg.ProbeTimeoutSeconds <= 0 {
		cfg.ProbeTimeoutSeconds = 3
	}
	if cfg.AuthTokenTTLMinutes <= 0 {
		cfg.AuthTokenTTLMinutes = 60 * 24
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if cfg.MinioEndpoint == "" {
		return errors.New("config: minioEndpoint is required (set in config.yaml or MINIO_ENDPOINT)")
	}
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return errors.New("config: minio credentials are required (set in config.yaml or MINIO_ACCESS_KEY + MINIO_SECRET_KEY)")
	}
	if cfg.MinioBucket == "" {
		return errors.New("config: minioBucket is required (set in config.yaml or MINIO_BUCKET)")
	}
	if cfg.AuthTokenSecret == "" {
		return errors.New("config: authTokenSecret is required (set in config.yaml or ELIECHAT_AUTH_TOKEN_SECRET)")
	}
	if cfg.PollTimeoutSeconds < 0 {
		return errors.New("config: pollTimeoutSeconds must be >= 0 (0 means no timeout)")
	}
	if cfg.RateLimitPerMinute < 0 {
		return errors.New("config: rateLimitPerMinute must be >= 0 (0 disables rate limiting)")
	}
	return nil
}
