package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	SLA        SLAConfig
	Recovery   RecoveryConfig
	Alerts     AlertsConfig
	Reports    ReportsConfig
	CloudWatch CloudWatchConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	DashboardTTL time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

// SLAConfig управляет SLA-мониторингом (runtime-изменяемая часть)
type SLAConfig struct {
	Enabled                   bool
	CheckInterval             time.Duration
	MetricsCollectionInterval time.Duration
	DataRetentionDays         int
}

// RecoveryConfig управляет автоматическим восстановлением (runtime-изменяемая часть)
type RecoveryConfig struct {
	Enabled                 bool
	MaxConcurrentRecoveries int
	RecoveryTimeout         time.Duration
	RemediationEndpoint     string
	RemediationAuthToken    string
	RemediationTimeout      time.Duration
}

type AlertsConfig struct {
	Channels         []string
	CriticalChannels []string
}

type ReportsConfig struct {
	S3Enabled       bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	DynamoEnabled   bool
	DynamoTable     string
	DynamoEndpoint  string
	DynamoRegion    string
}

type CloudWatchConfig struct {
	MetricsEnabled       bool
	MetricsNamespace     string
	MetricsBufferSize    int
	MetricsFlushInterval time.Duration
	LogsEnabled          bool
	LogGroupName         string
	LogStreamName        string
	LogsBufferSize       int
	LogsFlushInterval    time.Duration
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	slaCheckInterval, err := parseDuration(getEnv("SLA_CHECK_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLA_CHECK_INTERVAL: %w", err)
	}

	collectionInterval, err := parseDuration(getEnv("METRICS_COLLECTION_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_COLLECTION_INTERVAL: %w", err)
	}

	retentionDays, err := strconv.Atoi(getEnv("DATA_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATA_RETENTION_DAYS: %w", err)
	}

	maxConcurrent, err := strconv.Atoi(getEnv("MAX_CONCURRENT_RECOVERIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_RECOVERIES: %w", err)
	}
	if maxConcurrent < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_RECOVERIES must be >= 1")
	}

	recoveryTimeout, err := parseDuration(getEnv("RECOVERY_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOVERY_TIMEOUT: %w", err)
	}

	dashboardTTL, err := parseDuration(getEnv("DASHBOARD_CACHE_TTL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_CACHE_TTL: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("API_RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT_RPS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    rateLimitRPS,
			RateLimitBurst:  getEnvInt("API_RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "selfheal"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			DashboardTTL: dashboardTTL,
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "selfheal"),
		},
		SLA: SLAConfig{
			Enabled:                   getEnvBool("SLA_ENABLED", true),
			CheckInterval:             slaCheckInterval,
			MetricsCollectionInterval: collectionInterval,
			DataRetentionDays:         retentionDays,
		},
		Recovery: RecoveryConfig{
			Enabled:                 getEnvBool("FAULT_RECOVERY_ENABLED", true),
			MaxConcurrentRecoveries: maxConcurrent,
			RecoveryTimeout:         recoveryTimeout,
			RemediationEndpoint:     getEnv("REMEDIATION_ENDPOINT", ""),
			RemediationAuthToken:    getEnv("REMEDIATION_AUTH_TOKEN", ""),
			RemediationTimeout:      30 * time.Second,
		},
		Alerts: AlertsConfig{
			Channels:         splitCSV(getEnv("ALERT_CHANNELS", "dashboard")),
			CriticalChannels: splitCSV(getEnv("CRITICAL_ALERT_CHANNELS", "dashboard,pagerduty")),
		},
		Reports: ReportsConfig{
			S3Enabled:       getEnvBool("REPORTS_S3_ENABLED", false),
			Bucket:          getEnv("REPORTS_S3_BUCKET", ""),
			Region:          getEnv("REPORTS_S3_REGION", "ru-central1"),
			Endpoint:        getEnv("REPORTS_S3_ENDPOINT", "https://storage.yandexcloud.net"),
			AccessKeyID:     getEnv("REPORTS_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("REPORTS_S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("REPORTS_S3_USE_PATH_STYLE", true),
			KeyPrefix:       getEnv("REPORTS_S3_KEY_PREFIX", "reports"),
			DynamoEnabled:   getEnvBool("REPORTS_DYNAMO_ENABLED", false),
			DynamoTable:     getEnv("REPORTS_DYNAMO_TABLE", ""),
			DynamoEndpoint:  getEnv("REPORTS_DYNAMO_ENDPOINT", ""),
			DynamoRegion:    getEnv("REPORTS_DYNAMO_REGION", "us-east-1"),
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:       getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			MetricsNamespace:     getEnv("CLOUDWATCH_METRICS_NAMESPACE", "SelfHeal/Recovery"),
			MetricsBufferSize:    getEnvInt("CLOUDWATCH_METRICS_BUFFER_SIZE", 100),
			MetricsFlushInterval: 10 * time.Second,
			LogsEnabled:          getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:         getEnv("CLOUDWATCH_LOG_GROUP", "/selfheal/api"),
			LogStreamName:        getEnv("CLOUDWATCH_LOG_STREAM", ""),
			LogsBufferSize:       getEnvInt("CLOUDWATCH_LOGS_BUFFER_SIZE", 100),
			LogsFlushInterval:    5 * time.Second,
			Region:               getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:             getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:          getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
		},
	}

	if cfg.Security.AuthEnabled && cfg.Security.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}

	if cfg.Reports.S3Enabled && cfg.Reports.Bucket == "" {
		return nil, fmt.Errorf("REPORTS_S3_BUCKET is required when REPORTS_S3_ENABLED=true")
	}

	if cfg.Reports.DynamoEnabled && cfg.Reports.DynamoTable == "" {
		return nil, fmt.Errorf("REPORTS_DYNAMO_TABLE is required when REPORTS_DYNAMO_ENABLED=true")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	current := ""

	for _, r := range raw {
		if r == ',' {
			if current != "" {
				items = append(items, current)
				current = ""
			}
			continue
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			current += string(r)
		}
	}

	if current != "" {
		items = append(items, current)
	}

	return items
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
