package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server            ServerConfig            `mapstructure:"server"`
	Database          DatabaseConfig          `mapstructure:"database"`
	Redis             RedisConfig             `mapstructure:"redis"`
	JWT               JWTConfig               `mapstructure:"jwt"`
	AES               AESConfig               `mapstructure:"aes"`
	Log               LogConfig               `mapstructure:"log"`
	Dispatcher        DispatcherConfig        `mapstructure:"dispatcher"`
	Scheduler         SchedulerConfig         `mapstructure:"scheduler"`
	Delivery          DeliveryConfig          `mapstructure:"delivery"`
	HTTPClient        HTTPClientConfig        `mapstructure:"http_client"`
	CircuitBreaker    CircuitBreakerConfig    `mapstructure:"circuit_breaker"`
	DeadLetter        DeadLetterConfig        `mapstructure:"dead_letter"`
	SubscriptionCache SubscriptionCacheConfig `mapstructure:"subscription_cache"`
	Notifications     NotificationsConfig     `mapstructure:"notifications"`
	Metrics           MetricsConfig           `mapstructure:"metrics"`
	RateLimit         RateLimitConfig         `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"` // total startup retry budget
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AESConfig struct {
	Key         string   `mapstructure:"key"`          // 32-byte hex-encoded key for AES-256
	RetiredKeys []string `mapstructure:"retired_keys"` // still accepted for decrypt
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

type DispatcherConfig struct {
	Limit                   int           `mapstructure:"limit"`
	BatchSize               int           `mapstructure:"batch_size"`
	MaxConcurrentBatches    int           `mapstructure:"max_concurrent_batches"`
	MaxConcurrentEvents     int           `mapstructure:"max_concurrent_events"`
	MaxConcurrentDeliveries int           `mapstructure:"max_concurrent_deliveries"`
	BatchTimeout            time.Duration `mapstructure:"batch_timeout"`
	EventTimeout            time.Duration `mapstructure:"event_timeout"`
	MarkTimeout             time.Duration `mapstructure:"mark_timeout"`
	ClaimLease              time.Duration `mapstructure:"claim_lease"`
	StreamChunkMin          int           `mapstructure:"stream_chunk_min"`
	StreamChunkInitial      int           `mapstructure:"stream_chunk_initial"`
	StreamChunkMax          int           `mapstructure:"stream_chunk_max"`
	MemoryHighWatermarkMB   int           `mapstructure:"memory_high_watermark_mb"`
}

type SchedulerConfig struct {
	Enabled                bool          `mapstructure:"enabled"`
	Mode                   string        `mapstructure:"mode"` // batch, stream, high_throughput
	DispatchInterval       time.Duration `mapstructure:"dispatch_interval"`
	RetryInterval          time.Duration `mapstructure:"retry_interval"`
	RetryLimit             int           `mapstructure:"retry_limit"`
	DeadLetterInterval     time.Duration `mapstructure:"dead_letter_interval"`
	DeadLetterBatchSize    int           `mapstructure:"dead_letter_batch_size"`
	CleanupInterval        time.Duration `mapstructure:"cleanup_interval"`
	CircuitCleanupInterval time.Duration `mapstructure:"circuit_cleanup_interval"`
}

type DeliveryConfig struct {
	DefaultTimeout           time.Duration `mapstructure:"default_timeout"`
	MaxBackoffSeconds        int           `mapstructure:"max_backoff_seconds"`
	DefaultMaxAttempts       int           `mapstructure:"default_max_attempts"`
	DefaultBaseBackoff       int           `mapstructure:"default_base_backoff_seconds"`
	DefaultBackoffMultiplier float64       `mapstructure:"default_backoff_multiplier"`
	MaxCircuitDeferrals      int           `mapstructure:"max_circuit_deferrals"`
	RetryConcurrency         int           `mapstructure:"retry_concurrency"`
	RetryLeaseTTL            time.Duration `mapstructure:"retry_lease_ttl"`
	RequireHTTPS             bool          `mapstructure:"require_https"`
	UserAgent                string        `mapstructure:"user_agent"`
	NotifyTimeout            time.Duration `mapstructure:"notify_timeout"`
}

type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	DNSCacheTTL         time.Duration `mapstructure:"dns_cache_ttl"`
	ResponseBodyLimit   int64         `mapstructure:"response_body_limit"`
}

type CircuitBreakerConfig struct {
	FailureThreshold         int           `mapstructure:"failure_threshold"`
	FailureRateThreshold     float64       `mapstructure:"failure_rate_threshold"`
	MinimumRequests          int           `mapstructure:"minimum_requests"`
	Timeout                  time.Duration `mapstructure:"timeout"`
	MaxRecoveryRequests      int           `mapstructure:"max_recovery_requests"`
	RecoverySuccessThreshold int           `mapstructure:"recovery_success_threshold"`
	Window                   time.Duration `mapstructure:"window"`
	StaleAfter               time.Duration `mapstructure:"stale_after"`
}

type DeadLetterConfig struct {
	Retention time.Duration `mapstructure:"retention"`
}

type SubscriptionCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type NotificationsConfig struct {
	StreamEnabled bool   `mapstructure:"stream_enabled"`
	Stream        string `mapstructure:"stream"`
	MaxLen        int64  `mapstructure:"max_len"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: WHD_ (WebHook Dispatcher).
// Nested keys use underscore: WHD_DATABASE_HOST, WHD_DISPATCHER_BATCH_SIZE, etc.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: WHD_DATABASE_HOST -> database.host
	v.SetEnvPrefix("WHD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "webhook_dispatcher")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_timeout", "15s")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "1h")
	v.SetDefault("jwt.issuer", "webhook-dispatcher")
	v.SetDefault("aes.key", "")
	v.SetDefault("aes.retired_keys", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("dispatcher.limit", 500)
	v.SetDefault("dispatcher.batch_size", 50)
	v.SetDefault("dispatcher.max_concurrent_batches", 4)
	v.SetDefault("dispatcher.max_concurrent_events", 16)
	v.SetDefault("dispatcher.max_concurrent_deliveries", 8)
	v.SetDefault("dispatcher.batch_timeout", "2m")
	v.SetDefault("dispatcher.event_timeout", "30s")
	v.SetDefault("dispatcher.mark_timeout", "30s")
	v.SetDefault("dispatcher.claim_lease", "15m")
	v.SetDefault("dispatcher.stream_chunk_min", 25)
	v.SetDefault("dispatcher.stream_chunk_initial", 100)
	v.SetDefault("dispatcher.stream_chunk_max", 1000)
	v.SetDefault("dispatcher.memory_high_watermark_mb", 512)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.mode", "batch")
	v.SetDefault("scheduler.dispatch_interval", "1s")
	v.SetDefault("scheduler.retry_interval", "10s")
	v.SetDefault("scheduler.retry_limit", 100)
	v.SetDefault("scheduler.dead_letter_interval", "1m")
	v.SetDefault("scheduler.dead_letter_batch_size", 100)
	v.SetDefault("scheduler.cleanup_interval", "1h")
	v.SetDefault("scheduler.circuit_cleanup_interval", "10m")

	v.SetDefault("delivery.default_timeout", "30s")
	v.SetDefault("delivery.max_backoff_seconds", 3600)
	v.SetDefault("delivery.default_max_attempts", 5)
	v.SetDefault("delivery.default_base_backoff_seconds", 60)
	v.SetDefault("delivery.default_backoff_multiplier", 2.0)
	v.SetDefault("delivery.max_circuit_deferrals", 48)
	v.SetDefault("delivery.retry_concurrency", 8)
	v.SetDefault("delivery.retry_lease_ttl", "2m")
	v.SetDefault("delivery.require_https", true)
	v.SetDefault("delivery.user_agent", "webhook-dispatcher/1.0")
	v.SetDefault("delivery.notify_timeout", "10s")

	v.SetDefault("http_client.max_idle_conns", 200)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", "90s")
	v.SetDefault("http_client.dial_timeout", "5s")
	v.SetDefault("http_client.tls_handshake_timeout", "5s")
	v.SetDefault("http_client.dns_cache_ttl", "1m")
	v.SetDefault("http_client.response_body_limit", 64*1024)

	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("circuit_breaker.failure_rate_threshold", 50.0)
	v.SetDefault("circuit_breaker.minimum_requests", 10)
	v.SetDefault("circuit_breaker.timeout", "60s")
	v.SetDefault("circuit_breaker.max_recovery_requests", 3)
	v.SetDefault("circuit_breaker.recovery_success_threshold", 2)
	v.SetDefault("circuit_breaker.window", "60s")
	v.SetDefault("circuit_breaker.stale_after", "24h")

	v.SetDefault("dead_letter.retention", "720h")

	v.SetDefault("subscription_cache.enabled", true)
	v.SetDefault("subscription_cache.ttl", "5m")

	v.SetDefault("notifications.stream_enabled", true)
	v.SetDefault("notifications.stream", "webhook:notifications")
	v.SetDefault("notifications.max_len", 100000)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", "1m")
}

// claimLeaseMargin covers claiming and scheduling around a dispatch pass.
const claimLeaseMargin = time.Minute

// Validate checks the ranges core behavior depends on.
func (c *Config) Validate() error {
	var errs []error
	d := c.Delivery
	if d.DefaultMaxAttempts < 1 || d.DefaultMaxAttempts > 10 {
		errs = append(errs, fmt.Errorf("delivery.default_max_attempts must be in [1,10], got %d", d.DefaultMaxAttempts))
	}
	if d.DefaultBackoffMultiplier < 1.0 || d.DefaultBackoffMultiplier > 5.0 {
		errs = append(errs, fmt.Errorf("delivery.default_backoff_multiplier must be in [1.0,5.0], got %g", d.DefaultBackoffMultiplier))
	}
	if d.DefaultBaseBackoff < 0 {
		errs = append(errs, errors.New("delivery.default_base_backoff_seconds must not be negative"))
	}

	for _, f := range []struct {
		key string
		val int
	}{
		{"dispatcher.limit", c.Dispatcher.Limit},
		{"dispatcher.batch_size", c.Dispatcher.BatchSize},
		{"dispatcher.max_concurrent_batches", c.Dispatcher.MaxConcurrentBatches},
		{"dispatcher.max_concurrent_events", c.Dispatcher.MaxConcurrentEvents},
		{"dispatcher.max_concurrent_deliveries", c.Dispatcher.MaxConcurrentDeliveries},
		{"delivery.retry_concurrency", d.RetryConcurrency},
	} {
		if f.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", f.key, f.val))
		}
	}

	switch c.Scheduler.Mode {
	case "batch", "stream", "high_throughput":
	default:
		errs = append(errs, fmt.Errorf("scheduler.mode must be batch, stream or high_throughput, got %q", c.Scheduler.Mode))
	}

	if err := c.Dispatcher.validateClaimLease(c.Scheduler.Mode); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PassDuration is the longest a single claim can stay in flight: every wave
// of concurrent batches may run to its batch timeout and then mark.
func (d DispatcherConfig) PassDuration(mode string) time.Duration {
	claimed := d.Limit
	if mode == "stream" {
		claimed = max(d.StreamChunkInitial, d.StreamChunkMax)
	}
	if claimed <= 0 || d.BatchSize <= 0 || d.MaxConcurrentBatches <= 0 {
		return 0
	}
	batches := (claimed + d.BatchSize - 1) / d.BatchSize
	waves := (batches + d.MaxConcurrentBatches - 1) / d.MaxConcurrentBatches
	return time.Duration(waves) * (d.BatchTimeout + d.MarkTimeout)
}

// validateClaimLease rejects a lease that can expire while its pass is still
// running; another worker would claim and deliver the same events again.
func (d DispatcherConfig) validateClaimLease(mode string) error {
	if d.ClaimLease <= 0 {
		return fmt.Errorf("dispatcher.claim_lease must be positive, got %s", d.ClaimLease)
	}
	need := d.PassDuration(mode) + claimLeaseMargin
	if d.ClaimLease < need {
		return fmt.Errorf("dispatcher.claim_lease %s is shorter than a %s dispatch pass (need at least %s)", d.ClaimLease, mode, need)
	}
	return nil
}
