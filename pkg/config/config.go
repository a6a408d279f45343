package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"PairLab/pkg/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAIRLAB_"

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`

	Logging struct {
		Level   string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format  string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output  string `yaml:"output" default:"stdout" validate:"required"`
		Collect struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"pairlab.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
			IncludeWarn    bool          `yaml:"include_warn"`
		} `yaml:"collect"`
	} `yaml:"logging"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"60s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"5s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`

	Provider struct {
		Name         string        `yaml:"name" default:"yahoo" validate:"oneof=yahoo"`
		BaseURL      string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
		HistoryStart string        `yaml:"history_start" default:"2016-01-04" validate:"datetime=2006-01-02"`
		Timeout      time.Duration `yaml:"timeout" default:"15s"`
		RateBurst    float64       `yaml:"rate_burst" default:"5" validate:"gt=0"`
		RatePerSec   float64       `yaml:"rate_per_sec" default:"2" validate:"gt=0"`
	} `yaml:"provider"`

	Store struct {
		Backend string        `yaml:"backend" default:"file" validate:"oneof=file sqlite postgres redis clickhouse"`
		HotTTL  time.Duration `yaml:"hot_ttl" default:"10m"`
		HotSize int           `yaml:"hot_size" default:"256"`
		File    struct {
			Dir string `yaml:"dir" default:"data/series"`
		} `yaml:"file"`
		SQLite struct {
			DSN string `yaml:"dsn" default:"file:data/pairlab.db?_pragma=journal_mode(WAL)"`
		} `yaml:"sqlite"`
		Postgres struct {
			DSN            string `yaml:"dsn"`
			MaxConnections int    `yaml:"max_connections" default:"10"`
		} `yaml:"postgres"`
		Redis      RedisConfig `yaml:"redis"`
		ClickHouse struct {
			Host             string        `yaml:"host" default:"localhost"`
			Port             int           `yaml:"port" default:"9000"`
			Database         string        `yaml:"database" default:"default"`
			User             string        `yaml:"user" default:"default"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		} `yaml:"clickhouse"`
	} `yaml:"store"`

	Calendar struct {
		ReferenceSymbols []string `yaml:"reference_symbols" default:"[\"AAPL\",\"MSFT\",\"GOOG\",\"NVDA\",\"TSLA\",\"AMZN\"]" validate:"min=1,dive,required"`
		LookbackDays     int      `yaml:"lookback_days" default:"5" validate:"min=1,max=31"`
	} `yaml:"calendar"`

	Validation struct {
		CacheTTL time.Duration `yaml:"cache_ttl" default:"1h"`
		Shared   bool          `yaml:"shared"` // memoize checks in Redis for all instances
	} `yaml:"validation"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RefreshTopic string   `yaml:"refresh_topic" default:"pairlab.series.refreshed"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	Warmup struct {
		Enabled  bool     `yaml:"enabled" default:"true"`
		OnStart  bool     `yaml:"on_start" default:"true"`
		Schedule string   `yaml:"schedule" default:"0 30 22 * * 1-5"`
		Symbols  []string `yaml:"symbols"`
		Start    string   `yaml:"start" default:"2016-01-04" validate:"datetime=2006-01-02"`
		Workers  int      `yaml:"workers" default:"2" validate:"min=1,max=16"`
	} `yaml:"warmup"`
}

type RedisConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size" default:"10"`
	Prefix   string `yaml:"prefix" default:"pairlab"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file over the struct defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with PAIRLAB_* environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = util.SplitList(v)
		}
	}

	str("ENV", &c.Environment)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_FILE_DIR", &c.Store.File.Dir)
	str("SQLITE_DSN", &c.Store.SQLite.DSN)
	str("POSTGRES_DSN", &c.Store.Postgres.DSN)
	str("REDIS_HOST", &c.Store.Redis.Host)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	str("CLICKHOUSE_HOST", &c.Store.ClickHouse.Host)
	str("CLICKHOUSE_PASSWORD", &c.Store.ClickHouse.Password)
	str("PROVIDER_BASE_URL", &c.Provider.BaseURL)
	str("HISTORY_START", &c.Provider.HistoryStart)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	list("WARMUP_SYMBOLS", &c.Warmup.Symbols)
	list("REFERENCE_SYMBOLS", &c.Calendar.ReferenceSymbols)

	if v, ok := lookup(EnvPrefix + "PORT"); ok && v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v, ok := lookup(EnvPrefix + "REDIS_PORT"); ok && v != "" {
		c.Store.Redis.Port = util.ParseIntDefault(v, c.Store.Redis.Port)
	}
	if v, ok := lookup(EnvPrefix + "KAFKA_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sKAFKA_ENABLED: %w", EnvPrefix, err)
		}
		c.Kafka.Enabled = b
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Store.Backend == "postgres" && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
	}
	if (c.Kafka.Enabled || c.Logging.Collect.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka or log collection is enabled")
	}
	if c.Logging.Collect.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("logging.collect requires kafka.enabled")
	}
	return nil
}

// WarmupSymbols returns the warm-up list, falling back to the calendar
// reference symbols.
func (c *Config) WarmupSymbols() []string {
	if len(c.Warmup.Symbols) > 0 {
		return c.Warmup.Symbols
	}
	return c.Calendar.ReferenceSymbols
}

// ConsumerGroup returns the refresh consumer group. Each instance needs its
// own group so every instance sees every refresh.
func (c *Config) ConsumerGroup() string {
	if c.Kafka.Consumer.GroupID != "" {
		return c.Kafka.Consumer.GroupID
	}
	host, _ := os.Hostname()
	return "pairlab-" + strings.ToLower(host)
}

// InstanceID identifies this process on the refresh topic.
func (c *Config) InstanceID() string {
	host, _ := os.Hostname()
	return strings.ToLower(host) + "-" + strconv.Itoa(os.Getpid())
}
