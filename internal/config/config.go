package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fruitshop/backend/internal/logger"
)

const envPrefix = "FRUITSHOP"

type Config struct {
	Env           string
	Port          string
	AllowedOrigin string
	AuthSecret    string
	AccessTTL     time.Duration

	// RemoteBaseURL enables the remote branch of the data gateway when set.
	RemoteBaseURL string
	RemoteTimeout time.Duration

	Latency   time.Duration
	FakerSeed uint64

	Storage StorageConfig
	Log     logger.Config
}

// StorageConfig selects the key-value driver holding the persisted documents.
type StorageConfig struct {
	Driver      string // memory, file, sqlite, postgres, redis, s3
	Dir         string
	SQLitePath  string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("allowed_origin", "http://127.0.0.1:5173")
	v.SetDefault("access_token_ttl", "8h")
	v.SetDefault("remote.timeout", "10s")
	v.SetDefault("latency", "320ms")
	v.SetDefault("faker_seed", 20251101)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.sqlite_path", "./data/fruitshop.db")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "fruitshop:")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "fruitshop")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Load reads configuration from, highest priority first: FRUITSHOP_* environment
// variables (a .env file in the working directory is loaded into the
// environment first), an optional config.yaml, and built-in defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Env:           v.GetString("env"),
		Port:          v.GetString("port"),
		AllowedOrigin: v.GetString("allowed_origin"),
		AuthSecret:    strings.TrimSpace(v.GetString("auth_secret")),
		AccessTTL:     v.GetDuration("access_token_ttl"),
		RemoteBaseURL: strings.TrimSpace(v.GetString("remote.base_url")),
		RemoteTimeout: v.GetDuration("remote.timeout"),
		Latency:       v.GetDuration("latency"),
		FakerSeed:     v.GetUint64("faker_seed"),
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("storage.driver")),
			Dir:           v.GetString("storage.dir"),
			SQLitePath:    v.GetString("storage.sqlite_path"),
			DatabaseURL:   v.GetString("storage.database_url"),
			RedisAddr:     v.GetString("storage.redis.addr"),
			RedisPassword: v.GetString("storage.redis.password"),
			RedisDB:       v.GetInt("storage.redis.db"),
			RedisPrefix:   v.GetString("storage.redis.prefix"),
			S3Bucket:      v.GetString("storage.s3.bucket"),
			S3Region:      v.GetString("storage.s3.region"),
			S3Endpoint:    v.GetString("storage.s3.endpoint"),
			S3Prefix:      v.GetString("storage.s3.prefix"),
			S3AccessKey:   v.GetString("storage.s3.access_key"),
			S3SecretKey:   v.GetString("storage.s3.secret_key"),
			S3PathStyle:   v.GetBool("storage.s3.path_style"),
		},
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 8 * time.Hour
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 10 * time.Second
	}
	if cfg.Latency < 0 {
		cfg.Latency = 0
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
