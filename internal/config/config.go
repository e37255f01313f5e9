package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port         string `mapstructure:"port"`
		Env          string `mapstructure:"env"`
		MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
	} `mapstructure:"app"`
	DB struct {
		DSN            string        `mapstructure:"dsn"`
		MaxConns       int32         `mapstructure:"max_conns"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
		ConnectRetries uint          `mapstructure:"connect_retries"`
		QueryTimeout   time.Duration `mapstructure:"query_timeout"`
		SectionTimeout time.Duration `mapstructure:"section_timeout"`
		MigrateOnStart bool          `mapstructure:"migrate_on_start"`
		MigrationsPath string        `mapstructure:"migrations_path"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
		Channel  string        `mapstructure:"channel"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret         string        `mapstructure:"jwt_secret"`
		TokenLifespan     time.Duration `mapstructure:"token_lifespan"`
		AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Client struct {
		APIURL   string `mapstructure:"api_url"`
		StoreDir string `mapstructure:"store_dir"`
		Token    string `mapstructure:"token"`
	} `mapstructure:"client"`
	Tracing struct {
		Enabled     bool    `mapstructure:"enabled"`
		Endpoint    string  `mapstructure:"endpoint"`
		Protocol    string  `mapstructure:"protocol"`
		Insecure    bool    `mapstructure:"insecure"`
		SampleRatio float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"tracing"`
}

// DatabaseConfigured reports whether a DSN was supplied. An empty DSN is a
// supported mode: reads serve default content and writes answer 503.
func (c Config) DatabaseConfigured() bool {
	return strings.TrimSpace(c.DB.DSN) != ""
}

func (c Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != "" && c.Auth.AdminPasswordHash != ""
}

func (c Config) CloudinaryConfigured() bool {
	return c.Cloudinary.CloudName != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "3001")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.max_body_bytes", 50<<20)

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.connect_timeout", 5*time.Second)
	v.SetDefault("db.connect_retries", 3)
	v.SetDefault("db.query_timeout", 3*time.Second)
	v.SetDefault("db.section_timeout", 2*time.Second)
	v.SetDefault("db.migrate_on_start", true)
	v.SetDefault("db.migrations_path", "file://migrations")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 60*time.Second)
	v.SetDefault("redis.channel", "portfolio:version")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "portfolio.events")
	v.SetDefault("kafka.group_id", "portfolio-backup-group")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("auth.admin_password_hash", "")

	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")

	v.SetDefault("client.api_url", "http://localhost:3001")
	v.SetDefault("client.store_dir", "")
	v.SetDefault("client.token", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.protocol", "grpc")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample_ratio", 0.1)
}

// LoadConfig reads .env and config.yaml from the given directories (the
// working directory when none is given) and applies environment overrides.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, strings.TrimSuffix(p, "/")+"/.env")
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	setDefaults(v)

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT", "PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.max_body_bytes", "APP_MAX_BODY_BYTES")

	v.BindEnv("db.dsn", "DB_DSN", "DATABASE_URL")
	v.BindEnv("db.max_conns", "DB_MAX_CONNS")
	v.BindEnv("db.connect_timeout", "DB_CONNECT_TIMEOUT")
	v.BindEnv("db.connect_retries", "DB_CONNECT_RETRIES")
	v.BindEnv("db.query_timeout", "DB_QUERY_TIMEOUT")
	v.BindEnv("db.section_timeout", "DB_SECTION_TIMEOUT")
	v.BindEnv("db.migrate_on_start", "DB_MIGRATE_ON_START")
	v.BindEnv("db.migrations_path", "DB_MIGRATIONS_PATH")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.cache_ttl", "REDIS_CACHE_TTL")
	v.BindEnv("redis.channel", "REDIS_CHANNEL")

	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")

	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("auth.admin_password_hash", "ADMIN_PASSWORD_HASH")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	v.BindEnv("client.api_url", "PORTFOLIO_API_URL")
	v.BindEnv("client.store_dir", "PORTFOLIO_STORE_DIR")
	v.BindEnv("client.token", "PORTFOLIO_TOKEN")

	v.BindEnv("tracing.enabled", "OTEL_ENABLED")
	v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("tracing.protocol", "OTEL_EXPORTER_OTLP_PROTOCOL")
	v.BindEnv("tracing.insecure", "OTEL_EXPORTER_OTLP_INSECURE")
	v.BindEnv("tracing.sample_ratio", "OTEL_SAMPLER_RATIO")

	if err = v.Unmarshal(&cfg); err != nil {
		return
	}

	if cfg.DB.MaxConns < 1 {
		cfg.DB.MaxConns = 1
	}
	if cfg.DB.MaxConns > 10 {
		cfg.DB.MaxConns = 10
	}
	return
}
