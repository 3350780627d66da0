package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	devJWTSecret = "dev-secret-change-me"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"` // overrides the discrete postgres fields
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	MongoURL string `mapstructure:"mongo_url"`
	MongoDB  string `mapstructure:"mongo_db"`
}

type AuthConfig struct {
	JWTSecret         string `mapstructure:"jwt_secret"`
	ExpirationMinutes int    `mapstructure:"expiration_minutes"`
}

type LoggerConfig struct {
	Level      int8   `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

type RateLimitConfig struct {
	Rate     float64 `mapstructure:"rate"` // tokens per second
	Capacity int64   `mapstructure:"capacity"`
}

// Develop reports whether the server runs in gin debug mode.
func (c *Config) Develop() bool {
	return c.Server.Mode == gin.DebugMode
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// PostgresDSN returns DATABASE_URL when set, the discrete fields otherwise.
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// Load reads .env, the optional config file at path and the environment,
// in increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, errors.Wrap(err, "config:Load: bindEnv")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config:Load: read %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config:Load: unmarshal")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	// gin.SetMode panics on anything else
	switch c.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return errors.Errorf("config: unknown server mode %q", c.Server.Mode)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return errors.Errorf("config: unknown storage driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		if !c.Develop() {
			return errors.New("config: JWT_SECRET is required outside debug mode")
		}
		c.Auth.JWTSecret = devJWTSecret
	}
	if c.Auth.ExpirationMinutes <= 0 {
		return errors.Errorf("config: invalid token expiration %d", c.Auth.ExpirationMinutes)
	}

	// "a, b" from the environment arrives as a single element
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, o := range c.Server.CORSOrigins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	c.Server.CORSOrigins = origins
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", time.Minute)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ystore")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.mongo_url", "mongodb://localhost:27017")
	v.SetDefault("database.mongo_db", "ystore")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.expiration_minutes", 10080)

	v.SetDefault("logger.level", 0)
	v.SetDefault("logger.path", "")
	v.SetDefault("logger.max_size", 16)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.console", true)

	v.SetDefault("ratelimit.rate", 20.0)
	v.SetDefault("ratelimit.capacity", 100)
}

var envBindings = map[string]string{
	"server.host":             "HOST",
	"server.port":             "PORT",
	"server.mode":             "GIN_MODE",
	"server.cors_origins":     "CORS_ORIGINS",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"database.driver":         "STORAGE_DRIVER",
	"database.url":            "DATABASE_URL",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.sslmode":        "DB_SSLMODE",
	"database.mongo_url":      "MONGO_URL",
	"database.mongo_db":       "MONGO_DB",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.expiration_minutes": "JWT_EXPIRATION_MINUTES",
	"logger.level":            "LOG_LEVEL",
	"logger.path":             "LOG_PATH",
	"logger.console":          "LOG_CONSOLE",
	"ratelimit.rate":          "RATE_LIMIT_RATE",
	"ratelimit.capacity":      "RATE_LIMIT_CAPACITY",
}

func bindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}
