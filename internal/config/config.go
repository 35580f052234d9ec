package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret       []byte
	JWTAlgorithm    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	EmailTokenTTL   time.Duration
	BcryptCost      int

	RedisURL     string
	BlocklistTTL time.Duration

	KafkaBrokers []string
	KafkaGroupID string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	Domain       string
	AllowedHosts []string

	Mail MailConfig
}

type MailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "task_manager"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:       []byte(os.Getenv("JWT_SECRET")),
		JWTAlgorithm:    EnvDefault("JWT_ALGORITHM", "HS256"),
		AccessTokenTTL:  EnvDurationDefault("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: EnvDurationDefault("REFRESH_TOKEN_TTL", 48*time.Hour),
		EmailTokenTTL:   EnvDurationDefault("EMAIL_TOKEN_TTL", time.Hour),
		BcryptCost:      EnvIntDefault("BCRYPT_COST", 10),

		RedisURL:     EnvDefault("REDIS_URL", "redis://localhost:6379/0"),
		BlocklistTTL: EnvDurationDefault("BLOCKLIST_TTL", 48*time.Hour),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID: EnvDefault("KAFKA_GROUP_ID", "task_manager_mailer"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "tasks"),

		Domain:       EnvDefault("DOMAIN", "localhost:8080"),
		AllowedHosts: CSV(EnvDefault("ALLOWED_HOSTS", "localhost,127.0.0.1")),

		Mail: MailConfig{
			Server:   os.Getenv("MAIL_SERVER"),
			Port:     EnvIntDefault("MAIL_PORT", 587),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
			FromName: EnvDefault("MAIL_FROM_NAME", "Tasks Management API"),
		},
	}
}

// MaxTokenLifetime is the longest lifetime of any token the guard can see.
func (c Config) MaxTokenLifetime() time.Duration {
	return max(c.AccessTokenTTL, c.RefreshTokenTTL)
}

func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if !strings.HasPrefix(strings.ToUpper(c.JWTAlgorithm), "HS") {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not an HMAC algorithm", c.JWTAlgorithm))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.EmailTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.BlocklistTTL < c.MaxTokenLifetime() {
		errs = append(errs, fmt.Errorf("BLOCKLIST_TTL %s must be at least the longest token lifetime %s", c.BlocklistTTL, c.MaxTokenLifetime()))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	return errors.Join(errs...)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go durations ("15m") or plain seconds ("3600").
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
