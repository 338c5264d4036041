package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	BaseURL       string
	CORSOrigins   []string
	JWTSecret     string
	SessionSecret string
	RolesFile     string
	CacheTTL      time.Duration

	DatabaseURL string

	RedisHost     string
	RedisPassword string

	Scylla ScyllaConfig
	SMTP   SMTPConfig
	MinIO  MinIOConfig

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	StripeWebhookSecret string
	AMQPURL             string

	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
}

type ScyllaConfig struct {
	Hosts      []string
	Keyspace   string
	Username   string
	Password   string
	SSLEnabled bool
	CACertPath string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ .env file loaded")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		RolesFile:     os.Getenv("ROLES_FILE"),
		CacheTTL:      getDuration("CACHE_TTL", 10*time.Minute),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		Scylla: ScyllaConfig{
			Hosts:      splitList(os.Getenv("SCYLLA_HOSTS")),
			Keyspace:   os.Getenv("SCYLLA_KEYSPACE"),
			Username:   os.Getenv("SCYLLA_USERNAME"),
			Password:   os.Getenv("SCYLLA_PASSWORD"),
			SSLEnabled: strings.EqualFold(os.Getenv("SCYLLA_SSL_ENABLED"), "true"),
			CACertPath: os.Getenv("SCYLLA_SSL_CA_PATH"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "product-images"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		},

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AMQPURL:             os.Getenv("AMQP_URL"),

		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		FacebookClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
		FacebookClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),
	}
}

// Validate checks the settings the server cannot start without. Every other
// integration is simply disabled when left empty.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	if c.hasOAuth() && c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required when OAuth is configured"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) SMTPEnabled() bool   { return c.SMTP.Host != "" && c.SMTP.From != "" }
func (c *Config) ScyllaEnabled() bool { return len(c.Scylla.Hosts) > 0 && c.Scylla.Keyspace != "" }
func (c *Config) MinIOEnabled() bool  { return c.MinIO.Endpoint != "" }

func (c *Config) hasOAuth() bool {
	return (c.GoogleClientID != "" && c.GoogleClientSecret != "") ||
		(c.FacebookClientID != "" && c.FacebookClientSecret != "")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
