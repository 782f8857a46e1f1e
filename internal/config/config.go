package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Email    EmailConfig
	Storage  StorageConfig
	AI       AIConfig
	Frontend FrontendConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. Each token purpose carries
// its own TTL; the revocation entry in Redis is written with the same TTL so
// token expiry and entry expiry lapse together.
type AuthConfig struct {
	JWTSecret                string
	LoginTokenTTLMinutes     int
	ForgotPasswordTTLMinutes int
	InvitationTTLMinutes     int
	BcryptCost               int
}

// EmailConfig holds Brevo transactional email settings.
type EmailConfig struct {
	APIURL      string
	APIKey      string
	SenderEmail string
	SenderName  string
}

// StorageConfig holds S3 object storage settings.
type StorageConfig struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// AIConfig holds completion service settings.
type AIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// FrontendConfig holds the URLs embedded in outbound emails.
type FrontendConfig struct {
	BaseURL          string
	RegistrationURL  string
	PasswordResetURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "dochub-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                getEnv("AUTH_JWT_SECRET", "dev-secret"),
			LoginTokenTTLMinutes:     getEnvAsInt("AUTH_LOGIN_TOKEN_TTL_MINUTES", 1440),
			ForgotPasswordTTLMinutes: getEnvAsInt("AUTH_FORGOT_PASSWORD_TTL_MINUTES", 30),
			InvitationTTLMinutes:     getEnvAsInt("AUTH_INVITATION_TTL_MINUTES", 10080),
			BcryptCost:               getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Email: EmailConfig{
			APIURL:      getEnv("BREVO_API_URL", "https://api.brevo.com/v3/smtp/email"),
			APIKey:      os.Getenv("BREVO_API_KEY"),
			SenderEmail: getEnv("BREVO_SENDER_EMAIL", "noreply@example.com"),
			SenderName:  getEnv("BREVO_SENDER_NAME", "DocHub"),
		},
		Storage: StorageConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          os.Getenv("S3_BUCKET_NAME"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		AI: AIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvAsInt("OPENAI_MAX_TOKENS", 1024),
		},
		Frontend: FrontendConfig{
			BaseURL:          getEnv("FRONT_END_BASE_URL", "http://localhost:5173"),
			RegistrationURL:  getEnv("FRONT_END_REGISTRATION_URL", "http://localhost:5173/register"),
			PasswordResetURL: getEnv("FRONT_END_PASSWORD_RESET_URL", "http://localhost:5173/reset-password"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginTokenTTL returns the login token expiry window.
func (a AuthConfig) LoginTokenTTL() time.Duration {
	return time.Duration(a.LoginTokenTTLMinutes) * time.Minute
}

// ForgotPasswordTTL returns the password reset token expiry window.
func (a AuthConfig) ForgotPasswordTTL() time.Duration {
	return time.Duration(a.ForgotPasswordTTLMinutes) * time.Minute
}

// InvitationTTL returns the invitation token expiry window.
func (a AuthConfig) InvitationTTL() time.Duration {
	return time.Duration(a.InvitationTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
