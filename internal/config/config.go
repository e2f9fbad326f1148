package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"5000"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`

	JWTSecret  string `env:"JWT_SECRET,required,notEmpty"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`

	PlaidClientID string `env:"PLAID_CLIENT_ID"`
	PlaidSecret   string `env:"PLAID_SECRET"`
	PlaidEnv      string `env:"PLAID_ENV" envDefault:"sandbox"`

	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gemini-1.5-flash"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@pfm-dashboard.com"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"PFM Dashboard"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RabbitMQURL   string `env:"RABBITMQ_URL"`
	RabbitMQQueue string `env:"RABBITMQ_QUEUE" envDefault:"pfm.emails"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	TOTPMaxAttempts int           `env:"TOTP_MAX_ATTEMPTS" envDefault:"5"`
	TOTPWindow      time.Duration `env:"TOTP_ATTEMPT_WINDOW" envDefault:"5m"`

	NotifyEnabled  bool   `env:"NOTIFY_ENABLED" envDefault:"true"`
	NotifyTimezone string `env:"NOTIFY_TIMEZONE" envDefault:"Asia/Kolkata"`
	NotifyHour     int    `env:"NOTIFY_HOUR" envDefault:"9"`
	NotifyMinute   int    `env:"NOTIFY_MINUTE" envDefault:"0"`
	NotifyWorkers  int    `env:"NOTIFY_WORKERS" envDefault:"4"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AllowedOrigins parsea CORS_ALLOWED_ORIGINS separado por comas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Location resuelve la zona horaria de las notificaciones; cae a UTC si no existe.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.NotifyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
