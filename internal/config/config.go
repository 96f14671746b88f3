package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Email     EmailConfig     `mapstructure:"email"`
	Site      SiteConfig      `mapstructure:"site"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type EmailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	SMTPHost       string `mapstructure:"smtp_host"`
	SMTPPort       int    `mapstructure:"smtp_port"`
	SMTPUsername   string `mapstructure:"smtp_username"`
	SMTPPassword   string `mapstructure:"smtp_password"`
	From           string `mapstructure:"from"`
	FromName       string `mapstructure:"from_name"`
	ContactInbox   string `mapstructure:"contact_inbox"`
	ServiceToken   string `mapstructure:"service_token"`
}

type SiteConfig struct {
	// Origin is the public site URL, used for checkout redirect and
	// dashboard links in emails.
	Origin string `mapstructure:"origin"`
}

type RateLimitConfig struct {
	FormMaxAttempts    int `mapstructure:"form_max_attempts"`
	FormWindowMin      int `mapstructure:"form_window_minutes"`
	FormBlockMin       int `mapstructure:"form_block_minutes"`
	RetentionDays      int `mapstructure:"retention_days"`
	AuditRetentionDays int `mapstructure:"audit_retention_days"`
}

func LoadConfig() *Config {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	config := &Config{}

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "3090")
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "dev")
	viper.SetDefault("database.password", "devpass")
	viper.SetDefault("database.name", "portal")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("jwt.secret", "change-me-in-production")

	viper.SetDefault("email.from", "noreply@hrldev.ro")
	viper.SetDefault("email.from_name", "HRL.dev")
	viper.SetDefault("email.contact_inbox", "contact@hrldev.ro")
	viper.SetDefault("email.smtp_port", 587)

	viper.SetDefault("site.origin", "https://hrldev.ro")

	viper.SetDefault("rate_limit.form_max_attempts", 5)
	viper.SetDefault("rate_limit.form_window_minutes", 15)
	viper.SetDefault("rate_limit.form_block_minutes", 30)
	viper.SetDefault("rate_limit.retention_days", 7)
	viper.SetDefault("rate_limit.audit_retention_days", 180)

	viper.AutomaticEnv()

	if host := os.Getenv("SERVER_HOST"); host != "" {
		viper.Set("server.host", host)
	}
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		viper.Set("server.mode", mode)
	}

	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		viper.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		viper.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		viper.Set("database.user", dbUser)
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		viper.Set("database.password", dbPassword)
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		viper.Set("database.name", dbName)
	}
	if dbSSLMode := os.Getenv("DB_SSLMODE"); dbSSLMode != "" {
		viper.Set("database.sslmode", dbSSLMode)
	}

	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		viper.Set("redis.host", redisHost)
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		viper.Set("redis.port", redisPort)
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		viper.Set("redis.password", redisPassword)
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		viper.Set("jwt.secret", jwtSecret)
	}

	// Stripe and email secrets are server-side only, never sent to clients.
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		viper.Set("stripe.secret_key", key)
	}
	if secret := os.Getenv("STRIPE_WEBHOOK_SECRET"); secret != "" {
		viper.Set("stripe.webhook_secret", secret)
	}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		viper.Set("email.sendgrid_api_key", key)
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		viper.Set("email.smtp_host", host)
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		viper.Set("email.smtp_username", user)
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		viper.Set("email.smtp_password", pass)
	}
	if from := os.Getenv("EMAIL_FROM"); from != "" {
		viper.Set("email.from", from)
	}
	if inbox := os.Getenv("CONTACT_INBOX"); inbox != "" {
		viper.Set("email.contact_inbox", inbox)
	}
	if token := os.Getenv("EMAIL_SERVICE_TOKEN"); token != "" {
		viper.Set("email.service_token", token)
	}
	if origin := os.Getenv("SITE_ORIGIN"); origin != "" {
		viper.Set("site.origin", origin)
	}

	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return config
}
