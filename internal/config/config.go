// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	Identity                `yaml:"identity"`
	Meals                   `yaml:"meals"`
	Billing                 `yaml:"billing"`
	Cron                    `yaml:"cron"`
	Casso                   `yaml:"casso"`
	PayOS                   `yaml:"payos"`
	Stripe                  `yaml:"stripe"`
	VietQR                  `yaml:"vietqr"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env-default:"*"`
	RateLimit      float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst      int           `yaml:"rate_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ параметры подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Identity настройки проверки токенов внешнего провайдера идентификации
type Identity struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
}

// Meals настройки дедлайна заказов и автосброса
type Meals struct {
	CutoffHour        int           `yaml:"cutoff_hour" env-default:"6"`
	ResetTolerance    time.Duration `yaml:"auto_reset_tolerance" env-default:"30m"`
	SchedulerInterval time.Duration `yaml:"scheduler_interval" env-default:"5m"`
	ForecastCacheTTL  time.Duration `yaml:"forecast_cache_ttl" env-default:"1m"`
	SchedulerMetrics  string        `yaml:"scheduler_metrics_address" env:"SCHEDULER_METRICS_ADDRESS" env-default:":9091"`
}

// Billing настройки тарифов и пробного периода
type Billing struct {
	AmountTolerance int64            `yaml:"amount_tolerance" env-default:"100"`
	TrialDays       int              `yaml:"trial_days" env-default:"14"`
	Currency        string           `yaml:"currency" env-default:"VND"`
	Prices          map[string]int64 `yaml:"prices"`
}

// Cron секрет для внешнего планировщика
type Cron struct {
	CronSecret string `yaml:"secret" env:"CRON_SECRET"`
}

// Casso секрет вебхука банковских переводов
type Casso struct {
	CassoWebhookSecret string `yaml:"webhook_secret" env:"CASSO_WEBHOOK_SECRET"`
}

// PayOS ключи и адреса возврата PayOS
type PayOS struct {
	PayOSClientID    string `yaml:"client_id" env:"PAYOS_CLIENT_ID"`
	PayOSAPIKey      string `yaml:"api_key" env:"PAYOS_API_KEY"`
	PayOSChecksumKey string `yaml:"checksum_key" env:"PAYOS_CHECKSUM_KEY"`
	PayOSReturnURL   string `yaml:"return_url"`
	PayOSCancelURL   string `yaml:"cancel_url"`
}

// Stripe ключи и идентификаторы цен Stripe
type Stripe struct {
	StripeSecretKey     string            `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string            `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	StripePriceIDs      map[string]string `yaml:"price_ids"`
	StripeSuccessURL    string            `yaml:"success_url"`
	StripeCancelURL     string            `yaml:"cancel_url"`
	StripePortalURL     string            `yaml:"portal_return_url"`
}

// VietQR реквизиты получателя банковского перевода
type VietQR struct {
	BankID      string `yaml:"bank_id" env:"VIETQR_BANK_ID"`
	AccountNo   string `yaml:"account_no" env:"VIETQR_ACCOUNT_NO"`
	AccountName string `yaml:"account_name"`
	Template    string `yaml:"template" env-default:"compact2"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	// .env опционален, переменные окружения имеют приоритет
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"Redis: %s\n"+
			"HTTPServer: %s (timeout %s)\n"+
			"Meals: cutoff %d, tolerance %s, interval %s\n"+
			"Billing: tolerance %d, trial %d days, currency %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.CutoffHour,
		c.ResetTolerance,
		c.SchedulerInterval,
		c.AmountTolerance,
		c.TrialDays,
		c.Currency,
	)
}
