package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	aws_pkg "github.com/Sarthak210905/studioform-ecommerce-sub000/pkg/aws"
)

type Config struct {
	Port        string
	Environment string

	BackendURL string
	RedisURL   string

	KafkaBrokers     string
	KafkaTopic       string
	CheckoutTopicARN string
	LogGroup         string

	StripeSecretKey  string
	StripeWebhookKey string
	JWTSecret        string

	CartTTL    time.Duration
	SessionTTL time.Duration

	PlatformFeeRate     float64
	ShippingFlatRate    float64
	FreeShippingMin     float64
	ShippingDebounce    time.Duration
	KeepAliveInterval   time.Duration
	ExchangeWindowDays  int
	RateLimitPerSecond  float64
	RateLimitBurst      int
	RequestTimeout      time.Duration
	RetryMaxAttempts    int
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	RetryAttemptTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	// Local development convenience; missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8088"),
		Environment: getEnv("ENVIRONMENT", "development"),

		BackendURL: getEnv("BACKEND_URL", "http://order-service:8083"),
		RedisURL:   getEnv("REDIS_URL", "redis://redis:6379"),

		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:       getEnv("CHECKOUT_TOPIC", "checkout.events"),
		CheckoutTopicARN: getEnv("CHECKOUT_SNS_TOPIC_ARN", "arn:aws:sns:eu-west-2:000000000000:checkout-events"),
		LogGroup:         os.Getenv("CLOUDWATCH_LOG_GROUP"),

		StripeSecretKey:  os.Getenv("STRIPE_API_KEY"),
		StripeWebhookKey: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		JWTSecret:        os.Getenv("JWT_SECRET"),

		CartTTL:    getDuration("CART_TTL", time.Hour*24*7),
		SessionTTL: getDuration("CHECKOUT_SESSION_TTL", time.Hour*2),

		PlatformFeeRate:     getFloat("PLATFORM_FEE_RATE", 0.02),
		ShippingFlatRate:    getFloat("SHIPPING_FLAT_RATE", 150),
		FreeShippingMin:     getFloat("FREE_SHIPPING_MIN", 1499),
		ShippingDebounce:    getDuration("SHIPPING_DEBOUNCE", 600*time.Millisecond),
		KeepAliveInterval:   getDuration("KEEP_ALIVE_INTERVAL", 4*time.Minute),
		ExchangeWindowDays:  getInt("EXCHANGE_WINDOW_DAYS", 7),
		RateLimitPerSecond:  getFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", 20),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 60*time.Second),
		RetryMaxAttempts:    getInt("BACKEND_RETRY_MAX", 3),
		RetryBaseDelay:      getDuration("BACKEND_RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:       getDuration("BACKEND_RETRY_MAX_DELAY", 8*time.Second),
		RetryAttemptTimeout: getDuration("BACKEND_ATTEMPT_TIMEOUT", 45*time.Second),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)

			if secretJSON, err := sm.GetSecret(context.Background(), "checkout/APP_SECRETS"); err == nil && secretJSON != "" {
				var m map[string]string
				if err := json.Unmarshal([]byte(secretJSON), &m); err == nil {
					if v, ok := m["STRIPE_API_KEY"]; ok && v != "" {
						cfg.StripeSecretKey = v
					}
					if v, ok := m["STRIPE_WEBHOOK_SECRET"]; ok && v != "" {
						cfg.StripeWebhookKey = v
					}
					if v, ok := m["JWT_SECRET"]; ok && v != "" {
						cfg.JWTSecret = v
					}
				}
			}
		}
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if cfg.StripeSecretKey == "" || cfg.StripeWebhookKey == "" {
		return nil, fmt.Errorf("stripe config incomplete")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
