package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/clients"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/config"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/controllers"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/database"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/events"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/middleware"
	aws_pkg "github.com/Sarthak210905/studioform-ecommerce-sub000/pkg/aws"
	apperrors "github.com/Sarthak210905/studioform-ecommerce-sub000/pkg/errors"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/pkg/logger"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/routes"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services"
	"github.com/Sarthak210905/studioform-ecommerce-sub000/services/payment"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	logger.Initialize(cfg.Environment)
	log := logger.Log

	// --- AWS setup ---
	awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	if cfg.LogGroup != "" {
		stream := fmt.Sprintf("checkout-%d", os.Getpid())
		if w, err := aws_pkg.NewLogsWriter(context.Background(), awsCfg, cfg.LogGroup, stream); err != nil {
			log.Warn("CloudWatch Logs sink init failed (non-fatal)", zap.Error(err))
		} else {
			logger.InitializeWithWriter(cfg.Environment, w)
			log = logger.Log
		}
	}
	defer log.Sync()

	snsClient := aws_pkg.NewSNSClient(awsCfg)

	// --- Redis ---
	redisClient := database.NewRedisClient(cfg.RedisURL)
	cartRepo := database.NewCartRepository(redisClient, cfg.CartTTL)
	sessionRepo := database.NewSessionRepository(redisClient, cfg.SessionTTL)

	metricsClient, err := aws_pkg.NewMetricsClient(context.Background())
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	// --- Backend client ---
	retry := clients.RetryConfig{
		MaxRetries:     cfg.RetryMaxAttempts,
		BaseDelay:      cfg.RetryBaseDelay,
		MaxDelay:       cfg.RetryMaxDelay,
		AttemptTimeout: cfg.RetryAttemptTimeout,
	}
	backend := clients.NewBackendClient(cfg.BackendURL, retry, log)

	// --- Events ---
	var brokers []string
	if cfg.KafkaBrokers != "" {
		brokers = []string{cfg.KafkaBrokers}
	}
	publisher := events.NewPublisher(brokers, cfg.KafkaTopic, snsClient, cfg.CheckoutTopicARN, log)
	defer publisher.Close()

	// --- Services ---
	pricingService := services.NewPricingService(cfg.PlatformFeeRate)
	couponService := services.NewCouponService(services.NewAPICouponSource(backend), log)
	shippingService := services.NewShippingService(backend, cfg.ShippingFlatRate, cfg.FreeShippingMin, log)
	recalculator := services.NewShippingRecalculator(shippingService, cfg.ShippingDebounce)
	stripeGateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookKey, log)
	pendingPayments := payment.NewPendingRegistry()
	orderService := services.NewOrderService(backend, publisher, time.Duration(cfg.ExchangeWindowDays)*24*time.Hour, log)

	checkoutService := services.NewCheckoutService(
		sessionRepo,
		cartRepo,
		backend,
		shippingService,
		recalculator,
		couponService,
		pricingService,
		stripeGateway,
		pendingPayments,
		publisher,
		func() services.KeepAlive { return backend.NewKeepAlive(cfg.KeepAliveInterval) },
		log,
	)

	// --- HTTP router ---
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apperrors.ErrorMiddleware())
	r.Use(middleware.MetricsMiddleware(metricsClient, "checkout-service"))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-ID", "X-User-Email"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// --- Dependency injection ---
	cartController := controllers.NewCartController(cartRepo, checkoutService, log)
	checkoutController := controllers.NewCheckoutController(checkoutService)
	orderController := controllers.NewOrderController(orderService)
	paymentController := controllers.NewPaymentController(checkoutService, stripeGateway, log)

	routes.RegisterRoutes(r, cfg.JWTSecret, cartController, checkoutController, orderController, paymentController)

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Checkout Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Redis close error", zap.Error(err))
	}

	log.Info("Checkout Service stopped gracefully")
}
