package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	appleasing "github.com/nhatro/backend/internal/application/leasing"
	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/nhatro/backend/internal/infrastructure/cache"
	"github.com/nhatro/backend/internal/infrastructure/config"
	"github.com/nhatro/backend/internal/infrastructure/event"
	"github.com/nhatro/backend/internal/infrastructure/logger"
	"github.com/nhatro/backend/internal/infrastructure/notification"
	"github.com/nhatro/backend/internal/infrastructure/payment"
	"github.com/nhatro/backend/internal/infrastructure/persistence"
	"github.com/nhatro/backend/internal/infrastructure/scheduler"
	"github.com/nhatro/backend/internal/interfaces/http/handler"
	"github.com/nhatro/backend/internal/interfaces/http/middleware"
	"github.com/nhatro/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.Open(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	// Repositories
	billRepo := persistence.NewGormBillRepository(db.DB)
	roomRepo := persistence.NewGormRoomRepository(db.DB)
	checkInRepo := persistence.NewGormCheckInRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Notifier: mail when configured, log-only otherwise
	var graceNotifier appleasing.GraceNotifier
	var paymentNotifier appleasing.PaymentNotifier
	if cfg.Mail.Enabled {
		sender := notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		mailNotifier := notification.NewMailNotifier(sender, log)
		graceNotifier = mailNotifier
		paymentNotifier = mailNotifier
		log.Info("Mail notifications enabled", zap.String("host", cfg.Mail.Host))
	} else {
		logNotifier := notification.NewLogNotifier(log)
		graceNotifier = logNotifier
		paymentNotifier = logNotifier
	}

	// Application services
	cashEpsilon := valueobject.NewMoneyVNDFromInt(cfg.Billing.CashAmountEpsilon)

	billingService := appbilling.NewBillingService(appbilling.BillingServiceConfig{
		Bills:          billRepo,
		Contracts:      contractRepo,
		Rooms:          roomRepo,
		EventPublisher: eventBus,
		Logger:         log,
		CashEpsilon:    cashEpsilon,
	})

	roomService := appleasing.NewRoomService(roomRepo, log)

	leaseService := appleasing.NewLeaseService(appleasing.LeaseServiceConfig{
		Rooms:          roomRepo,
		CheckIns:       checkInRepo,
		Contracts:      contractRepo,
		Bills:          billRepo,
		EventPublisher: eventBus,
		Logger:         log,
		DepositGrace:   cfg.Billing.DepositGrace(),
	})

	gateways, err := buildGateways(cfg)
	if err != nil {
		log.Fatal("Failed to configure payment gateways", zap.Error(err))
	}
	for _, gw := range gateways {
		log.Info("Payment gateway enabled", zap.String("provider", string(gw.Provider())))
	}

	idempotencyStore := buildIdempotencyStore(cfg, log)

	reconciliationService := appbilling.NewReconciliationService(appbilling.ReconciliationServiceConfig{
		Gateways:       gateways,
		Bills:          billRepo,
		EventPublisher: eventBus,
		Idempotency:    idempotencyStore,
		Logger:         log,
		CashEpsilon:    cashEpsilon,
	})

	// Payment side effects run off the bus so a failing handler can
	// never roll back the payment that triggered it
	eventBus.Subscribe(appleasing.NewReceiptPaidHandler(checkInRepo, log))
	eventBus.Subscribe(appleasing.NewContractDepositHandler(contractRepo, log))
	eventBus.Subscribe(appleasing.NewPaymentReceiptHandler(contractRepo, checkInRepo, paymentNotifier, log))

	ctx := context.Background()
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Deposit grace sweep
	sweepService := appleasing.NewDepositSweepService(appleasing.DepositSweepServiceConfig{
		CheckIns:       checkInRepo,
		Rooms:          roomRepo,
		Contracts:      contractRepo,
		Bills:          billRepo,
		EventPublisher: eventBus,
		Notifier:       graceNotifier,
		Logger:         log,
		WarningLead:    cfg.Billing.GraceWarningLead,
	})

	sweepScheduler, err := scheduler.NewDepositSweepScheduler(sweepService, log, scheduler.DepositSweepSchedulerConfig{
		Enabled:       cfg.Scheduler.Enabled,
		CheckInterval: cfg.Scheduler.SweepCheckInterval,
		SweepTimeout:  5 * time.Minute,
	})
	if err != nil {
		log.Fatal("Failed to create deposit sweep scheduler", zap.Error(err))
	}
	if err := sweepScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start deposit sweep scheduler", zap.Error(err))
	}

	// HTTP handlers
	billHandler := handler.NewBillHandler(billingService)
	roomHandler := handler.NewRoomHandler(roomService)
	leaseHandler := handler.NewLeaseHandler(leaseService)
	paymentHandler := handler.NewPaymentHandler(reconciliationService, billingService)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	engine.GET("/health", systemHandler.Health)

	// Gateway callback endpoints live outside the versioned API group:
	// providers get these URLs at order creation and never send auth
	callbacks := engine.Group("/payments/callback")
	callbacks.POST("/momo", paymentHandler.HandleMoMoCallback)
	callbacks.GET("/vnpay", paymentHandler.HandleVNPayCallback)
	callbacks.POST("/zalopay", paymentHandler.HandleZaloPayCallback)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.RoomRoutes(roomHandler)).
		Register(router.BillRoutes(billHandler, paymentHandler)).
		Register(router.CheckInRoutes(leaseHandler)).
		Register(router.ContractRoutes(leaseHandler)).
		Register(router.SystemRoutes(systemHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := sweepScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Deposit sweep scheduler shutdown failed", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus shutdown failed", zap.Error(err))
	}

	log.Info("Server stopped")
}

// buildGateways constructs an adapter for every gateway enabled in config
func buildGateways(cfg *config.Config) ([]billing.PaymentGateway, error) {
	var gateways []billing.PaymentGateway

	if cfg.MoMo.Enabled {
		adapter, err := payment.NewMoMoAdapter(&payment.MoMoConfig{
			PartnerCode: cfg.MoMo.PartnerCode,
			AccessKey:   cfg.MoMo.AccessKey,
			SecretKey:   cfg.MoMo.SecretKey,
			Endpoint:    cfg.MoMo.Endpoint,
			ReturnURL:   cfg.MoMo.ReturnURL,
			NotifyURL:   cfg.MoMo.NotifyURL,
		})
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, adapter)
	}

	if cfg.VNPay.Enabled {
		adapter, err := payment.NewVNPayAdapter(&payment.VNPayConfig{
			TmnCode:    cfg.VNPay.TmnCode,
			HashSecret: cfg.VNPay.HashSecret,
			PayURL:     cfg.VNPay.PayURL,
			ReturnURL:  cfg.VNPay.ReturnURL,
		})
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, adapter)
	}

	if cfg.ZaloPay.Enabled {
		adapter, err := payment.NewZaloPayAdapter(&payment.ZaloPayConfig{
			AppID:    cfg.ZaloPay.AppID,
			Key1:     cfg.ZaloPay.Key1,
			Key2:     cfg.ZaloPay.Key2,
			Endpoint: cfg.ZaloPay.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, adapter)
	}

	return gateways, nil
}

// buildIdempotencyStore prefers Redis so several instances can share
// callback dedup state; a single-node deployment works fine in memory
func buildIdempotencyStore(cfg *config.Config, log *zap.Logger) appbilling.IdempotencyStore {
	store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, 7*24*time.Hour)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		return cache.NewInMemoryIdempotencyStore(7 * 24 * time.Hour)
	}
	log.Info("Redis idempotency store connected", zap.String("host", cfg.Redis.Host))
	return store
}
