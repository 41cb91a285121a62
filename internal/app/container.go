package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/config"
	httpx "github.com/saeedhokal/Saman-Marketplace-sub000/internal/http"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/http/handlers"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/http/middleware"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/auth"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/database"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/notifications"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/payments"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/repositories"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Log    *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	ReadDB      *sqlx.DB
	RedisClient *redis.Client
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Casbin      *auth.CasbinService
	SMS         domain.SMSSender
	Gateway     domain.PaymentGateway

	// Repositories
	TxManager    domain.TxManager
	UserRepo     domain.UserRepository
	ListingRepo  domain.ListingRepository
	FeedRepo     domain.FeedRepository
	NotifRepo    domain.NotificationRepository
	TxRepo       domain.TransactionRepository
	PackageRepo  domain.PackageRepository
	SettingsRepo domain.SettingsRepository
	SessionRepo  domain.SessionRepository
	Checkouts    domain.CheckoutTokenStore

	// Services
	TokenSvc    domain.TokenService
	NotifySvc   *services.NotificationServiceImpl
	LedgerSvc   *services.LedgerServiceImpl
	ListingSvc  *services.ListingServiceImpl
	SweepSvc    *services.SweepServiceImpl
	PurchaseSvc *services.PurchaseServiceImpl
	OTPSvc      domain.OTPService
	AuthSvc     domain.AuthService
	PolicySvc   domain.PolicyService

	Limiter *middleware.RateLimiter
	Handler http.Handler
}

// Option overrides a dependency before the container wires its services
type Option func(*Container)

// WithSMSSender replaces the Twilio sender
func WithSMSSender(s domain.SMSSender) Option {
	return func(c *Container) { c.SMS = s }
}

// WithGateway replaces the Telr client
func WithGateway(g domain.PaymentGateway) Option {
	return func(c *Container) { c.Gateway = g }
}

// WithRedis uses an existing client instead of dialling cfg.RedisAddr
func WithRedis(client *redis.Client) Option {
	return func(c *Container) { c.RedisClient = client }
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config, log *zap.Logger, opts ...Option) (*Container, error) {
	c := &Container{Config: cfg, Log: log}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	if err := c.initRedis(); err != nil {
		c.Close()
		return nil, err
	}
	c.initMetrics()
	c.initRepositories()
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}
	c.initHTTP()
	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN, c.Log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	c.DB = db
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	if c.ReadDB, err = database.ReadDB(db); err != nil {
		return fmt.Errorf("open read side: %w", err)
	}
	return nil
}

func (c *Container) initRedis() error {
	if c.RedisClient == nil {
		c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB).Client
	}
	if err := c.RedisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Container) initMetrics() {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.New(c.Config.MetricsPrefix, c.Registry)
}

func (c *Container) initRepositories() {
	c.TxManager = repositories.NewTxManager(c.DB)
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.ListingRepo = repositories.NewListingRepository(c.DB)
	c.FeedRepo = repositories.NewFeedRepository(c.ReadDB)
	c.NotifRepo = repositories.NewNotificationRepository(c.DB)
	c.TxRepo = repositories.NewTransactionRepository(c.DB)
	c.PackageRepo = repositories.NewPackageRepository(c.DB)
	c.SettingsRepo = repositories.NewSettingsRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, c.Config.RefreshTTL)
	c.Checkouts = repositories.NewCheckoutTokenStore(c.RedisClient, c.Config.CheckoutTTL)
}

func (c *Container) initServices() error {
	cfg := c.Config

	cas, err := auth.NewCasbinService(c.DB, cfg.CasbinModelPath)
	if err != nil {
		return fmt.Errorf("casbin: %w", err)
	}
	c.Casbin = cas
	c.PolicySvc = services.NewPolicyService(cas.E)

	if c.SMS == nil {
		c.SMS = notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, c.Log)
	}
	if c.Gateway == nil {
		c.Gateway = payments.NewTelrClient(cfg.TelrEndpoint, cfg.TelrStoreID, cfg.TelrAuthKey, cfg.TelrTestMode)
	}

	c.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	c.NotifySvc = services.NewNotificationService(c.TxManager, c.NotifRepo, c.UserRepo, c.SMS, c.Metrics, c.Log)
	c.LedgerSvc = services.NewLedgerService(c.TxManager, c.UserRepo, c.TxRepo, c.SettingsRepo,
		c.NotifySvc, c.Metrics, c.Log, cfg.CreditsEnabled)
	c.ListingSvc = services.NewListingService(c.TxManager, c.ListingRepo, c.FeedRepo, c.LedgerSvc,
		c.NotifySvc, c.Metrics, c.Log, services.ListingConfig{
			Lifetime:    cfg.ListingLifetime,
			RenewWindow: cfg.RenewWindow,
		})
	c.SweepSvc = services.NewSweepService(c.TxManager, c.ListingRepo, c.NotifRepo, c.NotifySvc,
		database.NewRedisLocker(c.RedisClient), c.Metrics, c.Log, services.SweepConfig{
			RejectedRetention: cfg.RejectedRetention,
			ExpiryWarning:     cfg.ExpiryWarning,
			LockTTL:           cfg.SweepLockTTL,
		})
	c.PurchaseSvc = services.NewPurchaseService(c.TxManager, c.PackageRepo, c.TxRepo, c.Checkouts,
		c.Gateway, c.LedgerSvc, c.NotifySvc, c.Metrics, c.Log, services.PurchaseConfig{
			GatewayTimeout: cfg.TelrTimeout,
			ReturnBaseURL:  cfg.BaseURL,
			ReconcileAfter: cfg.ReconcileAfter,
		})

	c.OTPSvc = services.NewOTPService(c.SMS, auth.NewCodeHasher(), c.RedisClient, services.OTPConfig{
		Length:       cfg.OTP_Length,
		TTL:          cfg.OTP_TTL,
		MaxAttempts:  cfg.OTP_MaxAttempts,
		ResendWindow: cfg.OTP_ResendWindow,
	})
	c.AuthSvc = services.NewAuthService(c.UserRepo, c.SessionRepo, c.TokenSvc, c.OTPSvc,
		c.Metrics, c.Log, cfg.AdminPhones, cfg.RefreshTTL)
	return nil
}

func (c *Container) initHTTP() {
	c.Limiter = middleware.NewRateLimiter(c.Config.RateLimitRPS, c.Config.RateLimitBurst, c.Config.RateLimitIdleTTL)

	router := httpx.BuildRouter(httpx.Handlers{
		Auth:          handlers.NewAuthHandlers(c.AuthSvc),
		Listings:      handlers.NewListingHandlers(c.ListingSvc),
		Admin:         handlers.NewAdminHandlers(c.ListingSvc, c.LedgerSvc, c.PurchaseSvc, c.NotifySvc),
		Purchases:     handlers.NewPurchaseHandlers(c.PurchaseSvc, c.LedgerSvc),
		Notifications: handlers.NewNotificationHandlers(c.NotifySvc),
		Policies:      handlers.NewPolicyHandlers(c.PolicySvc),
	}, httpx.Deps{
		Log:      c.Log,
		Metrics:  c.Metrics,
		Gatherer: c.Registry,
		Limiter:  c.Limiter,
		JWT:      middleware.NewAuthMW(c.TokenSvc, c.SessionRepo),
		Casbin:   middleware.NewCasbinMW(services.NewCasbinEnforcerWrapper(c.Casbin.E)),
	})
	c.Handler = httpx.WithCORS(router, c.Config.CORSAllowedOrigins)
}

// Wait blocks until background notification work has finished
func (c *Container) Wait() {
	if c.ListingSvc != nil {
		c.ListingSvc.Wait()
	}
	if c.NotifySvc != nil {
		c.NotifySvc.Wait()
	}
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
