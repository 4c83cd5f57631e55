package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/verifybot/domain"
	"github.com/you/verifybot/internal/config"
	"github.com/you/verifybot/internal/infrastructure/captcha"
	"github.com/you/verifybot/internal/infrastructure/database"
	"github.com/you/verifybot/internal/infrastructure/notifications"
	"github.com/you/verifybot/internal/infrastructure/repositories"
	"github.com/you/verifybot/internal/services"
)

// Container holds all dependencies shared by the bot and web entrypoints
type Container struct {
	Config *config.Config

	// Infrastructure. DB and RedisClient are nil for deployments that
	// do not use them (memory backend, no redis configured).
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories; the backend is chosen once at startup and never
	// branched on afterwards.
	PolicyRepo domain.PolicyRepository
	RecordRepo domain.RecordRepository

	// Services
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	CaptchaSvc      domain.CaptchaVerifier
	PolicySvc       domain.PolicyService
	VerificationSvc domain.VerificationService
}

// NewContainer initializes every dependency except the verification
// service itself, which needs the platform role granter and is built
// by BuildVerificationService once the caller has one.
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{Config: cfg}

	if err := container.initStore(); err != nil {
		return nil, err
	}
	container.initRedis()
	container.initServices()

	return container, nil
}

func (c *Container) initStore() error {
	switch c.Config.StoreBackend {
	case "memory":
		c.PolicyRepo = repositories.NewMemoryPolicyRepository()
		c.RecordRepo = repositories.NewMemoryRecordRepository()
	case "postgres":
		db, err := database.Open(c.Config.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		c.DB = db
		c.PolicyRepo = repositories.NewPolicyRepository(db)
		c.RecordRepo = repositories.NewRecordRepository(db)
	default:
		return fmt.Errorf("unknown store backend %q", c.Config.StoreBackend)
	}
	return nil
}

func (c *Container) initRedis() {
	if c.Config.RedisAddr == "" {
		return
	}
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB).Client
}

func (c *Container) initServices() {
	c.TokenSvc = services.NewTokenService(c.Config.PhoneSecret)
	c.NotificationSvc = notifications.NewTwilioService(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioFrom,
	)
	c.CaptchaSvc = captcha.NewRecaptchaVerifier(c.Config.RecaptchaSecret)
	c.PolicySvc = services.NewPolicyService(c.PolicyRepo)
}

// BuildVerificationService finishes wiring once the platform actuator
// is known (live Discord session or the web-only noop).
func (c *Container) BuildVerificationService(granter domain.RoleGranter) {
	c.VerificationSvc = services.NewVerificationService(
		c.PolicyRepo,
		c.RecordRepo,
		c.TokenSvc,
		c.NotificationSvc,
		granter,
		c.RedisClient,
		services.VerificationConfig{
			BaseURL:      c.Config.BaseURL,
			CodeTTL:      c.Config.CodeTTL,
			ResendWindow: c.Config.ResendWindow,
		},
	)
}

// StorePing probes the configured store for the diagnostics command.
func (c *Container) StorePing(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// RedisPing probes redis for the diagnostics command.
func (c *Container) RedisPing(ctx context.Context) error {
	if c.RedisClient == nil {
		return nil
	}
	return c.RedisClient.Ping(ctx).Err()
}
