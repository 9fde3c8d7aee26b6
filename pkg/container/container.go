package container

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/access"
	"library-backend/internal/config"
	catalogHandler "library-backend/internal/domains/catalog/handler"
	catalogRepo "library-backend/internal/domains/catalog/repository"
	catalogService "library-backend/internal/domains/catalog/service"
	circulationHandler "library-backend/internal/domains/circulation/handler"
	circulationRepo "library-backend/internal/domains/circulation/repository"
	circulationService "library-backend/internal/domains/circulation/service"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/infrastructure/queue"
	"library-backend/internal/shared"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa toàn bộ dependencies của application (root của dependency graph)
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB   // nil khi STORE_DRIVER=memory
	Redis       *infraCache.RedisClient // nil khi STORE_DRIVER=memory
	Cache       cache.Cache
	AsynqClient *asynq.Client // nil khi STORE_DRIVER=memory
	JWTManager  *jwt.Manager
	Policy      *access.Policy
	Notifier    shared.AvailabilityNotifier

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	ItemRepo   catalogRepo.RepositoryInterface
	LoanRepo   circulationRepo.RepositoryInterface
	UnitOfWork circulationRepo.UnitOfWork

	// ========================================
	// SERVICE LAYER
	// ========================================
	CatalogService catalogService.ServiceInterface
	LendingService circulationService.ServiceInterface

	// ========================================
	// HANDLER LAYER
	// ========================================
	CatalogHandler     *catalogHandler.Handler
	CirculationHandler *circulationHandler.Handler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo toàn bộ dependency graph theo thứ tự:
// Config -> Infrastructure -> Repositories -> Services -> Handlers
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:     cfg,
		JWTManager: jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL()),
		Policy:     access.DefaultPolicy(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		c.initMemoryInfrastructure()
	default:
		if err := c.initPostgresInfrastructure(ctx); err != nil {
			c.Cleanup()
			return nil, err
		}
	}

	if cfg.Store.SeedSampleData {
		created, err := catalogRepo.SeedSampleCatalog(ctx, c.ItemRepo, time.Now().UTC())
		if err != nil {
			c.Cleanup()
			return nil, fmt.Errorf("failed to seed sample catalog: %w", err)
		}
		logger.Info("Sample catalog seeded", map[string]interface{}{"created": created})
	}

	c.initServices()
	c.initHandlers()

	logger.Info("DI Container initialized", map[string]interface{}{
		"store": cfg.Store.Driver,
		"env":   cfg.App.Environment,
	})
	return c, nil
}

// initMemoryInfrastructure: single-process mode, không Redis, không worker
// Notifier được gán trong initServices
func (c *Container) initMemoryInfrastructure() {
	store := memstore.New()

	c.Cache = cache.NewMemoryCache()

	c.ItemRepo = store.Items()
	c.LoanRepo = store.Loans()
	c.UnitOfWork = store
}

func (c *Container) initPostgresInfrastructure(ctx context.Context) error {
	// ----------------------------------------
	// DATABASE
	// ----------------------------------------
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if c.Config.Store.AutoMigrate {
		if err := database.EnsureSchema(ctx, db.Pool); err != nil {
			return err
		}
	}

	// ----------------------------------------
	// REDIS (cache + asynq)
	// ----------------------------------------
	redisClient := infraCache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := redisClient.Connect(ctx); err != nil {
		// Redis không critical cho lending: DB vẫn là source of truth
		logger.Warn("Redis connection failed (non-critical)", map[string]interface{}{"error": err.Error()})
	}
	c.Redis = redisClient
	c.Cache = infraCache.NewRedisCache(redisClient.Client)

	c.AsynqClient = asynq.NewClient(c.RedisClientOpt())
	c.Notifier = queue.NewTaskClient(c.AsynqClient)

	// ----------------------------------------
	// REPOSITORIES
	// ----------------------------------------
	c.ItemRepo = catalogRepo.NewPostgresRepository(db.Pool)
	c.LoanRepo = circulationRepo.NewPostgresRepository(db.Pool)
	c.UnitOfWork = circulationRepo.NewPostgresUnitOfWork(db.Pool)

	return nil
}

func (c *Container) initServices() {
	c.CatalogService = catalogService.NewService(c.ItemRepo, c.Cache)
	c.LendingService = circulationService.NewLendingService(c.UnitOfWork, c.LoanRepo)

	// memory mode: không có worker, snapshot được ghi lại ngay sau mỗi thay đổi
	if c.Notifier == nil {
		c.Notifier = catalogService.NewSyncNotifier(c.CatalogService)
	}
}

func (c *Container) initHandlers() {
	c.CatalogHandler = catalogHandler.NewHandler(c.CatalogService, c.LendingService, c.Notifier)
	c.CirculationHandler = circulationHandler.NewHandler(c.LendingService, c.Policy, c.Notifier, c.Cache)
}

// RedisClientOpt là cấu hình Redis dùng chung cho asynq client/server/scheduler
func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("Failed to close asynq client", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("Failed to close Redis", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}
}
