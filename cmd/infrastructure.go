package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pantry/config"
	"pantry/domain/category"
	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/shopping"
	"pantry/domain/unit"
	"pantry/infrastructure/lock"
	"pantry/infrastructure/persistence/gormdb"
	"pantry/infrastructure/persistence/migrations"
	"pantry/infrastructure/persistence/mocks"
	"pantry/infrastructure/persistence/retry"
	"pantry/pkg/logger"
	"pantry/pkg/metrics"
)

// DriverMock keeps everything in memory. Nothing survives a restart.
const DriverMock = "mock"

// Infrastructure is the storage and locking side shared by the API server
// and the worker.
type Infrastructure struct {
	DB          *gorm.DB // nil for the mock driver
	Ingredients ingredient.Repository
	Sessions    shopping.Repository
	Categories  category.Repository
	Units       unit.Repository
	UoW         shared.UnitOfWorkFactory
	Locker      shared.Locker
	Redis       *goredis.Client // nil unless redis locking is enabled

	closers []func() error
}

// NewInfrastructure connects to the configured database and lock backend.
// Committed events go to publisher when it is not nil.
func NewInfrastructure(ctx context.Context, cfg *config.Config, publisher shared.EventPublisher, recorder metrics.Recorder) (*Infrastructure, error) {
	infra := &Infrastructure{}

	if cfg.Database.Driver == DriverMock {
		if err := infra.initMock(publisher); err != nil {
			return nil, err
		}
	} else if err := infra.initDatabase(ctx, cfg, publisher, recorder); err != nil {
		_ = infra.Close()
		return nil, err
	}

	if err := infra.initLocker(ctx, cfg); err != nil {
		_ = infra.Close()
		return nil, err
	}
	return infra, nil
}

func (i *Infrastructure) initMock(publisher shared.EventPublisher) error {
	logger.Info("Using in-memory persistence")

	categoryRows, unitRows := gormdb.SeedRows(time.Now().UTC())
	categories := make([]*category.Category, 0, len(categoryRows))
	for idx := range categoryRows {
		c, err := categoryRows[idx].ToDomain()
		if err != nil {
			return fmt.Errorf("seed category %s: %w", categoryRows[idx].ID, err)
		}
		categories = append(categories, c)
	}
	units := make([]*unit.Unit, 0, len(unitRows))
	for idx := range unitRows {
		u, err := unitRows[idx].ToDomain()
		if err != nil {
			return fmt.Errorf("seed unit %s: %w", unitRows[idx].ID, err)
		}
		units = append(units, u)
	}

	i.Ingredients = mocks.NewMockIngredientRepository()
	i.Sessions = mocks.NewMockSessionRepository()
	i.Categories = mocks.NewMockCategoryRepository(categories...)
	i.Units = mocks.NewMockUnitRepository(units...)
	uow := mocks.NewMockUnitOfWorkFactory()
	if publisher != nil {
		uow.WithPublisher(publisher)
	}
	i.UoW = uow
	return nil
}

func (i *Infrastructure) initDatabase(ctx context.Context, cfg *config.Config, publisher shared.EventPublisher, recorder metrics.Recorder) error {
	dbConfig := NewDatabaseConfig(cfg)
	db, err := dbConfig.Connect()
	if err != nil {
		return fmt.Errorf("connect %s: %w", dbConfig.Driver, err)
	}
	i.DB = db
	i.closers = append(i.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if err := gormdb.Ping(ctx, db); err != nil {
		return fmt.Errorf("ping %s: %w", dbConfig.Driver, err)
	}

	if err := prepareSchema(ctx, cfg, dbConfig, db); err != nil {
		return err
	}

	i.Ingredients = gormdb.NewIngredientRepository(db)
	i.Sessions = gormdb.NewSessionRepository(db)
	i.Categories = gormdb.NewCategoryRepository(db)
	i.Units = gormdb.NewUnitRepository(db)
	var opts []gormdb.FactoryOption
	if recorder != nil {
		opts = append(opts, gormdb.WithRecorder(recorder))
	}
	if publisher != nil {
		opts = append(opts, gormdb.WithEventPublisher(publisher))
	}
	i.UoW = gormdb.NewUnitOfWorkFactory(db, retry.FromAppConfig(cfg), opts...)
	return nil
}

// prepareSchema brings the schema up to date when auto_migrate is set.
// sqlite is always migrated since its file is usually created on first start.
func prepareSchema(ctx context.Context, cfg *config.Config, dbConfig *gormdb.Config, db *gorm.DB) error {
	if !cfg.Database.AutoMigrate && dbConfig.Driver != gormdb.DriverSQLite {
		return nil
	}

	if dbConfig.Driver == gormdb.DriverPostgres {
		migrationURL, err := dbConfig.MigrationURL()
		if err != nil {
			return err
		}
		if err := migrations.Up(migrationURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	} else if err := gormdb.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := gormdb.SeedCatalog(ctx, db); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func (i *Infrastructure) initLocker(ctx context.Context, cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		i.Locker = lock.NewLocalLocker()
		return nil
	}

	rdb, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	i.closers = append(i.closers, rdb.Close)
	i.Redis = rdb
	i.Locker = lock.NewRedisLocker(rdb)
	logger.Info("Using redis lock", zap.String("addr", cfg.Redis.Addr))
	return nil
}

// Close releases connections in reverse order of creation.
func (i *Infrastructure) Close() error {
	var errs []error
	for idx := len(i.closers) - 1; idx >= 0; idx-- {
		if err := i.closers[idx](); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	return errors.Join(errs...)
}
