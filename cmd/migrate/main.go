// Command migrate manages the database schema.
//
//	migrate [-config path] up|down [N]|version|seed
//
// postgres uses the versioned SQL migrations. mysql and sqlite only support
// up and seed, which run the gorm schema sync.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pantry/cmd"
	"pantry/config"
	"pantry/infrastructure/persistence/gormdb"
	"pantry/infrastructure/persistence/migrations"
	"pantry/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if err := run(configPath, flag.Args()); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	return execute(context.Background(), cfg, args)
}

func execute(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: migrate up|down [N]|version|seed")
	}
	if cfg.Database.Driver == cmd.DriverMock {
		return fmt.Errorf("the mock driver has no schema")
	}
	dbConfig := cmd.NewDatabaseConfig(cfg)

	switch args[0] {
	case "up":
		if dbConfig.Driver == gormdb.DriverPostgres {
			url, err := dbConfig.MigrationURL()
			if err != nil {
				return err
			}
			if err := migrations.Up(url); err != nil {
				return err
			}
			return withDB(dbConfig, func(db *gorm.DB) error { return gormdb.SeedCatalog(ctx, db) })
		}
		return withDB(dbConfig, func(db *gorm.DB) error {
			if err := gormdb.AutoMigrate(db); err != nil {
				return err
			}
			return gormdb.SeedCatalog(ctx, db)
		})

	case "down":
		steps := 1
		if len(args) > 1 {
			if args[1] == "all" {
				steps = 0
			} else {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid step count %q", args[1])
				}
				steps = n
			}
		}
		url, err := dbConfig.MigrationURL()
		if err != nil {
			return err
		}
		return migrations.Down(url, steps)

	case "version":
		url, err := dbConfig.MigrationURL()
		if err != nil {
			return err
		}
		version, dirty, err := migrations.Version(url)
		if err != nil {
			return err
		}
		logger.Info("Migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil

	case "seed":
		return withDB(dbConfig, func(db *gorm.DB) error { return gormdb.SeedCatalog(ctx, db) })

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func withDB(dbConfig *gormdb.Config, fn func(db *gorm.DB) error) error {
	db, err := dbConfig.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return fn(db)
}
