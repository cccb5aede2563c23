package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/catalog/seed"
	"github.com/vin-devs/learnsite/config"
	"github.com/vin-devs/learnsite/logger"
	"github.com/vin-devs/learnsite/messaging"
	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/storage"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "learnhub",
		Short:         "LearnHub storefront for courses and books",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Env)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(log)
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.AddCommand(
		a.serveCmd(),
		a.seedCmd(),
		a.searchCmd(),
		a.exportCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// openDatabase connects to Postgres or SQLite and migrates every table.
func (a *app) openDatabase() (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch a.cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(a.cfg.SQLitePath)
	default:
		dialector = postgres.Open(a.cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", a.cfg.DBDriver, err)
	}
	a.log.Info("✅ Connected to database", zap.String("driver", a.cfg.DBDriver))

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("AutoMigrate failed: %w", err)
	}
	return db, nil
}

// deviceDataTTL bounds how long a device's redis entries outlive its last write.
const deviceDataTTL = 30 * 24 * time.Hour

// openStorage picks the device-local storage backend.
func (a *app) openStorage(ctx context.Context, db *gorm.DB) (storage.Local, func(), error) {
	switch a.cfg.StorageDriver {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", a.cfg.RedisAddr, err)
		}
		a.log.Info("✅ Device storage on redis", zap.String("addr", a.cfg.RedisAddr))
		return storage.NewRedis(client, deviceDataTTL), func() { client.Close() }, nil
	case "memory":
		a.log.Warn("⚠️ Device storage is in memory and will not survive a restart")
		return storage.NewMemory(), func() {}, nil
	default:
		store, err := storage.NewDB(db)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// openPublisher returns a Kafka publisher when brokers are configured and a
// logging publisher otherwise.
func (a *app) openPublisher() (messaging.Publisher, func()) {
	if len(a.cfg.KafkaBrokers) == 0 {
		return messaging.NewLogPublisher(a.log), func() {}
	}
	k := messaging.NewKafka(a.cfg.KafkaBrokers)
	a.log.Info("✅ Publishing events to kafka", zap.Strings("brokers", a.cfg.KafkaBrokers))
	return k, func() {
		if err := k.Close(); err != nil {
			a.log.Warn("⚠️ kafka writer close failed", zap.Error(err))
		}
	}
}

// seedCatalog loads the demo dataset into an empty catalog. With force set
// the dataset is upserted even when products already exist.
func (a *app) seedCatalog(ctx context.Context, db *gorm.DB, authSvc *auth.Service, force bool) error {
	ds, err := seed.Load()
	if err != nil {
		return err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 || force {
		if err := catalog.NewRepository(db).Import(ctx, ds.Products(), ds.Categories); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		a.log.Info("🌱 Catalog seeded", zap.Int("products", len(ds.Products())))
	}

	if err := authSvc.SeedDemoUsers(ctx, ds.Users); err != nil {
		return fmt.Errorf("failed to seed demo users: %w", err)
	}
	a.log.Info("🌱 Demo users ready", zap.Int("users", len(ds.Users)))
	return nil
}
