package catalog

import (
	"fmt"
	"time"

	"github.com/whoyoshome/mini-productos/internal/config"
	"github.com/whoyoshome/mini-productos/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to the configured relational store and migrates the
// product table.
func OpenDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if err := db.AutoMigrate(&models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate products: %w", err)
	}

	log.Info("Database ready", zap.String("driver", dialector.Name()))
	return db, nil
}

// gormWriter sends gorm's log lines to zap.
type gormWriter struct {
	log *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

func newGormLogger(log *zap.Logger) logger.Interface {
	return logger.New(gormWriter{log: log.Named("gorm").Sugar()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

var seedProducts = []models.Product{
	{Name: "Keyboard", ImageURL: "https://loremflickr.com/1200/600/mechanical+keyboard?lock=11"},
	{Name: "Mouse", ImageURL: "https://loremflickr.com/1200/600/computer+mouse?lock=22"},
	{Name: "Monitor", ImageURL: "https://loremflickr.com/1200/600/monitor+screen?lock=33"},
	{Name: "Headphones", ImageURL: "https://loremflickr.com/1200/600/headphones?lock=44"},
	{Name: "Ergonomic Chair", ImageURL: "https://images.unsplash.com/photo-1580480055273-228ff5388ef8?w=1200&h=600&fit=crop"},
	{Name: "Smart Home Hub", ImageURL: "https://images.unsplash.com/photo-1519558260268-cde7e03a0152?w=1200&h=600&fit=crop"},
}

// Seed inserts the demo catalog when the product table is empty. It returns
// the number of inserted rows.
func Seed(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	rows := make([]models.Product, len(seedProducts))
	copy(rows, seedProducts)
	if err := db.Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to seed products: %w", err)
	}
	return len(rows), nil
}
