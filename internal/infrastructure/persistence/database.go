package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sultan/backend/internal/infrastructure/config"
	"github.com/sultan/backend/internal/infrastructure/logger"
	"github.com/sultan/backend/internal/infrastructure/persistence/models"
)

const connectTimeout = 5 * time.Second

// Database is an open GORM handle together with the pool beneath it
type Database struct {
	DB     *gorm.DB
	pool   *sql.DB
	driver string
}

// NewDatabase opens cfg with GORM logging silenced. Tests and CLIs use it.
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return open(cfg, gormlogger.Default.LogMode(gormlogger.Silent))
}

// NewDatabaseWithLogger opens cfg and sends GORM output to zl at level
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, zl *zap.Logger, level gormlogger.LogLevel) (*Database, error) {
	return open(cfg, logger.NewGormLogger(zl, level))
}

// Dialector picks the GORM driver; an empty driver means postgres
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func open(cfg *config.DatabaseConfig, gl gormlogger.Interface) (*Database, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	driver := dialector.Name()

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		PrepareStmt:            driver == "postgres",
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s pool: %w", driver, err)
	}
	configurePool(pool, cfg, driver)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Database{DB: db, pool: pool, driver: driver}, nil
}

func configurePool(pool *sql.DB, cfg *config.DatabaseConfig, driver string) {
	if driver == "sqlite" {
		// a single writer; every ":memory:" connection would be its own database
		pool.SetMaxOpenConns(1)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// Driver is the dialector name, "postgres" or "sqlite"
func (d *Database) Driver() string { return d.driver }

// Pool exposes the sql.DB for pool metrics
func (d *Database) Pool() *sql.DB { return d.pool }

func (d *Database) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.pool.Close()
}

// AutoMigrate creates tables from the models. Postgres deployments use the
// versioned SQL migrations instead; this serves sqlite and tests.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.CustomerModel{},
		&models.BranchModel{},
		&models.PermissionModel{},
	)
}
