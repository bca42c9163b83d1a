package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/uxinsight/backend/internal/infrastructure/config"
	"github.com/uxinsight/backend/internal/infrastructure/persistence/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database is the gorm handle shared by the integration repositories
type Database struct {
	DB     *gorm.DB
	Driver string
	sqlDB  *sql.DB
}

type openOptions struct {
	gormLogger gormlogger.Interface
	registerer prometheus.Registerer
}

// Option customises Open
type Option func(*openOptions)

// WithGormLogger routes gorm's query log through l
func WithGormLogger(l gormlogger.Interface) Option {
	return func(o *openOptions) { o.gormLogger = l }
}

// WithPoolMetrics exports database/sql pool statistics to reg
func WithPoolMetrics(reg prometheus.Registerer) Option {
	return func(o *openOptions) { o.registerer = reg }
}

// Open connects to the configured driver and verifies the connection with ctx.
// An empty driver means postgres.
func Open(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{gormLogger: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            driver == DriverPostgres,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}

	configurePool(sqlDB, driver, cfg)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	if o.registerer != nil {
		name := cfg.DBName
		if driver == DriverSQLite {
			name = cfg.Path
		}
		if err := o.registerer.Register(collectors.NewDBStatsCollector(sqlDB, name)); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}

	return &Database{DB: gdb, Driver: driver, sqlDB: sqlDB}, nil
}

func configurePool(sqlDB *sql.DB, driver string, cfg *config.DatabaseConfig) {
	if driver == DriverSQLite {
		// one writer, otherwise concurrent syncs hit SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		return
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// AutoMigrate creates the integration tables from the gorm models.
// Postgres schemas are owned by the SQL migrations instead.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(models.AllModels()...)
}

func (d *Database) Ping(ctx context.Context) error {
	return d.sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.sqlDB.Close()
}
