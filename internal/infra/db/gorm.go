package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/IgesAI/AMautomation/internal/config"
	"github.com/IgesAI/AMautomation/internal/domain/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	gormLogger := logger.New(
		&logAdapter{log: log},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database connection")
	}
	if cfg.Driver == config.DriverSQLite {
		// sqliteは書き込みが1本
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return gdb, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		// DATABASE_URL があれば最優先で使う
		if cfg.URL != "" {
			return postgres.Open(cfg.URL), nil
		}
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		// RowsAffected は「一致した行数」で数える（更新の 0件 = NotFound 判定に使う）
		if cfg.URL != "" {
			return mysql.Open(cfg.URL), nil
		}
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
		)
		return mysql.Open(dsn), nil
	case config.DriverSQLite:
		path := cfg.URL
		if path == "" {
			path = "inventory.db"
		}
		if !strings.Contains(path, "?") {
			path += "?_foreign_keys=on&_busy_timeout=5000"
		}
		return sqlite.Open(path), nil
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// Migrate はテーブルを作成/更新する
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.Category{},
		&model.Location{},
		&model.Supplier{},
		&model.Item{},
		&model.InventoryTransaction{},
		&model.NotificationRule{},
		&model.NotificationLog{},
	)
}

// gormのログをlogrusに流す
type logAdapter struct {
	log *logrus.Logger
}

func (a *logAdapter) Printf(format string, args ...interface{}) {
	if a.log == nil {
		return
	}
	a.log.WithField("component", "gorm").Infof(format, args...)
}
