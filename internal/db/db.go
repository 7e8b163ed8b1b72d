package db

import (
	"fmt"
	"runtime"
	"time"

	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/USA-RedDragon/contract-relay/internal/db/models"
	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func MakeDB(config *config.Config) (db *gorm.DB, err error) {
	dialector, err := dialectorFor(config.Persistence.Database)
	if err != nil {
		return nil, err
	}

	db, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return db, fmt.Errorf("failed to open database: %w", err)
	}
	if config.HTTP.Tracing.Enabled {
		if err = db.Use(otelgorm.NewPlugin()); err != nil {
			return db, fmt.Errorf("failed to trace database: %w", err)
		}
	}

	err = db.AutoMigrate(&models.Transaction{})
	if err != nil {
		return db, fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return db, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxIdleConns(runtime.GOMAXPROCS(0))
	const connsPerCPU = 10
	sqlDB.SetMaxOpenConns(runtime.GOMAXPROCS(0) * connsPerCPU)
	const maxIdleTime = 10 * time.Minute
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	return
}

func dialectorFor(database config.Database) (gorm.Dialector, error) {
	switch database.Driver {
	case config.DatabaseDriverSQLite:
		return sqlite.Open(database.Database + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"), nil
	case config.DatabaseDriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			database.Username,
			database.Password,
			database.Host,
			database.Port,
			database.Database)
		if database.ExtraParameters != "" {
			dsn += "&" + database.ExtraParameters
		}
		return mysql.Open(dsn), nil
	case config.DatabaseDriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
			database.Host,
			database.Username,
			database.Password,
			database.Database,
			database.Port)
		if database.ExtraParameters != "" {
			dsn += " " + database.ExtraParameters
		}
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", database.Driver)
	}
}
