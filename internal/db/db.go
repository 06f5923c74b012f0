// Package db opens the console database for the configured gorm engine.
package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoADConsole/GoADConsole/internal/config"
	"github.com/GoADConsole/GoADConsole/internal/db/dsn"
	"github.com/GoADConsole/GoADConsole/internal/db/models"
	"github.com/GoADConsole/GoADConsole/internal/logger/adapter/stdlogger"
)

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return mysql.Open(dsn.Create(cfg)), nil
	case config.EnginePostgres:
		return postgres.Open(dsn.Create(cfg)), nil
	case config.EngineSQLite, "":
		return sqlite.Open(dsn.Create(cfg)), nil
	default:
		return nil, config.ErrUnknownGormEngine
	}
}

// Open connects to the database and migrates the console models.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: Logger()})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Logger routes gorm warnings, errors and slow statements to zerolog.
func Logger() gormlogger.Interface {
	return gormlogger.New(stdlogger.New("gorm"), gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
