// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/GoADConsole/GoADConsole/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(cfg *config.Config) string {
	db := cfg.DB

	switch db.GormEngine {
	case config.EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		)
	case config.EnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
		)

		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out
	default:
		if db.Extras == "" {
			return db.Name
		}

		return db.Name + "?" + strings.TrimPrefix(db.Extras, "?")
	}
}

// URI builds a connection URI understood by the fiber session storages.
func URI(cfg *config.Config) string {
	db := cfg.DB

	switch db.GormEngine {
	case config.EnginePostgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", db.User, db.Password, db.Host, db.Port, db.Name)
	default:
		return Create(cfg)
	}
}
