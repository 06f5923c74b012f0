// Package models contains database model definitions.
package models

import "time"

// Setting is a named JSON document persisted by the console.
type Setting struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"unique;size:100;not null"`
	Value     []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}

// All returns every model the daemon migrates.
func All() []any {
	return []any{&Setting{}}
}
