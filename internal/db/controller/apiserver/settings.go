// Package apiserver persists the AD management API location.
package apiserver

import (
	"gorm.io/gorm"

	"github.com/GoADConsole/GoADConsole/internal/db/controller/setting"
)

const (
	// SettingKey is the fixed key of the api configuration record.
	SettingKey = "api_configuration"
)

// Settings is the stored api configuration. BaseURL is derived from Host and Port
// when the record was written and is what every endpoint URL is computed from.
type Settings struct {
	Host    string `form:"host"     json:"host"    validate:"required,hostname_rfc1123|ip|url"`
	Port    string `form:"port"     json:"port"    validate:"required,numeric"`
	BaseURL string `form:"-"        json:"baseUrl"`
}

// Load loads the api settings from the database.
func (s *Settings) Load(db *gorm.DB) error {
	return setting.Load(db, SettingKey, s)
}

// Save saves the api settings to the database.
func (s *Settings) Save(db *gorm.DB) error {
	return setting.Save(db, SettingKey, s)
}
