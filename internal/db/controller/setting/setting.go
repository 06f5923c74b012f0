// Package setting stores named JSON documents in the settings table.
package setting

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoADConsole/GoADConsole/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to read or write a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func check(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	return nil
}

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	var setting models.Setting

	if err := db.Where(nameQueryPattern, name).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, err
	}

	return &setting, nil
}

// GetAll retrieves all settings ordered by name.
func GetAll(db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	settings := make([]models.Setting, 0)
	if err := db.Order("name").Find(&settings).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

// Set creates or updates a setting by name.
func Set(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	var setting models.Setting

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where(nameQueryPattern, name).First(&setting)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			setting = models.Setting{Name: name, Value: value}
			return tx.Create(&setting).Error
		case result.Error != nil:
			return result.Error
		}

		setting.Value = value

		return tx.Save(&setting).Error
	})
	if err != nil {
		return nil, err
	}

	return &setting, nil
}

// Delete deletes a setting by name.
func Delete(db *gorm.DB, name string) error {
	if err := check(db, name); err != nil {
		return err
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// Load decodes the JSON document stored under name into out.
func Load(db *gorm.DB, name string, out any) error {
	s, err := Get(db, name)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(s.Value, out); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}

	return nil
}

// Save stores in as JSON document under name.
func Save(db *gorm.DB, name string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}

	_, err = Set(db, name, data)

	return err
}
