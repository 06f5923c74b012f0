package setting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoADConsole/GoADConsole/internal/db/dbtest"
	"github.com/GoADConsole/GoADConsole/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	return dbtest.Open(t)
}

// seedSettings inserts test data into the database.
func seedSettings(t *testing.T, db *gorm.DB, settings []models.Setting) {
	t.Helper()

	for _, setting := range settings {
		err := db.Create(&setting).Error
		require.NoError(t, err, "failed to seed test data")
	}
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		seedData      []models.Setting
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			settingName:   "test",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "setting not found",
			dbParam:       db,
			settingName:   "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:        "successful get",
			dbParam:     db,
			settingName: "api_configuration",
			seedData: []models.Setting{
				{Name: "api_configuration", Value: []byte(`{"baseUrl":"http://ad:5021"}`)},
			},
			expectedValue: []byte(`{"baseUrl":"http://ad:5021"}`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.dbParam != nil {
				tc.dbParam.Exec("DELETE FROM settings")
			}

			if tc.seedData != nil {
				seedSettings(t, tc.dbParam, tc.seedData)
			}

			setting, err := Get(tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, setting)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.settingName, setting.Name)
			assert.Equal(t, tc.expectedValue, setting.Value)
		})
	}
}

func TestGetAll(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetAll(nil)
	require.ErrorIs(t, err, ErrDBNil)

	settings, err := GetAll(db)
	require.NoError(t, err)
	assert.Empty(t, settings)

	seedSettings(t, db, []models.Setting{
		{Name: "b", Value: []byte("2")},
		{Name: "a", Value: []byte("1")},
	})

	settings, err = GetAll(db)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "a", settings[0].Name)
}

func TestSet(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(nil, "x", nil)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Set(db, "", nil)
	require.ErrorIs(t, err, ErrSettingNameEmpty)

	created, err := Set(db, "theme", []byte("dark"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := Set(db, "theme", []byte("light"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	stored, err := Get(db, "theme")
	require.NoError(t, err)
	assert.Equal(t, []byte("light"), stored.Value)

	var count int64
	db.Model(&models.Setting{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	require.ErrorIs(t, Delete(db, "missing"), ErrSettingNotFound)
	require.ErrorIs(t, Delete(db, ""), ErrSettingNameEmpty)

	_, err := Set(db, "theme", []byte("dark"))
	require.NoError(t, err)

	require.NoError(t, Delete(db, "theme"))

	_, err = Get(db, "theme")
	require.ErrorIs(t, err, ErrSettingNotFound)
}

func TestLoadSave(t *testing.T) {
	db := setupTestDB(t)

	type document struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}

	var out document
	require.ErrorIs(t, Load(db, "doc", &out), ErrSettingNotFound)

	require.NoError(t, Save(db, "doc", document{Host: "ad", Port: 5021}))
	require.NoError(t, Load(db, "doc", &out))
	assert.Equal(t, document{Host: "ad", Port: 5021}, out)

	_, err := Set(db, "broken", []byte("{"))
	require.NoError(t, err)
	require.Error(t, Load(db, "broken", &out))
}
