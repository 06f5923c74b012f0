package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoADConsole/GoADConsole/internal/config"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: config.EngineMySQL, User: "console", Password: "secret",
				Host: "db", Port: 3306, Name: "adconsole", Extras: "parseTime=true",
			},
			want: "console:secret@tcp(db:3306)/adconsole?parseTime=true",
		},
		{
			name: "postgres",
			db: config.DB{
				GormEngine: config.EnginePostgres, User: "console", Password: "secret",
				Host: "db", Port: 5432, Name: "adconsole", Extras: "sslmode=disable",
			},
			want: "host=db port=5432 user=console password=secret dbname=adconsole sslmode=disable",
		},
		{
			name: "sqlite file",
			db:   config.DB{GormEngine: config.EngineSQLite, Name: "./data/console.db"},
			want: "./data/console.db",
		},
		{
			name: "sqlite with pragma",
			db:   config.DB{GormEngine: config.EngineSQLite, Name: "./data/console.db", Extras: "?_pragma=busy_timeout(5000)"},
			want: "./data/console.db?_pragma=busy_timeout(5000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Create(&config.Config{DB: tt.db}))
		})
	}
}

func TestURI(t *testing.T) {
	cfg := &config.Config{DB: config.DB{
		GormEngine: config.EnginePostgres, User: "u", Password: "p", Host: "h", Port: 5432, Name: "n",
	}}

	assert.Equal(t, "postgres://u:p@h:5432/n", URI(cfg))
}
