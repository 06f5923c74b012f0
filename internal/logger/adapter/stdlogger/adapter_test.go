package stdlogger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoADConsole/GoADConsole/internal/logger/adapter/stdlogger"
)

func capture(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(level)

	t.Cleanup(func() { log.Logger = prev })

	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}

		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}

	return out
}

func TestLevels(t *testing.T) {
	buf := capture(t, zerolog.InfoLevel)

	l := stdlogger.New("test")
	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warningf("warn %d", 3)
	l.Errorf("error %d", 4)

	got := lines(t, buf)
	require.Len(t, got, 3, "debug is below the level")

	tests := []struct{ level, message string }{
		{"info", "info 2"},
		{"warn", "warn 3"},
		{"error", "error 4"},
	}

	for i, tt := range tests {
		assert.Equal(t, tt.level, got[i]["level"])
		assert.Equal(t, tt.message, got[i]["message"])
		assert.Equal(t, "test", got[i]["component"])
	}
}

func TestPrintfJoinsLines(t *testing.T) {
	buf := capture(t, zerolog.DebugLevel)

	stdlogger.New("gorm").Printf("%s\n[%.3fms] %s", "db.go:42 SLOW SQL", 1.5, "SELECT 1")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "warn", got[0]["level"])
	assert.Equal(t, "db.go:42 SLOW SQL [1.500ms] SELECT 1", got[0]["message"])
	assert.Equal(t, "gorm", got[0]["component"])
}

func TestWithoutComponent(t *testing.T) {
	buf := capture(t, zerolog.InfoLevel)

	stdlogger.New("").Infof("plain")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.NotContains(t, got[0], "component")
}
