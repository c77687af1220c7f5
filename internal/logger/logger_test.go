package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "custom json config", config: &Config{Level: "debug", Format: "json"}},
		{name: "console config", config: &Config{Level: "info", Format: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.config))
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.Info("test message")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test message", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_ForTable(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.ForTable("employees").With().Int("columns", 6).Logger().Info("introspected")

	entry := decode(t, buf)
	assert.Equal(t, "employees", entry["table"])
	assert.Equal(t, float64(6), entry["columns"])
	assert.Equal(t, "introspected", entry["message"])
}

func TestLogger_ErrorWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "error", Format: "json", Output: buf})

	logger.ErrorWith("failed to connect", errors.New("access denied"), map[string]any{
		"database": "employees",
	})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "access denied", entry["error"])
	assert.Equal(t, "employees", entry["database"])
}

func TestLogger_Statement(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "debug", Format: "json", Output: buf})

	logger.Statement("DELETE FROM `employees` WHERE `emp_no` = ?", []string{":emp_no"}, nil)

	entry := decode(t, buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "DELETE FROM `employees` WHERE `emp_no` = ?", entry["sql"])
	assert.Equal(t, []any{":emp_no"}, entry["binds"])

	buf.Reset()
	logger.Statement("DELETE FROM `employees` WHERE `emp_no` = ?", nil, errors.New("boom"))
	entry = decode(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_Request(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.Request("GET", "/employees/10001", 200, 3*time.Millisecond)

	entry := decode(t, buf)
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/employees/10001", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
}

func TestLogger_RequestServerErrorIsError(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.Request("POST", "/employees", 500, time.Millisecond)

	assert.Equal(t, "error", decode(t, buf)["level"])
}

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, level("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, level(" warn "))
	assert.Equal(t, zerolog.InfoLevel, level(""))
	assert.Equal(t, zerolog.InfoLevel, level("chatty"))
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{"debug level logs debug", "debug", func(l *Logger) { l.Debug("debug message") }, true},
		{"info level skips debug", "info", func(l *Logger) { l.Debug("debug message") }, false},
		{"error level logs error", "error", func(l *Logger) { l.Error("error message") }, true},
		{"error level skips info", "error", func(l *Logger) { l.Info("info message") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(&Config{Level: tt.level, Format: "json", Output: buf})

			tt.logFunc(logger)

			if tt.expected {
				assert.NotEmpty(t, buf.String(), "expected log output")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func TestLogger_LevelsAreIndependent(t *testing.T) {
	quiet := &bytes.Buffer{}
	loud := &bytes.Buffer{}
	q := New(&Config{Level: "error", Format: "json", Output: quiet})
	l := New(&Config{Level: "debug", Format: "json", Output: loud})

	q.Debug("hidden")
	l.Debug("shown")

	assert.Empty(t, quiet.String())
	assert.NotEmpty(t, loud.String())
}

func TestLogger_TimeFormatIsPerLogger(t *testing.T) {
	before := zerolog.TimeFieldFormat
	rfc := &bytes.Buffer{}
	unix := &bytes.Buffer{}
	r := New(&Config{Level: "info", Format: "json", TimeFormat: "rfc3339", Output: rfc})
	u := New(&Config{Level: "info", Format: "json", TimeFormat: "unixms", Output: unix})

	r.Info("a")
	u.Info("b")

	ts, ok := decode(t, rfc)["time"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)

	ms, ok := decode(t, unix)["time"].(float64)
	require.True(t, ok)
	assert.Greater(t, ms, float64(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()))

	assert.Equal(t, before, zerolog.TimeFieldFormat)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("nothing")
		OrNop(nil).Statement("SELECT 1", nil, nil)
	})
}

func BenchmarkLogger_Statement(b *testing.B) {
	logger := New(&Config{Level: "debug", Format: "json", Output: io.Discard})
	binds := []string{":emp_no", ":from_date"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Statement("SELECT * FROM `salaries` WHERE `emp_no` = ? AND `from_date` = ?", binds, nil)
	}
}
