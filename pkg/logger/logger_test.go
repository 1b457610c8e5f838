package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgbulkdl/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := newWithConsole(tt.cfg, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && l == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestFileOutputIsRotatedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tgbulkdl.log")
	cfg := &config.LoggingConfig{Level: "info", File: path, MaxSize: 1, MaxBackups: 1}

	l, err := newWithConsole(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	l.WithField("job_id", int64(42)).Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written to file"`)
	assert.Contains(t, string(data), `"job_id":42`)
	assert.Contains(t, string(data), `"app":"tgbulkdl"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	cases := map[string]func(string){
		"debug": l.Debug,
		"info":  l.Info,
		"warn":  l.Warn,
		"error": l.Error,
	}
	for level, fn := range cases {
		buf.Reset()
		fn(level + " message")
		assert.Contains(t, buf.String(), level+" message")
		assert.Contains(t, buf.String(), `"level":"`+level+`"`)
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithField("job_id", int64(7)).
		WithField("media_type", "pictures").
		WithFields(map[string]interface{}{"offset": 600, "resumed": true}).
		Info("chained fields")

	output := buf.String()
	assert.Contains(t, output, `"job_id":7`)
	assert.Contains(t, output, `"media_type":"pictures"`)
	assert.Contains(t, output, `"offset":600`)
	assert.Contains(t, output, `"resumed":true`)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	_ = l.WithField("child", "only")
	l.Info("parent line")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("gateway unreachable")).Error("error occurred")
	assert.Contains(t, buf.String(), "gateway unreachable")
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.InfoWithFields("typed", map[string]interface{}{
		"duration": 5 * time.Second,
		"when":     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"names":    []string{"a", "b"},
		"ids":      []int{1, 2},
		"cause":    errors.New("boom"),
		"custom":   struct{ Name string }{Name: "x"},
	})

	output := buf.String()
	assert.Contains(t, output, `"names":["a","b"]`)
	assert.Contains(t, output, `"ids":[1,2]`)
	assert.Contains(t, output, `"cause":"boom"`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogDownload(tl, "1", "pictures", 10, nil)
	LogDownload(tl, "1", "pictures", 11, errors.New("timeout"))
	LogGatewayRequest(tl, "GET", "/v1/resolve", 503, 12.5)
	LogRateLimit(tl, "/v1/peers/1/search", 30)

	assert.True(t, tl.HasMessage("Download completed"))
	assert.True(t, tl.HasError())

	failed := tl.GetMessagesByLevel("ERROR")
	require.Len(t, failed, 1)
	assert.Equal(t, 503, failed[0].Fields["status_code"])

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, 11, warns[0].Fields["message_id"])
	assert.EqualError(t, warns[0].Error, "timeout")
	assert.Equal(t, 30, warns[1].Fields["retry_after"])
}

func TestTestLoggerSharesRecorder(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "engine")
	child.Info("from child")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "engine", msgs[0].Fields["component"])

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "0.0%", Percent(5, 0))
	assert.Equal(t, "50.0%", Percent(5, 10))
	assert.True(t, strings.HasSuffix(Percent(1, 3), "%"))
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())

	WithField("key", "value").Debug("with field")
	WithError(errors.New("test")).Debug("with error")
}
