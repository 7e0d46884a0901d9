package ulogger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/ordishs/gocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level           string
		expectedOutputs map[string]bool
	}{
		{
			level: "DEBUG",
			expectedOutputs: map[string]bool{
				"DEBUG": true,
				"INFO":  true,
				"WARN":  true,
				"ERROR": true,
			},
		},
		{
			level: "INFO",
			expectedOutputs: map[string]bool{
				"DEBUG": false,
				"INFO":  true,
				"WARN":  true,
				"ERROR": true,
			},
		},
		{
			level: "WARN",
			expectedOutputs: map[string]bool{
				"DEBUG": false,
				"INFO":  false,
				"WARN":  true,
				"ERROR": true,
			},
		},
		{
			level: "ERROR",
			expectedOutputs: map[string]bool{
				"DEBUG": false,
				"INFO":  false,
				"WARN":  false,
				"ERROR": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer

			logger := ulogger.New("blkmaker", ulogger.WithLevel(tt.level), ulogger.WithWriter(&buf))

			logger.Debugf("DEBUG message")
			logger.Infof("INFO message")
			logger.Warnf("WARN message")
			logger.Errorf("ERROR message")

			output := buf.String()

			for level, expected := range tt.expectedOutputs {
				assert.Equal(t, expected, strings.Contains(output, level+" message"), "level %s", level)
			}
		})
	}
}

func TestLogLevelMapping(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.New("blkmaker", ulogger.WithLevel("WARN"), ulogger.WithWriter(&buf))
	assert.Equal(t, int(gocore.WARN), logger.LogLevel())

	logger.SetLogLevel("debug")
	assert.Equal(t, int(gocore.DEBUG), logger.LogLevel())

	logger.SetLogLevel("nonsense")
	assert.Equal(t, int(gocore.INFO), logger.LogLevel())
}

func TestChildLoggerInheritsWriterAndLevel(t *testing.T) {
	var buf bytes.Buffer

	parent := ulogger.New("parent", ulogger.WithLevel("ERROR"), ulogger.WithWriter(&buf))
	child := parent.New("child")

	child.Infof("suppressed")
	child.Errorf("child failure")

	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), "child failure")
	assert.Contains(t, buf.String(), "child")

	dup := parent.Duplicate(ulogger.WithLevel("DEBUG"))
	dup.Debugf("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestTestLoggerType(t *testing.T) {
	logger := ulogger.New("blkmaker", ulogger.WithLoggerType("test"))
	require.IsType(t, ulogger.TestLogger{}, logger)

	// must not panic
	logger.Infof("ignored %d", 1)
	logger.New("other").Errorf("ignored")
}

func TestVerboseTestLogger(t *testing.T) {
	logger := ulogger.NewVerboseTestLogger(t)
	logger.Infof("verbose %s", "line")
	logger.New("child").Debugf("child line")
	assert.Equal(t, 0, logger.LogLevel())
}

func TestPrettyLogs(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		logger := ulogger.New("svc", ulogger.WithWriter(&buf), ulogger.WithPrettyLogs(false))
		logger.Infof("structured line")

		output := buf.String()
		assert.True(t, strings.HasPrefix(output, "{"), output)
		assert.Contains(t, output, `"service":"svc"`)
		assert.Contains(t, output, `"message":"structured line"`)

		// children keep the json format
		buf.Reset()
		logger.New("child").Warnf("child line")
		assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer

		logger := ulogger.New("svc", ulogger.WithWriter(&buf), ulogger.WithPrettyLogs(true))
		logger.Infof("console line")

		output := buf.String()
		assert.False(t, strings.HasPrefix(output, "{"), output)
		assert.Contains(t, output, "console line")
	})
}
