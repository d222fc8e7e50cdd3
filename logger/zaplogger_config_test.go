// zaplogger_config_test.go
package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     LogLevel
		encoding  string
		separator string
	}{
		{"json debug", LogLevelDebug, LogOutputJSON, ""},
		{"console info", LogLevelInfo, LogOutputConsole, " | "},
		{"unknown encoding falls back to json", LogLevelWarn, "yaml", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log Logger
			require.NotPanics(t, func() {
				log = BuildLogger(tt.level, tt.encoding, tt.separator)
			})
			require.NotNil(t, log)
			assert.Equal(t, tt.level, log.GetLogLevel())
		})
	}
}
