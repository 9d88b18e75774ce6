package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"off", LevelOff},
		{"ERROR", LevelError},
		{"Warn", LevelWarn},
		{"info", LevelInfo},
		{"DEBUG", LevelDebug},
		{"trace", LevelTrace},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l, err := ParseLevel(tt.input)
			assert.NoError(t, err)
			check.Equal(t, tt.want, l)
		})
	}

	_, err := ParseLevel("verbose")
	check.Error(t, err)
}

func TestLevelString(t *testing.T) {
	check.Equal(t, "INFO", LevelInfo.String())
	check.Equal(t, "TRACE", LevelTrace.String())
	check.Equal(t, "Level(42)", Level(42).String())
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LevelInfo, &buf)

	l.Debugf("hidden %d", 1)
	l.Trace("hidden")
	l.Infof("shown %d", 2)
	l.Warn("warned")
	l.Errorf("failed %s", "x")

	out := buf.String()
	check.False(t, strings.Contains(out, "hidden"))
	check.True(t, strings.Contains(out, "INFO :"))
	check.True(t, strings.Contains(out, "shown 2"))
	check.True(t, strings.Contains(out, "WARN :"))
	check.True(t, strings.Contains(out, "ERROR:"))
	check.True(t, strings.Contains(out, "logger_test.go"))
}

func TestNewLoggerOff(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LevelOff, &buf)
	l.Error("nothing")
	l.Infof("nothing")
	check.Equal(t, "", buf.String())
}
