package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
		debug bool
		want  logrus.Level
	}{
		{name: "warn", level: "warn", want: logrus.WarnLevel},
		{name: "unknown falls back", level: "loud", want: logrus.InfoLevel},
		{name: "debug wins", level: "error", debug: true, want: logrus.TraceLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.level, tt.debug).GetLevel(); got != tt.want {
				t.Errorf("New() level = %v, want %v", got, tt.want)
			}
		})
	}
}
