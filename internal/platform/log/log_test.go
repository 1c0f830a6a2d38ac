package log

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/luxeladies/community-api/internal/platform/config"
)

func TestNew_LevelAndFormat(t *testing.T) {
	t.Parallel()

	l, err := New(config.LogConfig{LogLevel: "debug", LogFormat: "text", LogOutput: "stdout"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level=%v, want debug", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("formatter=%T, want *logrus.TextFormatter", l.Formatter)
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(config.LogConfig{LogLevel: "loud"}); err == nil {
		t.Fatalf("New(loud) err=nil, want error")
	}
}

func TestNew_FileOutputCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l, err := New(config.LogConfig{
		LogLevel:    "info",
		LogOutput:   "file",
		LogFilePath: filepath.Join(dir, "nested", "api.log"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.WithFields(Fields{"k": "v"}).Info("hello")
}
