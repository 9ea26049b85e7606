package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevels(t *testing.T) {
	if got := New("test").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("default level = %s, want info", got)
	}

	t.Setenv("COMPANION_LOG_LEVEL", "debug")
	if got := New("test").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("level = %s, want debug", got)
	}

	t.Setenv("COMPANION_LOG_LEVEL", "shouty")
	if got := New("test").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("unparseable level = %s, want info fallback", got)
	}
}
