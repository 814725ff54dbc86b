package shared

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSplitTags(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "basic", input: "sunset,beach", want: []string{"sunset", "beach"}},
		{name: "extra whitespace", input: "  sunset ,  beach  ", want: []string{"sunset", "beach"}},
		{name: "empty parts dropped", input: "sunset,,  ,beach,", want: []string{"sunset", "beach"}},
		{name: "empty string", input: "", want: nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitTags(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("SetLogLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		SetLogLevel(logger, "warn")
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}

		SetLogLevel(logger, "nonsense")
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("unknown level should not change logger, got %v", logger.GetLevel())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "shutter.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("hello")

		content := mustRead(t, path)
		if !strings.Contains(content, "hello") {
			t.Errorf("expected log file to contain message, got %q", content)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestBrowserCommand(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		t.Run(goos, func(t *testing.T) {
			name, args, err := browserCommand(goos, "https://example.com/a.jpg")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name == "" || args[len(args)-1] != "https://example.com/a.jpg" {
				t.Errorf("unexpected command %s %v", name, args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		if _, _, err := browserCommand("plan9", "x"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
