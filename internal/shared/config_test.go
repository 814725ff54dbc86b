package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./shutter.db" {
			t.Errorf("expected database path ./shutter.db, got %s", config.Database.Path)
		}
		if config.Browse.PageSize != 30 {
			t.Errorf("expected page size 30, got %d", config.Browse.PageSize)
		}
		if config.Browse.SuggestionLimit != 6 {
			t.Errorf("expected suggestion limit 6, got %d", config.Browse.SuggestionLimit)
		}
		if config.Browse.FillAttempts != 3 {
			t.Errorf("expected fill attempts 3, got %d", config.Browse.FillAttempts)
		}
		if config.Upload.MaxCarousel != 9 {
			t.Errorf("expected max carousel 9, got %d", config.Upload.MaxCarousel)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://photos.example.com/api"
timeout_seconds = 5

[browse]
page_size = 12
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://photos.example.com/api" {
			t.Errorf("expected base url to be loaded, got %s", config.API.BaseURL)
		}
		if config.Browse.PageSize != 12 {
			t.Errorf("expected page size 12, got %d", config.Browse.PageSize)
		}
		if config.Browse.SuggestionLimit != 6 {
			t.Errorf("expected default suggestion limit to survive, got %d", config.Browse.SuggestionLimit)
		}
		if config.Timeout() != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", config.Timeout())
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		baseURL string
		origin  string
		want    string
	}{
		{name: "explicit base url wins", baseURL: "https://a.example.com/api/", origin: "https://b.example.com", want: "https://a.example.com/api"},
		{name: "origin gets api suffix", origin: "https://b.example.com/", want: "https://b.example.com/api"},
		{name: "hardcoded default", want: DefaultAPIBase},
		{name: "env overrides config", env: "http://env.example.com/api", baseURL: "https://a.example.com/api", want: "http://env.example.com/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(APIBaseEnv, tt.env)

			config := DefaultConfig()
			config.API.BaseURL = tt.baseURL
			config.API.Origin = tt.origin

			if got := config.ResolveBaseURL(); got != tt.want {
				t.Errorf("ResolveBaseURL() = %v, want %v", got, tt.want)
			}
		})
	}
}
