package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config gets defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "negative threads",
			config:  Config{OCR: OCRConfig{Threads: -1}},
			wantErr: true,
		},
		{
			name: "crop offset out of range",
			config: Config{Extractor: ExtractorConfig{Profiles: map[string]CropProfile{
				"bad": {Top: 1.5, Bottom: 0, Left: 0, Right: 1},
			}}},
			wantErr: true,
		},
		{
			name: "inverted band",
			config: Config{Extractor: ExtractorConfig{Profiles: map[string]CropProfile{
				"bad": {Top: 0.1, Bottom: 0.2, Left: 0, Right: 1},
			}}},
			wantErr: true,
		},
		{
			name:    "gemini enabled without key",
			config:  Config{Gemini: GeminiConfig{Enabled: true}},
			wantErr: true,
		},
		{
			name:    "gemini enabled with key",
			config:  Config{Gemini: GeminiConfig{Enabled: true, APIKeys: []string{"k"}}},
			wantErr: false,
		},
	}

	t.Setenv("GEMINI_API_KEY", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.OCR.Threads != DefaultThreads {
		t.Errorf("Threads = %d, want %d", cfg.OCR.Threads, DefaultThreads)
	}
	if cfg.OCR.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.OCR.MaxAttempts)
	}
	if cfg.OCR.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.OCR.RetryDelay)
	}
	if cfg.Extractor.WatchRetries != 10 || cfg.Extractor.WatchDelay != time.Second {
		t.Errorf("watch budget = %d x %v, want 10 x 1s", cfg.Extractor.WatchRetries, cfg.Extractor.WatchDelay)
	}
	if len(cfg.Gemini.APIKeys) != 1 || cfg.Gemini.APIKeys[0] != "env-key" {
		t.Errorf("APIKeys = %v, want [env-key]", cfg.Gemini.APIKeys)
	}
	if _, ok := cfg.Profile("TikTok"); !ok {
		t.Error("Profile(TikTok) should resolve case-insensitively")
	}
	if _, ok := cfg.Profile(cfg.Extractor.DefaultProfile); !ok {
		t.Errorf("default profile %q is not defined", cfg.Extractor.DefaultProfile)
	}
	if cfg.Extractor.BinaryPath == "" || cfg.FFprobe.BinaryPath != "ffprobe" {
		t.Errorf("binaries = %q, %q", cfg.Extractor.BinaryPath, cfg.FFprobe.BinaryPath)
	}
}

func TestLoad(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
drive:
  credentials_file: "secrets/credentials.json"
  folder_id: "abc123"

ocr:
  threads: 8
  retry_delay: 250ms

extractor:
  binary_path: "/opt/vsf/VideoSubFinderWXW"
  create_txt_images: true
  profiles:
    custom:
      top: 0.3
      bottom: 0.05
      left: 0
      right: 1

cleanup:
  archive_raw_texts: true

logging:
  level: "debug"
`

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Drive.CredentialsFile != "secrets/credentials.json" {
		t.Errorf("CredentialsFile = %v", cfg.Drive.CredentialsFile)
	}
	if cfg.Drive.TokenFile != "token.json" {
		t.Errorf("TokenFile = %v, want default", cfg.Drive.TokenFile)
	}
	if cfg.OCR.Threads != 8 {
		t.Errorf("Threads = %v, want 8", cfg.OCR.Threads)
	}
	if cfg.OCR.RetryDelay != 250*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 250ms", cfg.OCR.RetryDelay)
	}
	if !cfg.Extractor.CreateTXTImages {
		t.Error("CreateTXTImages = false, want true")
	}
	if p, ok := cfg.Profile("custom"); !ok || p.Top != 0.3 {
		t.Errorf("Profile(custom) = %+v, %v", p, ok)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OCR.Threads != DefaultThreads {
		t.Errorf("Threads = %d, want %d", cfg.OCR.Threads, DefaultThreads)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("ocr: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should return error for malformed YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.OCR.Threads = 4
	cfg.Cleanup.DeleteTexts = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.OCR.Threads != 4 || !loaded.Cleanup.DeleteTexts {
		t.Errorf("loaded = %+v", loaded.OCR)
	}
	if loaded.OCR.RetryDelay != cfg.OCR.RetryDelay {
		t.Errorf("RetryDelay = %v, want %v", loaded.OCR.RetryDelay, cfg.OCR.RetryDelay)
	}
}
