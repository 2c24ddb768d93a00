package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultThreads      = 20
	DefaultMaxAttempts  = 5
	DefaultRetryDelay   = time.Second
	DefaultSettleDelay  = 3 * time.Second
	DefaultWatchRetries = 10
	DefaultWatchDelay   = time.Second
)

type Config struct {
	Drive     DriveConfig     `yaml:"drive"`
	OCR       OCRConfig       `yaml:"ocr"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Export    ExportConfig    `yaml:"export"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Logging   LoggingConfig   `yaml:"logging"`
	FFprobe   FFprobeConfig   `yaml:"ffprobe"`
}

type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	FolderID        string `yaml:"folder_id"`
	FolderName      string `yaml:"folder_name"`
}

type OCRConfig struct {
	Threads     int           `yaml:"threads"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	RawTextsDir string        `yaml:"raw_texts_dir"`
	TextsDir    string        `yaml:"texts_dir"`
}

type ExtractorConfig struct {
	BinaryPath      string                 `yaml:"binary_path"`
	DefaultProfile  string                 `yaml:"default_profile"`
	CreateTXTImages bool                   `yaml:"create_txt_images"`
	SettleDelay     time.Duration          `yaml:"settle_delay"`
	WatchRetries    int                    `yaml:"watch_retries"`
	WatchDelay      time.Duration          `yaml:"watch_delay"`
	Profiles        map[string]CropProfile `yaml:"profiles"`
}

// CropProfile holds fractional [0,1] offsets of the subtitle band.
type CropProfile struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

type CleanupConfig struct {
	DeleteRawTexts  bool `yaml:"delete_raw_texts"`
	DeleteTexts     bool `yaml:"delete_texts"`
	ArchiveRawTexts bool `yaml:"archive_raw_texts"`
}

type ExportConfig struct {
	Docx bool `yaml:"docx"`
}

type GeminiConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Model     string   `yaml:"model"`
	APIKeys   []string `yaml:"api_keys"`
	BatchSize int      `yaml:"batch_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type FFprobeConfig struct {
	BinaryPath string `yaml:"binary_path"`
}

// Default returns a configuration that passes Validate as is.
func Default() *Config {
	cfg := &Config{
		Extractor: ExtractorConfig{
			Profiles: defaultProfiles(),
		},
		Logging: LoggingConfig{Level: "info"},
	}
	_ = cfg.Validate()
	return cfg
}

func defaultProfiles() map[string]CropProfile {
	return map[string]CropProfile{
		"bottom-band": {Top: 0.1692, Bottom: 0.0058, Left: 0, Right: 1},
		"bottom-wide": {Top: 0.3052, Bottom: 0.0545, Left: 0, Right: 1},
		"centered":    {Top: 0.2455, Bottom: 0.0746, Left: 0.1743, Right: 0.8322},
		"tiktok":      {Top: 0.45, Bottom: 0.05, Left: 0, Right: 1},
	}
}

// Load reads a YAML config file and validates it. A missing file yields the
// defaults so a first run works without any setup beyond credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Profile looks up a crop profile by name, case-insensitively.
func (c *Config) Profile(name string) (CropProfile, bool) {
	for k, p := range c.Extractor.Profiles {
		if strings.EqualFold(k, name) {
			return p, true
		}
	}
	return CropProfile{}, false
}

func (c *Config) Validate() error {
	if c.OCR.Threads < 0 {
		return fmt.Errorf("ocr.threads must not be negative")
	}
	if c.OCR.MaxAttempts < 0 {
		return fmt.Errorf("ocr.max_attempts must not be negative")
	}
	if c.Gemini.BatchSize < 0 {
		return fmt.Errorf("gemini.batch_size must not be negative")
	}
	for name, p := range c.Extractor.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("extractor.profiles.%s: %w", name, err)
		}
	}

	if c.Drive.CredentialsFile == "" {
		c.Drive.CredentialsFile = "credentials.json"
	}
	if c.Drive.TokenFile == "" {
		c.Drive.TokenFile = "token.json"
	}
	if c.Drive.FolderName == "" {
		c.Drive.FolderName = "Temp_OCR_Go"
	}
	if c.OCR.Threads == 0 {
		c.OCR.Threads = DefaultThreads
	}
	if c.OCR.MaxAttempts == 0 {
		c.OCR.MaxAttempts = DefaultMaxAttempts
	}
	if c.OCR.RetryDelay <= 0 {
		c.OCR.RetryDelay = DefaultRetryDelay
	}
	if c.OCR.RawTextsDir == "" {
		c.OCR.RawTextsDir = "raw_texts"
	}
	if c.OCR.TextsDir == "" {
		c.OCR.TextsDir = "texts"
	}
	if c.Extractor.BinaryPath == "" {
		c.Extractor.BinaryPath = "VideoSubFinderWXW"
	}
	if c.Extractor.DefaultProfile == "" {
		c.Extractor.DefaultProfile = "bottom-band"
	}
	if c.Extractor.SettleDelay <= 0 {
		c.Extractor.SettleDelay = DefaultSettleDelay
	}
	if c.Extractor.WatchRetries <= 0 {
		c.Extractor.WatchRetries = DefaultWatchRetries
	}
	if c.Extractor.WatchDelay <= 0 {
		c.Extractor.WatchDelay = DefaultWatchDelay
	}
	if c.Extractor.Profiles == nil {
		c.Extractor.Profiles = defaultProfiles()
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.BatchSize == 0 {
		c.Gemini.BatchSize = 100
	}
	if len(c.Gemini.APIKeys) == 0 {
		if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
			c.Gemini.APIKeys = []string{key}
		}
	}
	if c.Gemini.Enabled && len(c.Gemini.APIKeys) == 0 {
		return fmt.Errorf("gemini.api_keys or GEMINI_API_KEY is required when gemini.enabled is set")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.FFprobe.BinaryPath == "" {
		c.FFprobe.BinaryPath = "ffprobe"
	}

	return nil
}

// Validate checks every edge offset lies within [0,1] and the band is not empty.
// Top and bottom are measured from the bottom edge of the frame.
func (p CropProfile) Validate() error {
	for name, v := range map[string]float64{"top": p.Top, "bottom": p.Bottom, "left": p.Left, "right": p.Right} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s = %v outside [0,1]", name, v)
		}
	}
	if p.Bottom >= p.Top {
		return fmt.Errorf("bottom (%v) must be smaller than top (%v)", p.Bottom, p.Top)
	}
	if p.Left >= p.Right {
		return fmt.Errorf("left (%v) must be smaller than right (%v)", p.Left, p.Right)
	}
	return nil
}
