// Package config loads runtime settings from erp.yaml, ERP_* environment
// variables and the provider variables the OCR backends have always used.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grupomess/erp/internal/ocr"
	"github.com/grupomess/erp/internal/prefs"
	"github.com/spf13/viper"
)

// Config holds every runtime setting
type Config struct {
	Port string `mapstructure:"port"`
	// DataDir holds the preference store and the save ledger
	DataDir  string `mapstructure:"data_dir"`
	CacheDir string `mapstructure:"cache_dir"`
	// PublicDir is the world-visible storage root; folios land in PublicDir/Downloads
	PublicDir string       `mapstructure:"public_dir"`
	Camera    CameraConfig `mapstructure:"camera"`
	OCR       ocr.Config   `mapstructure:"ocr"`
}

// CameraConfig configures the device camera
type CameraConfig struct {
	// Inbox is the drop directory the device camera takes photos from
	Inbox             string `mapstructure:"inbox"`
	PermissionGranted bool   `mapstructure:"permission_granted"`
}

// PrefsPath is the location of the named preference store
func (c *Config) PrefsPath() string {
	return filepath.Join(c.DataDir, "shared_prefs", prefs.DefaultName+".yaml")
}

// LedgerPath is the location of the saved-photo journal
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger", "saved_photos.yaml")
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".erp")

	v.SetDefault("port", "8888")
	v.SetDefault("data_dir", filepath.Join(base, "data"))
	v.SetDefault("cache_dir", filepath.Join(base, "cache"))
	v.SetDefault("public_dir", home)
	v.SetDefault("camera.inbox", filepath.Join(base, "camera"))
	v.SetDefault("camera.permission_granted", true)
	v.SetDefault("ocr.provider", "ollama")
	v.SetDefault("ocr.model", "")
	v.SetDefault("ocr.ollama_url", "http://localhost:11434")
	v.SetDefault("ocr.openai_api_key", "")
	v.SetDefault("ocr.openai_url", "https://api.openai.com/v1")
	v.SetDefault("ocr.gemini_api_key", "")
}

// Load reads configuration. With an empty path, erp.yaml is looked up in the
// working directory and ~/.erp; a missing file just means defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider variables shared with other tools
	_ = v.BindEnv("ocr.provider", "ERP_OCR_PROVIDER", "CATALOGING_PROVIDER")
	_ = v.BindEnv("ocr.ollama_url", "ERP_OCR_OLLAMA_URL", "OLLAMA_URL", "OLLAMA_HOST")
	_ = v.BindEnv("ocr.openai_api_key", "ERP_OCR_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ocr.gemini_api_key", "ERP_OCR_GEMINI_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("erp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".erp"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.OCR.Model == "" {
		cfg.OCR.Model = providerModelFromEnv(cfg.OCR.Provider)
	}
	return &cfg, nil
}

// providerModelFromEnv honours the per-provider model variables
func providerModelFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_MODEL")
	case "ollama":
		return os.Getenv("OLLAMA_MODEL")
	case "gemini":
		return os.Getenv("GEMINI_MODEL")
	}
	return ""
}
