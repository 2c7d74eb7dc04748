package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig is the reportctl process configuration.
type ServerConfig struct {
	Addr        string          `mapstructure:"addr"`
	BasePath    string          `mapstructure:"base_path"`
	Manifest    string          `mapstructure:"manifest"`
	SeedGallery bool            `mapstructure:"seed_gallery"`
	Store       StoreConfig     `mapstructure:"store"`
	Export      ExportConfig    `mapstructure:"export"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Log         LogConfig       `mapstructure:"log"`
}

// StoreConfig selects the template store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// ExportConfig selects where exported artifacts go. Bucket wins over Dir.
type ExportConfig struct {
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	Profile string `mapstructure:"profile"`
}

// AnalyticsConfig points element previews at a BI service. Empty BaseURL keeps mock data.
type AnalyticsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	storeMemory = "memory"
	storeSQLite = "sqlite"
)

// LoadConfig reads defaults, REPORTCTL_* environment variables and the optional file at path.
func LoadConfig(path string) (ServerConfig, error) {
	v := viper.New()
	v.SetDefault("addr", ":9876")
	v.SetDefault("base_path", "/reports")
	v.SetDefault("seed_gallery", true)
	v.SetDefault("store.driver", storeMemory)
	v.SetDefault("store.path", "reports.db")
	v.SetDefault("export.dir", "exports")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix("REPORTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ServerConfig{}, fmt.Errorf("reportctl: read config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("reportctl: parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func (cfg ServerConfig) validate() error {
	switch cfg.Store.Driver {
	case storeMemory:
	case storeSQLite:
		if cfg.Store.Path == "" {
			return fmt.Errorf("reportctl: store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("reportctl: unknown store driver %q", cfg.Store.Driver)
	}
	return nil
}
