// Package config loads the client configuration from defaults, an optional
// YAML file, SOPORTE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	API    API    `mapstructure:"api"    json:"api"    validate:"required"`
	Data   Data   `mapstructure:"data"   json:"data"`
	Log    Log    `mapstructure:"log"    json:"log"    validate:"required"`
	Search Search `mapstructure:"search" json:"search" validate:"required"`
	List   List   `mapstructure:"list"   json:"list"`
}

type API struct {
	BaseURL      string        `mapstructure:"base_url"       json:"base_url"       validate:"required,url"`
	AssetURL     string        `mapstructure:"asset_url"      json:"asset_url"      validate:"omitempty,url"`
	UserAssetURL string        `mapstructure:"user_asset_url" json:"user_asset_url" validate:"omitempty,url"`
	Timeout      time.Duration `mapstructure:"timeout"        json:"timeout"        validate:"min=0"`
}

type Data struct {
	Path string `mapstructure:"path" json:"path"`
}

type Log struct {
	Level string `mapstructure:"level" json:"level" validate:"required,oneof=debug info warn error"`
	File  string `mapstructure:"file"  json:"file"`
}

type Search struct {
	Debounce time.Duration `mapstructure:"debounce" json:"debounce" validate:"gt=0"`
}

type List struct {
	PageCache bool `mapstructure:"page_cache" json:"page_cache"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"base-url":  "api.base_url",
	"timeout":   "api.timeout",
	"data":      "data.path",
	"log-level": "log.level",
	"log-file":  "log.file",
}

// DefaultDir is the per-user directory holding the config file and the
// local database.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".soporte"
	}
	return filepath.Join(home, ".soporte")
}

// Load reads the configuration. cfgFile may be empty to search the default
// locations; a missing file is not an error. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SOPORTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
	}

	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.asset_url", "")
	v.SetDefault("api.user_asset_url", "")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("data.path", filepath.Join(DefaultDir(), "soporte.sqlite3"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("search.debounce", 400*time.Millisecond)
	v.SetDefault("list.page_cache", true)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// AssetBase returns the base URL product and transfer files are served
// from, falling back to the API origin.
func (c Config) AssetBase() string {
	if c.API.AssetURL != "" {
		return c.API.AssetURL
	}
	return strings.TrimSuffix(strings.TrimRight(c.API.BaseURL, "/"), "/api")
}

// UserAssetBase returns the base URL user photos are served from.
func (c Config) UserAssetBase() string {
	if c.API.UserAssetURL != "" {
		return c.API.UserAssetURL
	}
	return c.AssetBase()
}
