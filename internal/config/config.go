// Package config loads editor settings from orienteer-map.json and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "orienteer-map.json"

// StorageConfig holds the course store settings.
type StorageConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// WindowConfig holds the initial window size.
type WindowConfig struct {
	Width  float32 `json:"width" mapstructure:"width"`
	Height float32 `json:"height" mapstructure:"height"`
}

// Config is the full editor configuration.
type Config struct {
	// SnapDistance is the control snap radius in percent of the map.
	SnapDistance float64 `json:"snapDistance" mapstructure:"snapDistance"`
	// ClosingTolerance is the polygon closing radius in screen pixels.
	ClosingTolerance float64 `json:"closingTolerance" mapstructure:"closingTolerance"`
	// MapScale is the scale denominator for new events, e.g. 10000 for 1:10000.
	MapScale float64 `json:"mapScale" mapstructure:"mapScale"`

	LogLevel   string `json:"logLevel" mapstructure:"logLevel"`
	LogConsole bool   `json:"logConsole" mapstructure:"logConsole"`

	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Window  WindowConfig  `json:"window" mapstructure:"window"`
}

func setDefaults() {
	viper.SetDefault("snapDistance", 2.0)
	viper.SetDefault("closingTolerance", 20.0)
	viper.SetDefault("mapScale", 10000.0)

	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logConsole", true)

	viper.SetDefault("storage.path", "./courses.db")

	viper.SetDefault("window.width", 1280)
	viper.SetDefault("window.height", 800)
}

// Load reads configuration from configDir and the ORIENTEER_* environment.
// A missing config file is not an error; defaults apply.
func Load(configDir string) (Config, error) {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	viper.SetEnvPrefix("ORIENTEER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the editor cannot work with.
func (c Config) Validate() error {
	if c.SnapDistance < 0 {
		return fmt.Errorf("snapDistance must not be negative, got %v", c.SnapDistance)
	}
	if c.ClosingTolerance <= 0 {
		return fmt.Errorf("closingTolerance must be positive, got %v", c.ClosingTolerance)
	}
	if c.MapScale <= 0 {
		return fmt.Errorf("mapScale must be positive, got %v", c.MapScale)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}
