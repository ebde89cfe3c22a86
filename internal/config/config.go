// Package config loads the service configuration from a YAML file, filling
// unset fields from `default` struct tags.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config is the complete configuration for the writeback service.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Flush   FlushConfig   `yaml:"flush"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Media   MediaConfig   `yaml:"media"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type StorageConfig struct {
	// Path of the SQLite database file. Empty selects the in-memory store,
	// which loses all data on shutdown.
	Path string `yaml:"path" default:"./writeback.db"`
}

type FlushConfig struct {
	// Debounce window for coalesced writes, in milliseconds. The window
	// opens on the first unflushed write.
	DelayMS int `yaml:"delay_ms" default:"500"`
}

type DraftsConfig struct {
	TTLHours             int `yaml:"ttl_hours" default:"24"`
	SweepBatch           int `yaml:"sweep_batch" default:"100"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" default:"15"`
}

type MediaConfig struct {
	Enabled  bool   `yaml:"enabled" default:"false"`
	Endpoint string `yaml:"endpoint" default:""`
	Region   string `yaml:"region" default:"auto"`
	Bucket   string `yaml:"bucket" default:""`
}

func (c *Config) FlushDelay() time.Duration {
	return time.Duration(c.Flush.DelayMS) * time.Millisecond
}

func (c *Config) DraftTTL() time.Duration {
	return time.Duration(c.Drafts.TTLHours) * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Drafts.SweepIntervalMinutes) * time.Minute
}

// Load reads the configuration file at path. A missing file is not an error:
// defaults apply.
func Load(path string) (*Config, error) {
	config := &Config{}
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		return config, nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
