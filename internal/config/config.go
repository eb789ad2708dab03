// Package config loads the inkpot YAML configuration, applying struct-tag
// defaults first and environment overrides last.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Editor   EditorConfig   `yaml:"editor"`
	Logging  LoggingConfig  `yaml:"logging"`
	Seed     SeedConfig     `yaml:"seed"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Inkpot"`
	Description string `yaml:"description" default:"A demo blog with autosaving drafts"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"12600"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// Addr is the listen address for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AutosaveConfig struct {
	Debounce         time.Duration `yaml:"debounce" default:"2s"`
	TitleDebounce    time.Duration `yaml:"title_debounce" default:"2s"`
	SaveTimeout      time.Duration `yaml:"save_timeout" default:"10s"`
	NotifyOnAutosave bool          `yaml:"notify_on_autosave" default:"false"`
}

type StorageConfig struct {
	Backend     string       `yaml:"backend" default:"memory"`
	Compression string       `yaml:"compression" default:"zstd"`
	SQLite      SQLiteConfig `yaml:"sqlite"`
	Badger      BadgerConfig `yaml:"badger"`
	S3          S3Config     `yaml:"s3"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" default:"inkpot.db"`
	// Driver is "sqlite3" (cgo, mattn) or "sqlite" (pure Go, modernc).
	Driver string `yaml:"driver" default:"sqlite3"`
}

type BadgerConfig struct {
	Path string `yaml:"path" default:"data/badger"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket" default:""`
	Prefix          string `yaml:"prefix" default:"blogs/"`
	Endpoint        string `yaml:"endpoint" default:""`
	Region          string `yaml:"region" default:"us-east-1"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
}

type AuthConfig struct {
	DemoUserID    string `yaml:"demo_user_id" default:"demo-user-123"`
	DemoUserName  string `yaml:"demo_user_name" default:"Demo User"`
	DemoUserEmail string `yaml:"demo_user_email" default:"demo@example.com"`
}

type EditorConfig struct {
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" default:"30m"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

var (
	backends     = []string{"memory", "sqlite", "badger", "s3"}
	compressions = []string{"zstd", "gzip", "none"}
	drivers      = []string{"sqlite3", "sqlite"}
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadEnv loads .env files into the process environment. Missing files are skipped.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			configLogger.Warn().Err(err).Str("path", f).Msg("Failed to load env file")
		}
	}
}

// Load reads the config at path. A missing file yields defaults. Environment
// overrides are applied afterwards and the result is validated.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	case err != nil:
		return nil, errors.Wrap(err, "failed to read config file")
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Validate() error {
	var problems []string

	if !oneOf(c.Storage.Backend, backends) {
		problems = append(problems, fmt.Sprintf("storage.backend must be one of %v, got %q", backends, c.Storage.Backend))
	}
	if !oneOf(c.Storage.Compression, compressions) {
		problems = append(problems, fmt.Sprintf("storage.compression must be one of %v, got %q", compressions, c.Storage.Compression))
	}
	if c.Storage.Backend == "sqlite" && !oneOf(c.Storage.SQLite.Driver, drivers) {
		problems = append(problems, fmt.Sprintf("storage.sqlite.driver must be one of %v, got %q", drivers, c.Storage.SQLite.Driver))
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		problems = append(problems, "storage.s3.bucket is required for the s3 backend")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}

	for name, d := range map[string]time.Duration{
		"autosave.debounce":           c.Autosave.Debounce,
		"autosave.title_debounce":     c.Autosave.TitleDebounce,
		"autosave.save_timeout":       c.Autosave.SaveTimeout,
		"editor.session_idle_timeout": c.Editor.SessionIdleTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %s", name, d))
		}
	}

	if c.Auth.DemoUserID == "" {
		problems = append(problems, "auth.demo_user_id is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func applyEnv(c *Config) {
	if v := os.Getenv("INKPOT_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("INKPOT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			configLogger.Warn().Str("value", v).Msg("Ignoring invalid INKPOT_PORT")
		}
	}
	if v := os.Getenv("INKPOT_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("INKPOT_SQLITE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}
	if v := os.Getenv("INKPOT_S3_BUCKET"); v != "" {
		c.Storage.S3.Bucket = v
	}
	if v := os.Getenv("INKPOT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

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

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if d, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(d))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
