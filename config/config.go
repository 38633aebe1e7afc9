package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/photoblog/database"
	photobloghttp "github.com/sagarc03/photoblog/http"
	"github.com/sagarc03/photoblog/objectstore"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "PHOTOBLOG"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for photoblog.
type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	Service  ServiceConfig            `mapstructure:"service"`
	Database database.Config          `mapstructure:"database"`
	Storage  objectstore.Config       `mapstructure:"storage"`
	Grants   GrantsConfig             `mapstructure:"grants"`
	CORS     photobloghttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig                `mapstructure:"log"`
	Env      string                   `mapstructure:"env" validate:"omitempty,oneof=dev development prod production test"`
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	DefaultPageSize int   `mapstructure:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int   `mapstructure:"max_page_size" validate:"min=1,max=1000"`
	MaxUploadSize   int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// ServiceConfig holds coordinator configuration.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
	// VerifyUploads checks that a claimed object exists before a row is committed.
	VerifyUploads bool `mapstructure:"verify_uploads"`
}

// GrantsConfig holds object key and grant settings.
type GrantsConfig struct {
	KeyPrefix   string        `mapstructure:"key_prefix" validate:"required"`
	UploadTTL   time.Duration `mapstructure:"upload_ttl" validate:"min=1s,max=168h"`
	DownloadTTL time.Duration `mapstructure:"download_ttl" validate:"min=1s,max=168h"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"port":         "server.port",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.default_page_size", 12)
	v.SetDefault("server.max_page_size", 100)
	v.SetDefault("server.max_upload_size", 20<<20)

	v.SetDefault("service.cleanup_timeout", 30) // seconds
	v.SetDefault("service.verify_uploads", false)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "photoblog.db")
	v.SetDefault("database.tables.photos", "photos")

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.public_url", "http://localhost:8080")
	v.SetDefault("storage.region", objectstore.DefaultRegion)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.create_bucket", false)

	v.SetDefault("grants.key_prefix", "photos")
	v.SetDefault("grants.upload_ttl", "5m")
	v.SetDefault("grants.download_ttl", "1h")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "")
	v.SetDefault("env", "dev")
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
