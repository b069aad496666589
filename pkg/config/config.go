package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/unowned-ai/diary/pkg/logging"
	"github.com/unowned-ai/diary/pkg/utils"
)

// EnvPrefix prefixes every environment variable, e.g. DIARY_DB.
const EnvPrefix = "DIARY"

// Keys shared by config files, environment and command flags.
const (
	KeyDB                  = "db"
	KeyWAL                 = "wal"
	KeySync                = "sync"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyPlaceholderText     = "placeholder_text"
	KeyPlaceholderLocation = "placeholder_location"
	KeyDisplayWidth        = "display_width"
	KeyGazetteer           = "gazetteer"
	KeyGazetteerRadiusKm   = "gazetteer_radius_km"
)

var validSync = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}

type Config struct {
	DBPath              string  `mapstructure:"db"`
	WAL                 bool    `mapstructure:"wal"`
	Sync                string  `mapstructure:"sync"`
	LogLevel            string  `mapstructure:"log_level"`
	LogFormat           string  `mapstructure:"log_format"`
	PlaceholderText     string  `mapstructure:"placeholder_text"`
	PlaceholderLocation string  `mapstructure:"placeholder_location"`
	DisplayWidth        int     `mapstructure:"display_width"`
	Gazetteer           string  `mapstructure:"gazetteer"`
	GazetteerRadiusKm   float64 `mapstructure:"gazetteer_radius_km"`
}

// New returns a viper instance with defaults and environment binding set up.
// Flags are bound onto it by the caller before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDB, "")
	v.SetDefault(KeyWAL, true)
	v.SetDefault(KeySync, "NORMAL")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyPlaceholderText, "No text")
	v.SetDefault(KeyPlaceholderLocation, "Add location")
	v.SetDefault(KeyDisplayWidth, 320)
	v.SetDefault(KeyGazetteer, "")
	v.SetDefault(KeyGazetteerRadiusKm, 25.0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return v
}

// Options select the optional files Load reads.
type Options struct {
	// ConfigFile is an explicit config file. When empty, "config.{yaml,json,toml}"
	// is looked up in the data directory and skipped if absent.
	ConfigFile string
	// EnvFiles are dotenv files loaded into the environment. Missing files
	// are ignored. Defaults to ".env".
	EnvFiles []string
}

// Load resolves the configuration. Precedence, lowest first: defaults,
// config file, dotenv files, environment, bound flags.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(utils.ConfigName)
		v.AddConfigPath(utils.DataDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Sync = strings.ToUpper(strings.TrimSpace(cfg.Sync))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !validSync[c.Sync] {
		return fmt.Errorf("invalid %s %q: must be OFF, NORMAL, FULL or EXTRA", KeySync, c.Sync)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid %s %q: must be text or json", KeyLogFormat, c.LogFormat)
	}
	if c.DisplayWidth <= 0 {
		return fmt.Errorf("invalid %s %d: must be positive", KeyDisplayWidth, c.DisplayWidth)
	}
	if c.GazetteerRadiusKm <= 0 {
		return fmt.Errorf("invalid %s %v: must be positive", KeyGazetteerRadiusKm, c.GazetteerRadiusKm)
	}
	return nil
}
