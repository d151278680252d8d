package config

import (
	"errors"
	"os"
	"path/filepath"

	mm "github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"

	"github.com/conduit-lang/foundry/internal/engine"
	"github.com/conduit-lang/foundry/internal/logging"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/info"
)

// ConfigSource is the default configuration source file name.
const ConfigSource = "config.go"

// Config represents the foundry tool configuration
type Config struct {
	BuildDir    string `mapstructure:"build_dir"`
	GoBinary    string `mapstructure:"go_binary"`
	GoVersion   string `mapstructure:"go_version"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	CleanPolicy string `mapstructure:"clean_policy"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// Load loads the configuration from foundry.yml or foundry.yaml in the
// working directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration from foundry.yml or foundry.yaml in dir.
// FOUNDRY_* environment variables override the file.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("build_dir", info.DefaultBuildDir)
	v.SetDefault("go_binary", "go")
	v.SetDefault("go_version", info.DefaultGoVersion)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("clean_policy", "collect")
	v.SetDefault("metrics_file", "")

	v.SetConfigName("foundry")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("FOUNDRY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, ferrors.WrapConfig(ferrors.CodeConfig, err, "read config file")
		}
		// No config file: defaults and environment only.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, ferrors.WrapConfig(ferrors.CodeConfig, err, "unmarshal config")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ProjectRoot returns the nearest directory at or above start holding a
// foundry.yml, foundry.yaml or configuration source
func ProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{"foundry.yml", "foundry.yaml", ConfigSource} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ferrors.Config(ferrors.CodeConfig, "not in a foundry project (no %s or foundry.yml found)", ConfigSource)
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.BuildDir == "" {
		return ferrors.Config(ferrors.CodeConfig, "build_dir must not be empty")
	}
	if _, err := engine.ParseCleanPolicy(cfg.CleanPolicy); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return ferrors.WrapConfig(ferrors.CodeConfig, err, "log_level")
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return ferrors.Config(ferrors.CodeConfig, "log_format must be console or json, got: %s", cfg.LogFormat)
	}
	if _, err := mm.NewVersion(cfg.GoVersion); err != nil {
		return ferrors.WrapConfig(ferrors.CodeConfig, err, "go_version %q", cfg.GoVersion)
	}
	return nil
}
