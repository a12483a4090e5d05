package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/TillBeemelmanns/PDFCompare/pkg/api"
)

type appConfig struct {
	CacheDir string     `mapstructure:"cache_dir"`
	S3       S3Config   `mapstructure:"s3"`
	API      api.Config `mapstructure:"api"`
}

// S3Config configures the optional remote cache mirror. Bucket is empty
// unless the deployment opts into sharing a cache across machines.
type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

// loadConfig loads the application configuration from the specified file path and environment variables.
// It uses the provided args structure to determine the configuration path.
// The function returns a pointer to the appConfig structure and an error if something goes wrong.
func loadConfig(flags *cmdFlags) (*appConfig, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())

	if flags.ConfigPath != "" {
		v.SetConfigFile(flags.ConfigPath)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg appConfig

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}

	slog.Debug("Config loaded", slog.Any("config", cfg))

	return &cfg, nil
}

// defaultCacheDir resolves the per-user cache location, falling back to a
// relative directory when the home directory cannot be determined.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("runtime", "cache")
	}

	return filepath.Join(home, ".pdfcompare", "index_cache")
}
