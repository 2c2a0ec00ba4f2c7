// File: internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ELEMKIT_BROWSER_BACKEND.
const EnvPrefix = "ELEMKIT"

// Load reads configuration into v in increasing order of precedence:
// defaults, the config file, then ELEMKIT_* environment variables. Variables
// from envFile (usually ".env") are exported first and never override the
// real environment. An explicit cfgFile must exist; otherwise elemkit.yaml is
// looked up in the working directory and then as ~/.elemkit.yaml.
func Load(v *viper.Viper, cfgFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	SetDefaults(v)

	if cfgFile != "" {
		expanded, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("elemkit")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := readDotfile(v); err != nil {
			return nil, err
		}
	}

	return NewConfigFromViper(v)
}

// readDotfile falls back to ~/.elemkit.yaml, which the name based lookup
// cannot find because of the leading dot. A missing file is not an error.
func readDotfile(v *viper.Viper) error {
	path, err := homedir.Expand("~/.elemkit.yaml")
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}
