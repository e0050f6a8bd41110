package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"mirror-generator/internal/gen"
	"mirror-generator/internal/roundtrip"
)

// configName is the config file name without extension.
const configName = ".mirror-generator"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix.
const envPrefix = "MIRRORGEN"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	genDefaults := gen.DefaultConfig()
	checkDefaults := roundtrip.DefaultConfig()

	viperCfg.SetDefault("schema", "")
	viperCfg.SetDefault("exceptions", "")
	viperCfg.SetDefault("features", []string{})
	viperCfg.SetDefault("verbose", false)

	viperCfg.SetDefault("output.dir", genDefaults.OutputDir)
	viperCfg.SetDefault("output.package", genDefaults.PackageName)
	viperCfg.SetDefault("output.original_import", genDefaults.OriginalImport)
	viperCfg.SetDefault("output.token_import", genDefaults.TokenImport)
	viperCfg.SetDefault("output.runtime_import", genDefaults.RuntimeImport)
	viperCfg.SetDefault("output.punct_import", genDefaults.PunctImport)

	viperCfg.SetDefault("roundtrip.seed", checkDefaults.Seed)
	viperCfg.SetDefault("roundtrip.samples", checkDefaults.Samples)
	viperCfg.SetDefault("roundtrip.depth", checkDefaults.Depth)
}
