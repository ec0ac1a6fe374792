package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/udlcore/udl/internal/xerrors"
)

var (
	globalConfig  *Config
	viperInstance *viper.Viper
)

// Load reads the project configuration, merging system < user < project
// config files with environment variables winning over all of them
// (spec §5 "env var binding"), grounded on am/load.go's Load/initViper.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, xerrors.Wrap(err, "unmarshal config")
	}
	cfg.Plugins = normalizePlugins(v.Get("plugins"))
	applyDefaults(&cfg)

	globalConfig = &cfg
	return globalConfig, nil
}

// GetViper returns the process-wide Viper instance for advanced access.
func GetViper() *viper.Viper {
	return initViper()
}

// Reset clears the cached config and Viper instance (spec §5: shared
// process-wide resources need a defined reset for tests).
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Codegen.Output == "" {
		cfg.Codegen.Output = "./generated"
	}
	if cfg.Codegen.ExportType == "" {
		cfg.Codegen.ExportType = "interface"
	}
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix("UDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// mergeConfigFiles merges config sources lowest to highest precedence:
// system config, user config, project config (two-extension probe,
// compiled wins over source). Env vars are layered on top automatically
// by v.AutomaticEnv above.
func mergeConfigFiles(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()
	udlDir := filepath.Join(homeDir, ".udl")
	_ = os.MkdirAll(udlDir, 0o755)

	wd, _ := os.Getwd()
	projectConfig := findProjectConfig(wd)

	paths := []string{
		"/etc/udl/udl.config.toml",
		filepath.Join(udlDir, "udl.config.toml"),
		filepath.Join(udlDir, "udl.config.json"),
	}
	if projectConfig != "" {
		paths = append(paths, projectConfig)
	}

	for _, path := range paths {
		mergeOneConfigFile(v, path)
	}
}

func mergeOneConfigFile(v *viper.Viper, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	tmp := viper.New()
	tmp.SetConfigFile(path)
	tmp.SetConfigType(configType(path))
	if err := tmp.ReadInConfig(); err != nil {
		return
	}

	// MergeConfigMap writes into viper's config layer, which AutomaticEnv
	// outranks; v.Set would write overrides that beat env vars.
	_ = v.MergeConfigMap(tmp.AllSettings())
}
