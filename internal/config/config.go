// Package config implements project config discovery (spec §6 "Config
// discovery"): a project root is expected to hold a config module
// exporting {plugins?, codegen?, host?, port?}. Two extensions are
// probed per directory and a compiled form takes precedence over
// source; system and user config merge underneath it, and everything
// can be overridden by environment variables — grounded on am/load.go's
// viper wiring.
package config

import (
	"github.com/udlcore/udl/internal/sourcing"
)

// CodegenConfig mirrors the subset of codegen.Options a config module
// may declare; CLI flags win over these when both are present (spec
// §4.11 "merges with CLI, CLI wins").
type CodegenConfig struct {
	Output     string `mapstructure:"output"`
	Guards     bool   `mapstructure:"guards"`
	NoInternal bool   `mapstructure:"noInternal"`
	NoJSDoc    bool   `mapstructure:"noJsdoc"`
	ExportType string `mapstructure:"exportType"`
}

// Config is the decoded shape of a project's config module. Plugins is
// decoded by hand (see normalizePlugins) since its entries are
// heterogeneous — a bare name or a `{name, options}` object — which
// mapstructure can't express as a single Go type.
type Config struct {
	Plugins []sourcing.ChildRef `mapstructure:"-"`
	Codegen CodegenConfig       `mapstructure:"codegen"`
	Host    string              `mapstructure:"host"`
	Port    int                 `mapstructure:"port"`
}

const (
	DefaultHost = "localhost"
	DefaultPort = 8080
)
