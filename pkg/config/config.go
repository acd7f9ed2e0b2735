// Package config discovers the CLI's default settings (output
// format, verbosity) from a ~/.sgidisk.yaml file, the way
// pkg/vconvert locates and loads vconvert.yaml.
package config

import (
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const fileName = ".sgidisk"

// Defaults are the settings used when no config file is found.
type Defaults struct {
	OutputFormat string
	Verbose      bool
}

// Load reads settings from cfgFile if given, or ~/.sgidisk.yaml
// otherwise, falling back to hard-coded defaults when neither exists
// or parses.
func Load(cfgFile string) Defaults {
	defaults := Defaults{OutputFormat: "table", Verbose: false}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(fileName)
	} else {
		return defaults
	}

	if err := viper.ReadInConfig(); err != nil {
		return defaults
	}

	if v := viper.GetString("output_format"); v != "" {
		defaults.OutputFormat = v
	}
	defaults.Verbose = viper.GetBool("verbose")
	return defaults
}
