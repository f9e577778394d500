package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the keys a --config file may set.
type fileConfig struct {
	Backend  string `yaml:"backend"`
	Timezone string `yaml:"timezone,omitempty"`
	Timeout  string `yaml:"timeout"`
	SQLite   struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Opimd struct {
		Bus   string `yaml:"bus"`
		Owner string `yaml:"owner,omitempty"`
	} `yaml:"opimd"`
	Logging struct {
		Level     string `yaml:"level,omitempty"`
		Format    string `yaml:"format"`
		AddSource bool   `yaml:"add_source"`
		File      string `yaml:"file,omitempty"`
	} `yaml:"logging"`
}

func effectiveConfig() fileConfig {
	var c fileConfig
	c.Backend = viper.GetString("backend")
	c.Timezone = viper.GetString("timezone")
	c.Timeout = viper.GetDuration("timeout").String()
	c.SQLite.Path = viper.GetString("sqlite.path")
	c.Opimd.Bus = viper.GetString("opimd.bus")
	c.Opimd.Owner = viper.GetString("opimd.owner")
	c.Logging.Level = viper.GetString("logging.level")
	c.Logging.Format = viper.GetString("logging.format")
	c.Logging.AddSource = viper.GetBool("logging.add_source")
	c.Logging.File = viper.GetString("logging.file")
	return c
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML (usable with --config)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := yaml.Marshal(effectiveConfig())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}
