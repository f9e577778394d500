package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PBAP"
)

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pbap",
		Short:        "Phonebook access data provider",
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("backend", "sqlite", "Contact store: sqlite|opimd.")
	cmd.PersistentFlags().String("db", "pbap.db", "SQLite database path (sqlite backend).")
	cmd.PersistentFlags().String("bus", "system", "D-Bus to reach opimd on: system|session|<address> (opimd backend).")
	cmd.PersistentFlags().String("owner", "", "Source id of the self contact (opimd backend).")
	cmd.PersistentFlags().String("timezone", "", "IANA zone for call timestamps (defaults to local time).")
	cmd.PersistentFlags().Duration("timeout", 30*time.Second, "Deadline for one request.")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error (defaults to info).")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("log-add-source", false, "Include source file:line in logs.")
	cmd.PersistentFlags().String("log-file", "", "Append logs to this file instead of stderr.")

	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("backend", cmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("sqlite.path", cmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("opimd.bus", cmd.PersistentFlags().Lookup("bus"))
	_ = viper.BindPFlag("opimd.owner", cmd.PersistentFlags().Lookup("owner"))
	_ = viper.BindPFlag("timezone", cmd.PersistentFlags().Lookup("timezone"))
	_ = viper.BindPFlag("timeout", cmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.add_source", cmd.PersistentFlags().Lookup("log-add-source"))
	_ = viper.BindPFlag("logging.file", cmd.PersistentFlags().Lookup("log-file"))

	cmd.AddCommand(newPullCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newEntryCmd())
	cmd.AddCommand(newCdCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newCallCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func initConfig() {
	initViperDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}

func initViperDefaults() {
	viper.SetDefault("backend", "sqlite")
	viper.SetDefault("sqlite.path", "pbap.db")
	viper.SetDefault("opimd.bus", "system")
	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
}
