// Package cli implements the amplification command line tool.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/PenroseTiles/amplification/logging"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "amplification",
		Short: "A command-line utility for logging experiment metrics.",
		Long: `amplification logs records of named metric values. Every record is printed
as an aligned table, and the numeric values can be written to a TensorBoard event log.

To log records, pipe JSON objects (one per line) into 'amplification log'.
Use 'amplification dump' and 'amplification plot' to inspect an event log afterwards.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.amplification.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "sets the log level (debug, info, warn, error)")
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	rootCmd.PersistentFlags().StringSlice("log-pkgs", []string{}, "set the log level on a per-package basis.")
	cobra.CheckErr(viper.BindPFlag("log-pkgs", rootCmd.PersistentFlags().Lookup("log-pkgs")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".amplification" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".amplification")
	}

	viper.SetEnvPrefix("amplification")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if err := logging.SetLogLevel(viper.GetString("log-level")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, packageLevel := range viper.GetStringSlice("log-pkgs") {
		parts := strings.Split(packageLevel, ":")
		if len(parts) != 2 {
			fmt.Fprintln(os.Stderr, "log-pkgs flag must be a comma-separated list of package:level strings")
			os.Exit(1)
		}
		if err := logging.SetPackageLogLevel(parts[0], parts[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
