package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sam-thetutor/streamr"
	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/types"
)

var (
	cfgFile  string
	logLevel string

	engine *streamr.Streamr
	log    logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "streamr",
	Short: "Inspect and serve on-chain payment streams and subscriptions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if engine != nil {
			return nil
		}

		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		log = logger.NewZapLogger(cfg.LogLevel)
		engine, err = streamr.New(cfg, streamr.WithLogger(log))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if engine != nil {
			engine.Close()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig builds configuration from file, environment, and defaults.
// Environment variables use the STREAMR_ prefix.
func loadConfig(path string) (*types.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STREAMR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", string(types.NetworkTestnet))
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("streamr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.streamr")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
