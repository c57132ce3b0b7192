package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/onflow/drand-fulfiller/config"
)

var (
	flagJSONLog bool
	log         zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fulfiller",
	Short: "Fulfill on-chain randomness requests with drand beacons",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "write logs as JSON instead of the console format")
	config.InitializeFlags(rootCmd.PersistentFlags(), config.DefaultConfig())

	log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(roundCmd)
}

// readConfig reads the configuration of `cmd` and sets up the logger. Only
// commands that talk to the chain require a complete, validated configuration.
func readConfig(cmd *cobra.Command, validate bool) (*config.Config, error) {
	read := config.Read
	if validate {
		read = config.Load
	}
	cfg, err := read(viper.New(), cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if flagJSONLog {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	log = log.Level(level)
	return cfg, nil
}
