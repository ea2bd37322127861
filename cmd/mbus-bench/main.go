// Command mbus-bench measures publish throughput of an mbus.Bus.
//
// Defaults come from MBUS_* environment variables, loaded from a .env file
// when one exists. A YAML config file overrides them and flags override both.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/casualjim/mbus/pkg/slogx"
	"github.com/joho/godotenv"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelInfo}),
	))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("benchmark failed", slogx.Error(err))
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		envFile    string
		verbose    bool
		flags      = DefaultConfig()
	)

	cmd := &cobra.Command{
		Use:           "mbus-bench",
		Short:         "Measure publish throughput of an in-process message bus",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				slog.SetDefault(slog.New(
					zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelDebug}),
				))
			}

			cfg, err := resolveConfig(cmd, envFile, configFile, flags)
			if err != nil {
				return err
			}

			result, err := Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			report := NewReport(result)
			if cfg.JSON {
				return report.WriteJSON(cmd.OutOrStdout())
			}
			return report.WriteText(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "YAML config file")
	f.StringVar(&envFile, "env-file", ".env", "dotenv file with MBUS_* defaults, ignored when missing")
	f.BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	f.IntVarP(&flags.Listeners, "listeners", "l", flags.Listeners, "number of subscribed listeners")
	f.IntVarP(&flags.Messages, "messages", "m", flags.Messages, "number of messages to publish")
	f.IntVarP(&flags.Publishers, "publishers", "p", flags.Publishers, "number of concurrent publishers")
	f.IntVarP(&flags.Workers, "workers", "w", flags.Workers, "asynchronous delivery workers")
	f.IntVar(&flags.QueueSize, "queue-size", flags.QueueSize, "asynchronous queue capacity")
	f.IntVar(&flags.FailEvery, "fail-every", flags.FailEvery, "fail every n-th handler invocation")
	f.BoolVar(&flags.Async, "async", flags.Async, "publish asynchronously")
	f.BoolVar(&flags.JSON, "json", flags.JSON, "print the report as JSON")
	return cmd
}

// resolveConfig layers the defaults, the environment, the config file and the
// flags the user set explicitly, in that order.
func resolveConfig(cmd *cobra.Command, envFile, configFile string, flags Config) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.LoadFile(configFile); err != nil {
		return Config{}, err
	}

	f := cmd.Flags()
	overrides := map[string]func(){
		"listeners":  func() { cfg.Listeners = flags.Listeners },
		"messages":   func() { cfg.Messages = flags.Messages },
		"publishers": func() { cfg.Publishers = flags.Publishers },
		"workers":    func() { cfg.Workers = flags.Workers },
		"queue-size": func() { cfg.QueueSize = flags.QueueSize },
		"fail-every": func() { cfg.FailEvery = flags.FailEvery },
		"async":      func() { cfg.Async = flags.Async },
		"json":       func() { cfg.JSON = flags.JSON },
	}
	for name, apply := range overrides {
		if f.Changed(name) {
			apply()
		}
	}
	return cfg, cfg.Validate()
}
