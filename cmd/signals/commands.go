package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/api"
	"github.com/rxtech-lab/argo-signals/internal/config"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/signalfeed"
	"github.com/rxtech-lab/argo-signals/internal/trading"
	"github.com/rxtech-lab/argo-signals/internal/trading/gateway"
	"github.com/rxtech-lab/argo-signals/internal/version"
)

const shutdownTimeout = 10 * time.Second

// loadConfig reads the configuration and builds the logger for a command.
// Logs go to the error writer; stdout carries only command output.
func loadConfig(cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.App.LogLevel = level
	}

	errWriter := cmd.Root().ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}

	return cfg, logger.NewLoggerWithWriter(cfg.App.LogLevel, errWriter), nil
}

// newSubmitter builds the configured gateway and the submitter on top of it.
func newSubmitter(cfg *config.Config, log *logger.Logger) (*trading.Submitter, error) {
	gw, err := cfg.NewGateway(log)
	if err != nil {
		return nil, err
	}

	return trading.NewSubmitter(gw, cfg.SubmitterConfig(), log)
}

// signalSource picks the reader for a signal file by extension.
func signalSource(path string, useDuckDB bool, log *logger.Logger) (signalfeed.Source, error) {
	if useDuckDB || strings.EqualFold(filepath.Ext(path), ".parquet") {
		return signalfeed.NewDuckDBSource(path, log)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signal file: %w", err)
	}

	return signalfeed.NewCSVSource(data), nil
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "Normalize a signal file into chart-script arrays",
		ArgsUsage: "<file.csv|file.parquet>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json or pine",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "duckdb",
				Usage: "Read CSV files through DuckDB instead of the in-process reader",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("a signal file is required")
			}

			_, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			source, err := signalSource(path, cmd.Bool("duckdb"), log)
			if err != nil {
				return err
			}

			feed, err := signalfeed.NewNormalizer(log).Normalize(ctx, source)
			if err != nil {
				return err
			}

			export := signalfeed.ExportFeed(feed)
			out := cmd.Root().Writer

			switch cmd.String("format") {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")

				return encoder.Encode(export)
			case "pine":
				_, err = fmt.Fprint(out, signalfeed.PineSnippet(export))
			case "text":
				_, err = fmt.Fprintf(out, "Signal Times:\n%s\n\nSignal Directions:\n%s\n", export.Times, export.Signals)
			default:
				return fmt.Errorf("unknown output format %q", cmd.String("format"))
			}

			return err
		},
	}
}

func tradeCommand() *cli.Command {
	return &cli.Command{
		Name:  "trade",
		Usage: "Submit one market order with a stop loss and take profit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Instrument to trade",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "action",
				Aliases:  []string{"a"},
				Usage:    "Trade action: buy or sell",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "volume",
				Usage: "Lot size (defaults to orders.default_volume)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			volume := cfg.DefaultVolume()
			if raw := cmd.String("volume"); raw != "" {
				volume, err = decimal.NewFromString(raw)
				if err != nil {
					return fmt.Errorf("invalid volume %q: %w", raw, err)
				}
			}

			submitter, err := newSubmitter(cfg, log)
			if err != nil {
				return err
			}

			result, err := submitter.Submit(ctx, trading.SubmitParams{
				Symbol: strings.ToUpper(cmd.String("symbol")),
				Action: cmd.String("action"),
				Volume: volume,
			})

			fmt.Fprintln(cmd.Root().Writer, trading.StatusMessage(result, err))

			return err
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.addr)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			submitter, err := newSubmitter(cfg, log)
			if err != nil {
				return err
			}

			server := api.NewServer(api.Options{
				Normalizer:     signalfeed.NewNormalizer(log),
				Submitter:      submitter,
				Instruments:    cfg.Instruments,
				DefaultVolume:  cfg.DefaultVolume(),
				MinVolume:      decimal.NewFromFloat(cfg.Orders.MinVolume),
				MaxVolume:      decimal.NewFromFloat(cfg.Orders.MaxVolume),
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				Logger:         log,
			})

			addr := cfg.Server.Addr
			if override := cmd.String("addr"); override != "" {
				addr = override
			}

			if err := server.Start(addr); err != nil {
				return err
			}

			log.Info("Serving API",
				zap.String("address", server.Address()),
				zap.String("venue", cfg.Gateway.Provider))

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()
			log.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return server.Stop(shutdownCtx)
		},
	}
}

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "Inspect the supported venue providers",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the supported providers",
				Action: func(_ context.Context, cmd *cli.Command) error {
					out := cmd.Root().Writer

					for _, name := range gateway.GetSupportedProviders() {
						info, err := gateway.GetProviderInfo(name)
						if err != nil {
							return err
						}

						fmt.Fprintf(out, "%-14s %-18s %s\n", info.Name, info.DisplayName, info.Description)
					}

					return nil
				},
			},
			{
				Name:      "schema",
				Usage:     "Print the JSON schema of a provider's configuration",
				ArgsUsage: "<provider>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("a provider name is required")
					}

					schema, err := gateway.GetProviderConfigSchema(name)
					if err != nil {
						return err
					}

					_, err = fmt.Fprintln(cmd.Root().Writer, schema)

					return err
				},
			},
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Destination `FILE`",
						Value:   config.DefaultConfigName + ".yaml",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.String("output")

					if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
						return fmt.Errorf("%s already exists; use --force to overwrite", path)
					}

					if err := config.Save(path, config.Default()); err != nil {
						return err
					}

					_, err := fmt.Fprintf(cmd.Root().Writer, "Wrote %s\n", path)

					return err
				},
			},
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

			return err
		},
	}
}
