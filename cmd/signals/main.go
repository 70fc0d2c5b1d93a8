package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-signals/internal/version"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "signals",
		Usage:   "Normalize trading signal files and submit bracketed market orders",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the `FILE` holding the configuration (defaults to ./signals.yaml when present)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv `FILE` loaded before the configuration",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// best-effort; a missing .env is not an error
			_ = godotenv.Load(cmd.String("env-file"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			normalizeCommand(),
			tradeCommand(),
			serveCommand(),
			providersCommand(),
			configCommand(),
			versionCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
