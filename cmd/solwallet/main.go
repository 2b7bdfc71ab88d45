package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "solwallet",
		Usage: "Solana wallet PNL and tax estimate CLI",
		Description: `A command-line tool for the solwallet-tax service.

Local commands (pnl, demo, validate) run the PNL pipeline in-process using the
same environment configuration as the server. Remote commands (tax, states,
server) talk to a running server.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			pnlCommand(),
			demoCommand(),
			validateCommand(),
			taxCommand(),
			statesCommand(),
			natsCommands(),
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "HTTP server URL",
				EnvVars: []string{"SOLWALLET_SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "Apply a jq filter to the JSON output (implies --json)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log pipeline activity to stderr",
			},
		},
	}
}
