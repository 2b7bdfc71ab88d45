package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/brojonat/solwallet-tax/client"
	"github.com/brojonat/solwallet-tax/service/tax"
)

func taxCommand() *cli.Command {
	return &cli.Command{
		Name:      "tax",
		Usage:     "Request a tax estimate from the server",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "state",
				Usage:    "Two-letter state code",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "filing-status",
				Usage: "single, mfj, mfs or hoh",
				Value: "single",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 60 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)

			cl := client.NewClient(c.String("server"), &http.Client{Timeout: c.Duration("timeout")}, newLogger(c))
			est, err := cl.CalculateTax(context.Background(), client.TaxRequest{
				WalletAddress: address,
				FilingStatus:  c.String("filing-status"),
				State:         strings.ToUpper(c.String("state")),
			})
			if err != nil {
				return fmt.Errorf("failed to calculate tax: %w", err)
			}

			return printResult(c, est, func(w io.Writer) {
				fmt.Fprintf(w, "Wallet:      %s\n", address)
				fmt.Fprintf(w, "Filing:      %s\n", tax.FilingStatus(c.String("filing-status")).Label())
				fmt.Fprintf(w, "PNL:         $%.2f (%.4f SOL, %d trades)\n", est.TotalPnl, est.PnlSol, est.TradeCount)
				if est.IsLoss {
					fmt.Fprintln(w, "Tax:         none owed, net loss")
				} else {
					fmt.Fprintf(w, "Federal tax: $%.2f (%.2f%%)\n", est.FederalTax, est.FederalRate*100)
					fmt.Fprintf(w, "State tax:   $%.2f (%.2f%%)\n", est.StateTax, est.StateRate*100)
					fmt.Fprintf(w, "Total tax:   $%.2f\n", est.TotalTax)
				}
				fmt.Fprintf(w, "Source:      %s\n", est.DataSource)
			})
		},
	}
}

func statesCommand() *cli.Command {
	return &cli.Command{
		Name:  "states",
		Usage: "List supported states, rates and filing statuses",
		Action: func(c *cli.Context) error {
			cl := client.NewClient(c.String("server"), nil, newLogger(c))
			states, err := cl.States(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list states: %w", err)
			}

			return printResult(c, states, func(w io.Writer) {
				fmt.Fprintf(w, "Federal rate: %.2f%%\n\n", states.FederalRate*100)
				for _, s := range states.States {
					fmt.Fprintf(w, "%s  %-22s %6.2f%%\n", s.Code, s.Name, s.Rate*100)
				}
				fmt.Fprintln(w)
				for _, f := range states.FilingStatuses {
					fmt.Fprintf(w, "%-4s %s\n", f.Value, f.Label)
				}
			})
		},
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 5 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			serverURL := c.String("server")
			if serverURL == "" {
				return fmt.Errorf("server is required (set SOLWALLET_SERVER_URL env var or use --server)")
			}

			cl := client.NewClient(serverURL, &http.Client{Timeout: c.Duration("timeout")}, nil)
			if err := cl.Health(context.Background()); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			fmt.Fprintf(c.App.Writer, "✓ Server is healthy\n")
			fmt.Fprintf(c.App.Writer, "  URL: %s\n", serverURL)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "solwallet CLI\n")
			fmt.Fprintf(c.App.Writer, "  Version: %s\n", version)
			fmt.Fprintf(c.App.Writer, "  Commit:  %s\n", commit)
			fmt.Fprintf(c.App.Writer, "  Built:   %s\n", date)
			return nil
		},
	}
}
