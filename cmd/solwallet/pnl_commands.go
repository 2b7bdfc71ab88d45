package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/brojonat/solwallet-tax/service/config"
	"github.com/brojonat/solwallet-tax/service/pnl"
	"github.com/brojonat/solwallet-tax/service/solana"
	"github.com/brojonat/solwallet-tax/service/tax"
)

func pnlCommand() *cli.Command {
	return &cli.Command{
		Name:      "pnl",
		Usage:     "Resolve a wallet's realized PNL through the provider fallback chain",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "extended",
				Aliases: []string{"e"},
				Usage:   "Resolve SOL totals and trade count (skips the secondary provider)",
			},
			&cli.StringFlag{
				Name:  "state",
				Usage: "Also estimate tax for this two-letter state code (implies --extended)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			chain := pnl.FromConfig(cfg, nil, newLogger(c))
			ctx := context.Background()

			if !c.Bool("extended") && c.String("state") == "" {
				res, err := chain.PNL(ctx, address)
				if err != nil {
					return err
				}
				return printResult(c, res, func(w io.Writer) {
					fmt.Fprintf(w, "Wallet:  %s\n", address)
					fmt.Fprintf(w, "PNL:     $%.2f\n", res.PnlUSD)
					fmt.Fprintf(w, "Source:  %s\n", res.Source)
				})
			}

			res, err := chain.ExtendedPNL(ctx, address)
			if err != nil {
				return err
			}

			if state := c.String("state"); state != "" {
				b, err := tax.Calculate(res.PnlUSD, state)
				if err != nil {
					return err
				}
				out := struct {
					pnl.Result
					Tax tax.Breakdown `json:"tax"`
				}{res, b}
				return printResult(c, out, func(w io.Writer) {
					printExtended(w, address, res)
					printBreakdown(w, state, b)
				})
			}

			return printResult(c, res, func(w io.Writer) {
				printExtended(w, address, res)
			})
		},
	}
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:      "demo",
		Usage:     "Show the deterministic demo figures for a wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "sol-price",
				Usage:   "SOL price used to derive SOL figures",
				Value:   pnl.DefaultDemoSOLPrice,
				EnvVars: []string{"DEMO_SOL_PRICE"},
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)
			if err := solana.ValidateAddress(address); err != nil {
				return err
			}

			res := pnl.Demo(address, c.Float64("sol-price"))
			return printResult(c, res, func(w io.Writer) {
				printExtended(w, address, res)
			})
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check wallet address syntax",
		ArgsUsage: "WALLET_ADDRESS...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Also require the address to decode to a 32-byte public key",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("at least one wallet address is required")
			}

			type result struct {
				Address string `json:"address"`
				Valid   bool   `json:"valid"`
				Error   string `json:"error,omitempty"`
			}

			results := make([]result, 0, c.NArg())
			invalid := 0
			for _, address := range c.Args().Slice() {
				var err error
				if c.Bool("strict") {
					_, err = solana.ParsePublicKey(address)
				} else {
					err = solana.ValidateAddress(address)
				}
				r := result{Address: address, Valid: err == nil}
				if err != nil {
					r.Error = err.Error()
					invalid++
				}
				results = append(results, r)
			}

			if err := printResult(c, results, func(w io.Writer) {
				for _, r := range results {
					if r.Valid {
						fmt.Fprintf(w, "✓ %s\n", r.Address)
					} else {
						fmt.Fprintf(w, "✗ %s (%s)\n", r.Address, r.Error)
					}
				}
			}); err != nil {
				return err
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d addresses invalid", invalid, len(results))
			}
			return nil
		},
	}
}

func printExtended(w io.Writer, address string, res pnl.Result) {
	fmt.Fprintf(w, "Wallet:      %s\n", address)
	fmt.Fprintf(w, "PNL:         $%.2f (%.4f SOL)\n", res.PnlUSD, res.PnlSOL)
	fmt.Fprintf(w, "SOL spent:   %.4f\n", res.TotalBuySOL)
	fmt.Fprintf(w, "SOL received: %.4f\n", res.TotalSellSOL)
	fmt.Fprintf(w, "Trades:      %d\n", res.TradeCount)
	fmt.Fprintf(w, "Source:      %s\n", res.Source)
}

func printBreakdown(w io.Writer, state string, b tax.Breakdown) {
	if b.IsLoss {
		fmt.Fprintf(w, "Tax (%s):    none owed, net loss\n", state)
		return
	}
	fmt.Fprintf(w, "Federal tax: $%.2f (%.2f%%)\n", b.FederalTax, b.FederalRate*100)
	fmt.Fprintf(w, "State tax:   $%.2f (%.2f%%, %s)\n", b.StateTax, b.StateRate*100, state)
	fmt.Fprintf(w, "Total tax:   $%.2f\n", b.TotalTax)
}
