package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"

	natspkg "github.com/brojonat/solwallet-tax/service/nats"
)

func natsCommands() *cli.Command {
	natsURLFlag := &cli.StringFlag{
		Name:    "nats-url",
		Usage:   "NATS server URL",
		EnvVars: []string{"NATS_URL"},
		Value:   "nats://localhost:4222",
	}

	return &cli.Command{
		Name:  "nats",
		Usage: "Estimate event stream commands",
		Subcommands: []*cli.Command{
			{
				Name:      "subscribe",
				Usage:     "Stream estimate events, optionally for a single wallet",
				ArgsUsage: "[WALLET_ADDRESS]",
				Description: `Subscribe to estimate events published to NATS JetStream.

Events are published to the subject: estimates.{wallet_address}

Example:
  solwallet --json nats subscribe 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU`,
				Flags: []cli.Flag{
					natsURLFlag,
					&cli.StringFlag{
						Name:  "consumer-name",
						Usage: "Create a durable consumer with this name",
					},
				},
				Action: func(c *cli.Context) error {
					subject := natspkg.StreamSubjects
					if c.NArg() > 0 {
						subject = natspkg.Subject(c.Args().Get(0))
					}
					return streamEstimates(c, subject)
				},
			},
			{
				Name:  "inspect-stream",
				Usage: "Inspect the ESTIMATES JetStream stream",
				Flags: []cli.Flag{natsURLFlag},
				Action: func(c *cli.Context) error {
					nc, err := nats.Connect(c.String("nats-url"))
					if err != nil {
						return fmt.Errorf("failed to connect to NATS: %w", err)
					}
					defer nc.Close()

					js, err := jetstream.New(nc)
					if err != nil {
						return fmt.Errorf("failed to create JetStream context: %w", err)
					}

					stream, err := js.Stream(context.Background(), natspkg.StreamName)
					if err != nil {
						return fmt.Errorf("failed to get stream: %w", err)
					}
					info, err := stream.Info(context.Background())
					if err != nil {
						return fmt.Errorf("failed to get stream info: %w", err)
					}

					return printResult(c, info, func(w io.Writer) {
						fmt.Fprintf(w, "Stream: %s\n", info.Config.Name)
						fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
						fmt.Fprintf(w, "Description:  %s\n", info.Config.Description)
						fmt.Fprintf(w, "Subjects:     %v\n", info.Config.Subjects)
						fmt.Fprintf(w, "Messages:     %d\n", info.State.Msgs)
						fmt.Fprintf(w, "Bytes:        %d\n", info.State.Bytes)
						fmt.Fprintf(w, "Consumers:    %d\n", info.State.Consumers)
						fmt.Fprintf(w, "Max Age:      %s\n", info.Config.MaxAge)
					})
				},
			},
		},
	}
}

// streamEstimates prints estimate events on subject until interrupted.
func streamEstimates(c *cli.Context, subject string) error {
	natsURL := c.String("nats-url")
	consumerName := c.String("consumer-name")
	jsonOutput := c.Bool("json")
	w := c.App.Writer

	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if consumerName != "" {
		consumerConfig.Durable = consumerName
		consumerConfig.Name = consumerName
	}

	cons, err := js.CreateOrUpdateConsumer(context.Background(), natspkg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	if !jsonOutput {
		fmt.Fprintf(w, "📡 Subscribing to: %s\n", subject)
		fmt.Fprintf(w, "   NATS: %s\n\nWaiting for estimates... (Ctrl-C to exit)\n\n", natsURL)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgChan := make(chan jetstream.Msg, 10)
	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer consumeCtx.Stop()

	count := 0
	for {
		select {
		case msg := <-msgChan:
			var event natspkg.EstimateEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
				msg.Ack()
				continue
			}
			count++

			if jsonOutput {
				data, _ := json.Marshal(event)
				fmt.Fprintln(w, string(data))
			} else {
				fmt.Fprintf(w, "Estimate #%d  %s\n", count, event.ID)
				fmt.Fprintf(w, "  Wallet:     %s (%s, %s)\n", event.WalletAddress, event.State, event.FilingStatus)
				fmt.Fprintf(w, "  PNL:        $%.2f via %s\n", event.PnlUSD, event.DataSource)
				fmt.Fprintf(w, "  Total tax:  $%.2f\n", event.TotalTax)
				fmt.Fprintf(w, "  Published:  %s\n\n", event.PublishedAt.Format(time.RFC3339))
			}
			msg.Ack()

		case <-sigChan:
			if !jsonOutput {
				fmt.Fprintf(w, "\n✅ Received %d estimates\n", count)
			}
			return nil
		}
	}
}
