// Package main provides the rider-publisher CLI.
// It publishes rider location updates to Kafka once, interactively from
// stdin or a terminal UI, or on demand as MCP tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rider-publisher/src/logger"
	"rider-publisher/src/mcp"
	"rider-publisher/src/publisher"
	"rider-publisher/src/tui"
)

var (
	// Persistent flags; empty values fall back to the environment
	brokersFlag  string
	clientIDFlag string
	topicFlag    string
	dryRun       bool
	verbose      bool

	// once flags
	riderName     string
	riderLocation string

	// interactive flags
	useTUI      bool
	maxInFlight int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rider-publisher",
	Short: "Publish rider location updates to Kafka",
	Long: `rider-publisher sends JSON rider location events to the rider-updates topic.

Brokers come from KAFKA_BROKERS (comma separated host:port) or --brokers.
Riders whose location is "north" (any case) go to partition 1, everyone
else to partition 0.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Publish a single location update and exit",
	Long: `Connects, publishes one location update to partition 0 and disconnects.

Example:
  rider-publisher once --brokers localhost:9092
  rider-publisher once --name banti --location south`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newConsoleLogger()

		ctx, cancel := signalContext(log)
		defer cancel()

		pub, err := newPublisher(log)
		if err != nil {
			return err
		}

		return pub.PublishOnce(ctx, riderEvent(riderName, riderLocation))
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Publish one location update per line read from stdin",
	Long: `Reads "<name> <location>" lines from stdin and publishes each one.
A line must hold exactly two whitespace separated words; lines with fewer or
more words are reported as malformed and skipped. Closing stdin (Ctrl+D)
disconnects and exits.

Prompts and per-line errors go to stdout, logs go to stderr.

Example:
  rider-publisher interactive
  >/alice west
  >/bob North`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := interactiveLogger(useTUI, cmd.ErrOrStderr())

		ctx, cancel := signalContext(log)
		defer cancel()

		pub, err := newPublisher(log, publisher.WithMaxInFlight(maxInFlight))
		if err != nil {
			return err
		}

		if useTUI {
			return tui.Start(ctx, pub)
		}

		stats, err := pub.RunInteractive(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.Info("Sent %d, failed %d, malformed %d", stats.Sent, stats.Failed, stats.Malformed)
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve publish_location as an MCP tool over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; logs go to stderr
		log := newStderrLogger(os.Stderr)

		ctx, cancel := signalContext(log)
		defer cancel()

		pub, err := newPublisher(log)
		if err != nil {
			return err
		}
		if err := pub.Connect(ctx); err != nil {
			return err
		}
		defer pub.Disconnect()

		return mcp.NewServer(pub).Run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&brokersFlag, "brokers", "", "comma separated host:port list (overrides KAFKA_BROKERS)")
	rootCmd.PersistentFlags().StringVar(&clientIDFlag, "client-id", "", "Kafka client id (overrides KAFKA_CLIENT_ID)")
	rootCmd.PersistentFlags().StringVar(&topicFlag, "topic", "", "destination topic (overrides RIDER_TOPIC)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print records instead of sending them to Kafka")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	onceCmd.Flags().StringVar(&riderName, "name", publisher.DefaultRiderName, "rider name")
	onceCmd.Flags().StringVar(&riderLocation, "location", publisher.DefaultLocation, "rider location")

	interactiveCmd.Flags().BoolVar(&useTUI, "tui", false, "use the terminal UI instead of plain stdin")
	interactiveCmd.Flags().IntVar(&maxInFlight, "max-in-flight", 1, "max concurrent sends; above 1 records may arrive out of input order")

	rootCmd.AddCommand(onceCmd, interactiveCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, publisher.WrapError(err))
		os.Exit(1)
	}
}

func newConsoleLogger() *logger.ConsoleLogger {
	log := logger.NewConsoleLogger()
	log.SetVerbose(verbose)
	return log
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Info("Shutdown signal received, disconnecting...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
