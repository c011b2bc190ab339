package main

import (
	"io"

	"rider-publisher/src/broker"
	"rider-publisher/src/config"
	"rider-publisher/src/contracts"
	"rider-publisher/src/logger"
	"rider-publisher/src/publisher"
)

// flagOverrides are the persistent flag values that take precedence over env.
type flagOverrides struct {
	Brokers  string
	ClientID string
	Topic    string
}

// resolveConfig loads env configuration and applies flag overrides.
// Brokers are only required when records actually leave the process.
func resolveConfig(flags flagOverrides, requireBrokers bool) (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	if flags.Brokers != "" {
		cfg.Brokers = config.ParseBrokers(flags.Brokers)
	}
	if flags.ClientID != "" {
		cfg.ClientID = flags.ClientID
	}
	if flags.Topic != "" {
		cfg.Topic = flags.Topic
	}

	if requireBrokers {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newProducer builds a Kafka producer for cfg, or an in-memory one that
// logs records when dry is set.
func newProducer(cfg *config.Config, dry bool, log logger.Logger) (broker.Producer, error) {
	if dry {
		p := broker.NewInMemoryProducer()
		p.SetLogger(log)
		return p, nil
	}

	client, err := broker.NewClient(cfg.BrokerConfig(),
		broker.WithDialTimeout(cfg.DialTimeout),
		broker.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return client.Producer(), nil
}

// newPublisher wires configuration, producer and publisher from the current flags.
func newPublisher(log logger.Logger, opts ...publisher.Option) (*publisher.Publisher, error) {
	cfg, err := resolveConfig(flagOverrides{
		Brokers:  brokersFlag,
		ClientID: clientIDFlag,
		Topic:    topicFlag,
	}, !dryRun)
	if err != nil {
		return nil, err
	}

	producer, err := newProducer(cfg, dryRun, log)
	if err != nil {
		return nil, err
	}

	log.Debug("client %q, brokers %v, topic %s", cfg.ClientID, cfg.Brokers, cfg.Topic)
	return publisher.New(producer, log, append([]publisher.Option{publisher.WithTopic(cfg.Topic)}, opts...)...), nil
}

func riderEvent(name, location string) contracts.LocationEvent {
	return contracts.LocationEvent{Name: name, Location: location}
}

// newStderrLogger logs everything to w, keeping stdout free for prompts or protocol.
func newStderrLogger(w io.Writer) *logger.ConsoleLogger {
	log := logger.NewWriterLogger(w, w)
	log.SetVerbose(verbose)
	return log
}

// interactiveLogger picks the logger for the interactive command.
// The TUI owns the terminal, so it gets a silent logger.
func interactiveLogger(tui bool, errOut io.Writer) logger.Logger {
	if tui {
		return logger.NewSilentLogger()
	}
	return newStderrLogger(errOut)
}
