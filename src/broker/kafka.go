package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"rider-publisher/src/contracts"
	"rider-publisher/src/logger"
)

// KafkaProducer is a Producer backed by a franz-go client.
type KafkaProducer struct {
	opts []kgo.Opt
	log  logger.Logger

	mu     sync.RWMutex
	client *kgo.Client
}

func newKafkaProducer(opts []kgo.Opt, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{opts: opts, log: log}
}

// Connect creates the underlying client and pings the cluster so an
// unreachable broker fails here rather than on the first send.
func (p *KafkaProducer) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return nil
	}

	client, err := kgo.NewClient(p.opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	p.client = client
	return nil
}

// Send produces msg synchronously.
func (p *KafkaProducer) Send(ctx context.Context, msg contracts.OutboundMessage) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.client == nil {
		return ErrNotConnected
	}

	record := newRecord(ctx, msg)
	results := p.client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	if r := results[0].Record; r != nil {
		p.log.Debug("produced to %s[%d]@%d", r.Topic, r.Partition, r.Offset)
	}
	return nil
}

// Disconnect flushes buffered records and closes the client.
func (p *KafkaProducer) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}

	err := p.client.Flush(context.Background())
	p.client.Close()
	p.client = nil

	if err != nil {
		return fmt.Errorf("failed to flush producer: %w", err)
	}
	return nil
}

func newRecord(ctx context.Context, msg contracts.OutboundMessage) *kgo.Record {
	record := &kgo.Record{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Payload,
	}
	if msg.Partition != nil {
		record.Context = withPartitionHint(ctx, *msg.Partition)
	}
	return record
}
