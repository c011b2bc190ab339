package broker

import (
	"context"
	"fmt"
	"sync"

	"rider-publisher/src/contracts"
	"rider-publisher/src/logger"
)

// InMemoryProducer is a Producer that keeps sent messages in memory.
// It backs --dry-run and the publisher tests.
type InMemoryProducer struct {
	mu          sync.Mutex
	log         logger.Logger
	connected   bool
	connects    int
	disconnects int
	sent        []contracts.OutboundMessage

	// ConnectErr, when set, is returned (wrapped in ErrConnect) by Connect.
	ConnectErr error
	// SendHook, when set, runs before a message is recorded; a non-nil
	// error fails the send and the message is not recorded.
	SendHook func(msg contracts.OutboundMessage) error
}

// NewInMemoryProducer creates a new InMemoryProducer instance.
func NewInMemoryProducer() *InMemoryProducer {
	return &InMemoryProducer{log: logger.NewSilentLogger()}
}

// SetLogger enables logging of every sent record.
func (p *InMemoryProducer) SetLogger(log logger.Logger) {
	p.mu.Lock()
	p.log = log
	p.mu.Unlock()
}

func (p *InMemoryProducer) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.connects++
	if p.ConnectErr != nil {
		return fmt.Errorf("%w: %w", ErrConnect, p.ConnectErr)
	}
	p.connected = true
	return nil
}

func (p *InMemoryProducer) Send(ctx context.Context, msg contracts.OutboundMessage) error {
	p.mu.Lock()
	connected, hook, log := p.connected, p.SendHook, p.log
	p.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if hook != nil {
		if err := hook(msg); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.sent = append(p.sent, msg)
	p.mu.Unlock()

	log.Info("[InMemoryProducer] %s[%d] key=%s value=%s", msg.Topic, msg.PartitionOrDefault(), msg.Key, msg.Payload)
	return nil
}

func (p *InMemoryProducer) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil
	}
	p.connected = false
	p.disconnects++
	return nil
}

// Sent returns a copy of every message recorded so far, in send order.
func (p *InMemoryProducer) Sent() []contracts.OutboundMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]contracts.OutboundMessage, len(p.sent))
	copy(out, p.sent)
	return out
}

// Connects returns how many times Connect was called.
func (p *InMemoryProducer) Connects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects
}

// Disconnects returns how many times an open connection was closed.
func (p *InMemoryProducer) Disconnects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnects
}

// Connected reports whether the producer is currently connected.
func (p *InMemoryProducer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}
