// Package publisher drives a producer through its connect/send/disconnect
// lifecycle to publish rider location updates.
package publisher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"rider-publisher/src/broker"
	"rider-publisher/src/contracts"
	"rider-publisher/src/logger"
)

// Prompt is written before each interactive input line.
const Prompt = ">/"

// Rider published by one-shot mode unless overridden.
const (
	DefaultRiderName = "banti"
	DefaultLocation  = "south"
)

// Stats counts the outcome of interactive input lines.
type Stats struct {
	Sent      int
	Failed    int
	Malformed int
}

// Publisher owns a producer handle and publishes location events through it.
type Publisher struct {
	producer    broker.Producer
	log         logger.Logger
	topic       string
	maxInFlight int

	mu       sync.Mutex
	idle     *sync.Cond // signalled when inFlight drops to zero
	state    State
	inFlight int
	stats    Stats
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(p *Publisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// WithMaxInFlight allows up to n concurrent sends in interactive mode.
// With n > 1 records may reach the broker out of input order.
func WithMaxInFlight(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.maxInFlight = n
		}
	}
}

// New creates a Publisher around producer. The producer is not connected yet.
func New(producer broker.Producer, log logger.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		producer:    producer,
		log:         log,
		topic:       contracts.TopicRiderUpdates,
		maxInFlight: 1,
	}
	p.idle = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// MaxInFlight returns the concurrent send limit.
func (p *Publisher) MaxInFlight() int {
	return p.maxInFlight
}

// State returns the current lifecycle state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateConnected && p.inFlight > 0 {
		return StateSending
	}
	return p.state
}

// Stats returns the interactive counters accumulated so far.
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Connect opens the producer connection.
func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateConnected {
		p.mu.Unlock()
		return nil
	}
	p.state = StateConnecting
	p.mu.Unlock()

	p.log.Info("Connecting producer")
	if err := p.producer.Connect(ctx); err != nil {
		p.setState(StateDisconnected)
		return err
	}

	p.setState(StateConnected)
	p.log.Info("Producer connected successfully")
	return nil
}

// Disconnect waits for in-flight sends and closes the producer connection.
// Only the first call after a successful Connect reaches the producer.
func (p *Publisher) Disconnect() error {
	p.mu.Lock()
	if p.state != StateConnected {
		p.mu.Unlock()
		return nil
	}
	for p.inFlight > 0 {
		p.idle.Wait()
	}
	if p.state != StateConnected {
		p.mu.Unlock()
		return nil
	}
	p.state = StateDisconnecting
	p.mu.Unlock()

	err := p.producer.Disconnect()
	p.setState(StateTerminated)
	if err != nil {
		return fmt.Errorf("failed to disconnect producer: %w", err)
	}
	p.log.Info("Producer disconnected")
	return nil
}

// Publish sends event to the configured topic, pinned to partition.
func (p *Publisher) Publish(ctx context.Context, event contracts.LocationEvent, partition int32) error {
	msg, err := contracts.NewLocationMessage(p.topic, event, partition)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.state == StateDisconnecting || p.state == StateTerminated {
		p.mu.Unlock()
		return broker.ErrNotConnected
	}
	p.inFlight++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		if p.inFlight == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}()

	if err := p.producer.Send(ctx, msg); err != nil {
		return err
	}
	p.log.Debug("sent %s to %s[%d]", msg.Payload, msg.Topic, partition)
	return nil
}

// PublishOnce connects, sends event to the default partition and disconnects.
// The disconnect is attempted even when the send fails.
func (p *Publisher) PublishOnce(ctx context.Context, event contracts.LocationEvent) error {
	if err := p.Connect(ctx); err != nil {
		return err
	}

	sendErr := p.Publish(ctx, event, contracts.PartitionDefault)
	disconnectErr := p.Disconnect()

	if sendErr != nil {
		return fmt.Errorf("failed to publish location: %w", sendErr)
	}
	return disconnectErr
}

// ParseLine splits "<name> <location>" on whitespace.
func ParseLine(line string) (contracts.LocationEvent, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return contracts.LocationEvent{}, fmt.Errorf("%w: expected \"<name> <location>\", got %d field(s)", ErrMalformedLine, len(fields))
	}
	return contracts.LocationEvent{Name: fields[0], Location: fields[1]}, nil
}

// SendLine parses one input line and publishes it to the partition chosen
// by its location. It returns the chosen partition.
func (p *Publisher) SendLine(ctx context.Context, line string) (contracts.LocationEvent, int32, error) {
	event, err := ParseLine(line)
	if err != nil {
		p.count(func(s *Stats) { s.Malformed++ })
		return event, 0, err
	}

	partition := contracts.PartitionFor(event.Location)
	if err := p.Publish(ctx, event, partition); err != nil {
		p.count(func(s *Stats) { s.Failed++ })
		return event, partition, err
	}

	p.count(func(s *Stats) { s.Sent++ })
	return event, partition, nil
}

// RunInteractive connects once, publishes one event per line read from in
// and disconnects when in is exhausted or ctx is cancelled. Per-line errors
// are written to out and do not stop the loop; only a connection failure
// is returned.
func (p *Publisher) RunInteractive(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	if err := p.Connect(ctx); err != nil {
		return p.Stats(), err
	}

	lines, readErr := readLines(ctx, in)
	// Sends already accepted finish even if ctx is cancelled mid-flight.
	sendCtx := context.WithoutCancel(ctx)

	var outMu sync.Mutex
	report := func(format string, args ...interface{}) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(out, format, args...)
	}

	var g errgroup.Group
	g.SetLimit(p.maxInFlight)

	handle := func(n int, line string) {
		event, partition, err := p.SendLine(sendCtx, line)
		if err != nil {
			report("error: %v\n", &LineError{Line: n, Input: line, Err: err})
			return
		}
		p.log.Debug("line %d: %s -> partition %d", n, event.Name, partition)
	}

	report("%s", Prompt)
	n := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			n++
			if strings.TrimSpace(line) != "" {
				if p.maxInFlight == 1 {
					handle(n, line)
				} else {
					lineNo := n
					g.Go(func() error {
						handle(lineNo, line)
						return nil
					})
				}
			}
			report("%s", Prompt)
		}
	}

	_ = g.Wait()
	report("\n")

	// The reader may still be blocked on in after cancellation.
	select {
	case err := <-readErr:
		if err != nil {
			p.log.Error("failed to read input: %v", err)
		}
	default:
	}

	if err := p.Disconnect(); err != nil {
		return p.Stats(), err
	}
	return p.Stats(), nil
}

func (p *Publisher) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Publisher) count(fn func(*Stats)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}

// readLines feeds lines from in to the returned channel until EOF, a read
// error or ctx cancellation. The line channel is closed when reading stops;
// the error channel then yields the scanner error, if any.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}
