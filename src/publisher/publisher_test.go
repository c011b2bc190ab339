package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"rider-publisher/src/broker"
	"rider-publisher/src/contracts"
	"rider-publisher/src/logger"
)

func decodeEvent(t *testing.T, msg contracts.OutboundMessage) contracts.LocationEvent {
	t.Helper()
	var event contracts.LocationEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatalf("payload %q is not valid JSON: %v", msg.Payload, err)
	}
	return event
}

// TestPublishOnce verifies one-shot mode sends exactly one default message.
func TestPublishOnce(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	pub := New(producer, logger.NewSilentLogger())

	event := contracts.LocationEvent{Name: DefaultRiderName, Location: DefaultLocation}
	if err := pub.PublishOnce(context.Background(), event); err != nil {
		t.Fatalf("PublishOnce failed: %v", err)
	}

	sent := producer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}

	msg := sent[0]
	if msg.Topic != "rider-updates" {
		t.Errorf("Topic = %q, want rider-updates", msg.Topic)
	}
	if msg.Key != "location-update" {
		t.Errorf("Key = %q, want location-update", msg.Key)
	}
	if msg.PartitionOrDefault() != 0 {
		t.Errorf("Partition = %d, want 0", msg.PartitionOrDefault())
	}
	if got := decodeEvent(t, msg); got.Name != "banti" || got.Location != "south" {
		t.Errorf("event = %+v, want banti/south", got)
	}

	if producer.Connects() != 1 || producer.Disconnects() != 1 {
		t.Errorf("connects=%d disconnects=%d, want 1/1", producer.Connects(), producer.Disconnects())
	}
	if pub.State() != StateTerminated {
		t.Errorf("State() = %v, want terminated", pub.State())
	}
}

// TestPublishOnceIgnoresLocationPartitioning verifies one-shot mode always uses partition 0.
func TestPublishOnceIgnoresLocationPartitioning(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	pub := New(producer, logger.NewSilentLogger())

	if err := pub.PublishOnce(context.Background(), contracts.LocationEvent{Name: "dev", Location: "north"}); err != nil {
		t.Fatalf("PublishOnce failed: %v", err)
	}
	if got := producer.Sent()[0].PartitionOrDefault(); got != 0 {
		t.Errorf("Partition = %d, want 0", got)
	}
}

func TestPublishOnceConnectFailure(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	producer.ConnectErr = errors.New("connection refused")
	pub := New(producer, logger.NewSilentLogger())

	err := pub.PublishOnce(context.Background(), contracts.LocationEvent{Name: "banti", Location: "south"})
	if !errors.Is(err, broker.ErrConnect) {
		t.Fatalf("PublishOnce() error = %v, want ErrConnect", err)
	}
	if len(producer.Sent()) != 0 {
		t.Error("no message should be sent after a failed connect")
	}
	if producer.Disconnects() != 0 {
		t.Error("disconnect should not run without a connection")
	}
	if pub.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", pub.State())
	}
}

func TestPublishOnceSendFailureStillDisconnects(t *testing.T) {
	rejected := errors.New("NOT_LEADER_FOR_PARTITION")
	producer := broker.NewInMemoryProducer()
	producer.SendHook = func(contracts.OutboundMessage) error { return rejected }
	pub := New(producer, logger.NewSilentLogger())

	err := pub.PublishOnce(context.Background(), contracts.LocationEvent{Name: "banti", Location: "south"})
	if !errors.Is(err, rejected) {
		t.Fatalf("PublishOnce() error = %v, want %v", err, rejected)
	}
	if producer.Disconnects() != 1 {
		t.Errorf("Disconnects() = %d, want 1", producer.Disconnects())
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    contracts.LocationEvent
		wantErr bool
	}{
		{"alice west", contracts.LocationEvent{Name: "alice", Location: "west"}, false},
		{"bob North", contracts.LocationEvent{Name: "bob", Location: "North"}, false},
		{"  carol\tsouth  ", contracts.LocationEvent{Name: "carol", Location: "south"}, false},
		{"charlie", contracts.LocationEvent{}, true},
		{"", contracts.LocationEvent{}, true},
		{"dave east extra", contracts.LocationEvent{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedLine) {
					t.Errorf("ParseLine(%q) error = %v, want ErrMalformedLine", tt.line, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine(%q) unexpected error: %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestRunInteractive(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	pub := New(producer, logger.NewSilentLogger())

	input := "alice west\nbob North\ncharlie\n\nerin NORTH\n"
	var out strings.Builder

	stats, err := pub.RunInteractive(context.Background(), strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("RunInteractive failed: %v", err)
	}

	want := []struct {
		name, location string
		partition      int32
	}{
		{"alice", "west", 0},
		{"bob", "North", 1},
		{"erin", "NORTH", 1},
	}

	sent := producer.Sent()
	if len(sent) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(sent))
	}
	for i, w := range want {
		event := decodeEvent(t, sent[i])
		if event.Name != w.name || event.Location != w.location {
			t.Errorf("message %d = %+v, want %s/%s", i, event, w.name, w.location)
		}
		if got := sent[i].PartitionOrDefault(); got != w.partition {
			t.Errorf("message %d partition = %d, want %d", i, got, w.partition)
		}
		if sent[i].Key != contracts.KeyLocationUpdate {
			t.Errorf("message %d key = %q", i, sent[i].Key)
		}
	}

	if stats != (Stats{Sent: 3, Malformed: 1}) {
		t.Errorf("Stats = %+v, want {Sent:3 Failed:0 Malformed:1}", stats)
	}

	output := out.String()
	if !strings.Contains(output, `line 3 "charlie"`) {
		t.Errorf("expected per-line error for charlie, got: %q", output)
	}
	// One prompt up front and one after each of the five lines.
	if got := strings.Count(output, Prompt); got != 6 {
		t.Errorf("prompt count = %d, want 6", got)
	}

	if producer.Disconnects() != 1 {
		t.Errorf("Disconnects() = %d, want 1", producer.Disconnects())
	}
	if pub.State() != StateTerminated {
		t.Errorf("State() = %v, want terminated", pub.State())
	}
}

func TestRunInteractiveSendFailureContinues(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	producer.SendHook = func(msg contracts.OutboundMessage) error {
		if strings.Contains(string(msg.Payload), `"bad"`) {
			return errors.New("broker rejected record")
		}
		return nil
	}
	pub := New(producer, logger.NewSilentLogger())

	var out strings.Builder
	stats, err := pub.RunInteractive(context.Background(), strings.NewReader("bad south\ngood south\n"), &out)
	if err != nil {
		t.Fatalf("RunInteractive failed: %v", err)
	}

	if stats.Sent != 1 || stats.Failed != 1 {
		t.Errorf("Stats = %+v, want 1 sent and 1 failed", stats)
	}
	if !strings.Contains(out.String(), "broker rejected record") {
		t.Errorf("expected send error in output, got %q", out.String())
	}
}

func TestRunInteractiveConnectFailure(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	producer.ConnectErr = errors.New("no route to host")
	pub := New(producer, logger.NewSilentLogger())

	_, err := pub.RunInteractive(context.Background(), strings.NewReader("alice west\n"), io.Discard)
	if !errors.Is(err, broker.ErrConnect) {
		t.Fatalf("RunInteractive() error = %v, want ErrConnect", err)
	}
	if len(producer.Sent()) != 0 {
		t.Error("no message should be sent after a failed connect")
	}
}

// TestRunInteractiveBoundedConcurrency verifies every line is sent with several sends in flight.
func TestRunInteractiveBoundedConcurrency(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	producer.SendHook = func(contracts.OutboundMessage) error {
		time.Sleep(time.Millisecond)
		return nil
	}
	pub := New(producer, logger.NewSilentLogger(), WithMaxInFlight(4))

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	var input strings.Builder
	for _, name := range names {
		input.WriteString(name + " north\n")
	}

	stats, err := pub.RunInteractive(context.Background(), strings.NewReader(input.String()), io.Discard)
	if err != nil {
		t.Fatalf("RunInteractive failed: %v", err)
	}
	if stats.Sent != len(names) {
		t.Errorf("Sent = %d, want %d", stats.Sent, len(names))
	}

	var got []string
	for _, msg := range producer.Sent() {
		got = append(got, decodeEvent(t, msg).Name)
	}
	sort.Strings(got)
	if strings.Join(got, "") != strings.Join(names, "") {
		t.Errorf("sent names = %v, want %v", got, names)
	}
	if producer.Disconnects() != 1 {
		t.Errorf("Disconnects() = %d, want 1", producer.Disconnects())
	}
}

// TestRunInteractiveCancel verifies cancellation disconnects even while input is still open.
func TestRunInteractiveCancel(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	pub := New(producer, logger.NewSilentLogger())

	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = pub.RunInteractive(ctx, reader, io.Discard)
	}()

	if _, err := writer.Write([]byte("alice west\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout - RunInteractive did not return after cancel")
	}

	if producer.Disconnects() != 1 {
		t.Errorf("Disconnects() = %d, want 1", producer.Disconnects())
	}
}

func TestSendLineWithTopic(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	pub := New(producer, logger.NewSilentLogger(), WithTopic("rider-updates-staging"))
	if err := pub.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer pub.Disconnect()

	event, partition, err := pub.SendLine(context.Background(), "bob North")
	if err != nil {
		t.Fatalf("SendLine failed: %v", err)
	}
	if event.Name != "bob" || partition != 1 {
		t.Errorf("SendLine() = %+v, %d", event, partition)
	}
	if got := producer.Sent()[0].Topic; got != "rider-updates-staging" {
		t.Errorf("Topic = %q, want rider-updates-staging", got)
	}
}

// TestDisconnectWaitsForInFlightSend verifies Disconnect does not close the
// producer while a send is still outstanding.
func TestDisconnectWaitsForInFlightSend(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	producer := broker.NewInMemoryProducer()
	producer.SendHook = func(contracts.OutboundMessage) error {
		close(entered)
		<-release
		return nil
	}
	pub := New(producer, logger.NewSilentLogger())
	if err := pub.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- pub.Publish(context.Background(), contracts.LocationEvent{Name: "alice", Location: "west"}, 0)
	}()
	<-entered

	if pub.State() != StateSending {
		t.Errorf("State() = %v, want sending", pub.State())
	}

	disconnected := make(chan error, 1)
	go func() { disconnected <- pub.Disconnect() }()

	select {
	case <-disconnected:
		t.Fatal("Disconnect returned while a send was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	if producer.Disconnects() != 0 {
		t.Fatal("producer disconnected while a send was in flight")
	}

	close(release)
	if err := <-sendErr; err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	select {
	case err := <-disconnected:
		if err != nil {
			t.Fatalf("Disconnect failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout - Disconnect did not return after the send finished")
	}

	if len(producer.Sent()) != 1 {
		t.Errorf("Sent() has %d messages, want 1", len(producer.Sent()))
	}
	if producer.Disconnects() != 1 || pub.State() != StateTerminated {
		t.Errorf("disconnects=%d state=%v, want 1/terminated", producer.Disconnects(), pub.State())
	}
}

func TestPublishAfterDisconnect(t *testing.T) {
	producer := broker.NewInMemoryProducer()
	pub := New(producer, logger.NewSilentLogger())
	_ = pub.Connect(context.Background())
	_ = pub.Disconnect()

	err := pub.Publish(context.Background(), contracts.LocationEvent{Name: "alice", Location: "west"}, 0)
	if !errors.Is(err, broker.ErrNotConnected) {
		t.Errorf("Publish() after Disconnect = %v, want ErrNotConnected", err)
	}
}

// TestRunInteractiveReportsErrorOnce verifies a malformed line is reported on out only.
func TestRunInteractiveReportsErrorOnce(t *testing.T) {
	var logged strings.Builder
	pub := New(broker.NewInMemoryProducer(), logger.NewWriterLogger(&logged, &logged))

	var out strings.Builder
	if _, err := pub.RunInteractive(context.Background(), strings.NewReader("charlie\n"), &out); err != nil {
		t.Fatalf("RunInteractive failed: %v", err)
	}

	if got := strings.Count(out.String(), `"charlie"`); got != 1 {
		t.Errorf("out mentions charlie %d times, want 1: %q", got, out.String())
	}
	if strings.Contains(logged.String(), "charlie") {
		t.Errorf("line error should not also be logged: %q", logged.String())
	}
}
