package publisher

import (
	"errors"
	"fmt"

	"rider-publisher/src/broker"
	"rider-publisher/src/config"
)

// ErrMalformedLine is returned for input that is not exactly "<name> <location>".
var ErrMalformedLine = errors.New("malformed input line")

// LineError reports a failure for a single interactive input line.
// The input loop keeps running after one.
type LineError struct {
	Line  int
	Input string
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Input, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts configuration and connection errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, config.ErrNoBrokers) || errors.Is(err, config.ErrInvalidBroker) {
		return &UserError{
			Message: "Invalid broker configuration",
			Hint:    "Set KAFKA_BROKERS or pass --brokers with a comma separated host:port list, e.g.\n  export KAFKA_BROKERS=localhost:9092",
			Err:     err,
		}
	}

	if errors.Is(err, broker.ErrConnect) {
		return &UserError{
			Message: "Could not connect to Kafka",
			Hint:    "Check that the brokers are reachable from this host and that the address and port are correct.",
			Err:     err,
		}
	}

	return err
}
