// Package contracts defines the message types published to the rider-updates topic.
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Topic and key used for every rider location update.
const (
	// TopicRiderUpdates receives one record per location change.
	TopicRiderUpdates = "rider-updates"

	// KeyLocationUpdate is the fixed record key for location updates.
	KeyLocationUpdate = "location-update"
)

// Partitions used by the publisher. The topic is provisioned with three
// partitions; only the first two are ever targeted.
const (
	PartitionDefault int32 = 0
	PartitionNorth   int32 = 1
)

// ErrEmptyField is returned when a location event is missing its name or location.
var ErrEmptyField = errors.New("empty field")

// LocationEvent is the JSON payload of a rider location update.
type LocationEvent struct {
	// Rider name as typed by the operator.
	Name string `json:"name"`
	// Free-form location label (e.g. "north", "south").
	Location string `json:"location"`
}

// Validate reports whether both fields are populated.
func (e LocationEvent) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: name", ErrEmptyField)
	}
	if e.Location == "" {
		return fmt.Errorf("%w: location", ErrEmptyField)
	}
	return nil
}

// OutboundMessage is a single record ready to hand to a producer.
type OutboundMessage struct {
	Topic string
	// Partition pins the record to one partition. Nil lets the producer
	// pick a partition from the key.
	Partition *int32
	Key       string
	Payload   []byte
}

// PartitionFor picks the partition for a location. "north" in any case goes
// to PartitionNorth, everything else to PartitionDefault.
func PartitionFor(location string) int32 {
	if strings.EqualFold(location, "north") {
		return PartitionNorth
	}
	return PartitionDefault
}

// NewLocationMessage validates and serializes event into a record for topic,
// pinned to partition.
func NewLocationMessage(topic string, event LocationEvent, partition int32) (OutboundMessage, error) {
	if err := event.Validate(); err != nil {
		return OutboundMessage{}, err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return OutboundMessage{}, fmt.Errorf("failed to marshal location event: %w", err)
	}

	if topic == "" {
		topic = TopicRiderUpdates
	}

	return OutboundMessage{
		Topic:     topic,
		Partition: &partition,
		Key:       KeyLocationUpdate,
		Payload:   payload,
	}, nil
}

// PartitionOrDefault returns the pinned partition, or -1 when unpinned.
func (m OutboundMessage) PartitionOrDefault() int32 {
	if m.Partition == nil {
		return -1
	}
	return *m.Partition
}
