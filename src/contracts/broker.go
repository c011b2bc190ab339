package contracts

// BrokerConfig identifies this application to a Kafka cluster.
// It is built once at startup and not modified afterwards.
type BrokerConfig struct {
	// ApplicationID is sent as the Kafka client.id.
	ApplicationID string
	// Brokers is the ordered seed list of "host:port" addresses.
	Brokers []string
}

// Clone returns a copy that does not share the broker slice.
func (c BrokerConfig) Clone() BrokerConfig {
	brokers := make([]string, len(c.Brokers))
	copy(brokers, c.Brokers)
	return BrokerConfig{ApplicationID: c.ApplicationID, Brokers: brokers}
}
