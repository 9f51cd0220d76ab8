package events

// Message is one spin event received from the bus.
type Message struct {
	Topic          string
	OrganizationID string
	Data           []byte // JSON payload
}

// Subscriber receives spin events from the bus.
type Subscriber interface {
	// Subscribe delivers messages whose subject matches pattern. The
	// returned cancel function unsubscribes and closes the channel.
	Subscribe(pattern string) (<-chan Message, func(), error)
	Close() error
}
