package publisher

import "context"

// Publisher hands approved property payloads to the downstream portal
type Publisher interface {
	// PublishProperty publishes one approved property payload
	PublishProperty(ctx context.Context, platform string, payload []byte) error

	// Close closes the publisher connection
	Close() error
}
