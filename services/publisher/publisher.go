package publisher

// Publisher represents a sink for scraped offer feeds
type Publisher interface {
	// Publish publishes a message under the given key
	Publish(key string, message []byte) error

	// Close closes the publisher
	Close() error
}
