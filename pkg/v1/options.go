package v1

import (
	"context"
	"time"
)

// EmbedFunc turns text into a fixed-length vector.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	capacity  int
	dataDir   string
	timeout   time.Duration
	embed     EmbedFunc
	dimension int
}

// WithCapacity sets the maximum number of memories kept before the
// oldest are evicted.
func WithCapacity(capacity int) Option {
	return func(c *clientConfig) {
		c.capacity = capacity
	}
}

// WithDataDir enables snapshot persistence and the domain blocklist
// under the given directory. The directory must have been initialized
// (for example via `retrace init`).
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithTimeout bounds provider calls made on behalf of the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithEmbedder plugs in an embedding provider. Without one, captures
// are stored without embeddings and similarity search fails softly.
func WithEmbedder(embed EmbedFunc, dimension int) Option {
	return func(c *clientConfig) {
		c.embed = embed
		c.dimension = dimension
	}
}
