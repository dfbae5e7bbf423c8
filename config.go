package smalloc

import (
	"io"
	"log/slog"

	"github.com/rcrowley/go-metrics"
)

// DefaultConfig provides a Config with default settings.
var DefaultConfig = NewConfig()

// Config is used by New when creating an allocator.
// The allocation policy itself (alignment, largest pooled size, batch
// and growth factors) is fixed, see the constants in size_class.go.
// Only the collaborators of the allocator are configurable
type Config struct {
	// Name prefixes every metric registered by the allocator
	Name string

	// System is the memory source for slabs and for requests larger than MaxBytes.
	// When nil, New creates a heap system and releases it again on Close
	System System

	// OOMHandler is invoked when the system fails to provide memory and
	// no other strategy is left. When nil, DefaultOOMHandler is used
	OOMHandler OOMHandler

	// Logger receives growth, cannibalization and out-of-memory events.
	// When nil, all log output is discarded
	Logger *slog.Logger

	// Registry receives the allocator's counters and gauges.
	// When nil, a private registry is created
	Registry metrics.Registry
}

// NewConfig returns a new allocator configuration with default settings
func NewConfig() Config {
	return Config{
		Name: "smalloc",
	}
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "smalloc"
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Registry == nil {
		c.Registry = metrics.NewRegistry()
	}
	if c.OOMHandler == nil {
		c.OOMHandler = DefaultOOMHandler(c.Logger)
	}
	return c
}
