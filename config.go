package router

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Default limits, used when a RouterConfig field is left at its zero value.
const (
	DefaultMaxSegmentSize    = 1 << 20 // 1 MiB per segment
	DefaultMaxSegmentCount   = 8
	DefaultMaxConnections    = 10000
	DefaultMaxReadLen        = 256
	DefaultMaxRetainedTopics = 100000
)

// RouterConfig is the startup configuration for a Router.
//
// It is the YAML-loadable counterpart of the teacher's clientOptions: a
// plain struct built by functional options rather than a builder, with a
// 1:1 field-level doc comment density matching what clientOptions already
// shows.
type RouterConfig struct {
	// MaxSegmentSize bounds a commit log segment's size in bytes before it
	// is sealed and a new active segment is opened.
	MaxSegmentSize int `yaml:"max_segment_size"`

	// MaxSegmentCount bounds how many segments of one filter's commit log
	// may be resident at once; the oldest sealed segment is evicted past
	// this count.
	MaxSegmentCount int `yaml:"max_segment_count"`

	// MaxConnections bounds concurrent subscriber connections the router
	// will track read markers and ack logs for.
	MaxConnections int `yaml:"max_connections"`

	// MaxReadLen bounds how many items a single readv call may return.
	MaxReadLen int `yaml:"max_read_len"`

	// InstantAck disables the deferred-ack machinery: PubAcks release
	// immediately on append instead of waiting for subscriber progress.
	InstantAck bool `yaml:"instant_ack"`

	// InitializedFilters pre-warms the data log with these filters on
	// startup, before any subscriber registers.
	InitializedFilters []Filter `yaml:"initialized_filters"`

	// MaxRetainedTopics bounds how many distinct topics may hold a retained
	// publish at once. Overwriting an already-retained topic never counts
	// against the quota; only a new topic can exceed it.
	MaxRetainedTopics int `yaml:"max_retained_topics"`

	// Logger receives structured tracing for filter creation, retained-
	// message replay, publish fan-out and waiter wake. Segment eviction and
	// puback release are not logged. Defaults to a discarding logger.
	Logger zerolog.Logger `yaml:"-"`
}

// Option configures a RouterConfig, following the teacher's functional
// options idiom (options.go's Option/With* pattern) rather than a builder.
type Option func(*RouterConfig)

// WithMaxSegmentSize sets the per-segment byte bound (default 1 MiB).
func WithMaxSegmentSize(n int) Option {
	return func(c *RouterConfig) { c.MaxSegmentSize = n }
}

// WithMaxSegmentCount sets how many segments may be resident per filter
// before eviction (default 8).
func WithMaxSegmentCount(n int) Option {
	return func(c *RouterConfig) { c.MaxSegmentCount = n }
}

// WithMaxConnections sets the concurrent-connection bound (default 10000).
func WithMaxConnections(n int) Option {
	return func(c *RouterConfig) { c.MaxConnections = n }
}

// WithMaxReadLen sets the per-readv item bound (default 256).
func WithMaxReadLen(n int) Option {
	return func(c *RouterConfig) { c.MaxReadLen = n }
}

// WithInstantAck disables the deferred-ack scheme; PubAcks release at
// append time rather than waiting for subscriber read-marker progress.
func WithInstantAck(enable bool) Option {
	return func(c *RouterConfig) { c.InstantAck = enable }
}

// WithInitializedFilters pre-registers the given filters in the data log
// on startup, before any subscriber connects.
func WithInitializedFilters(filters ...Filter) Option {
	return func(c *RouterConfig) {
		c.InitializedFilters = append(c.InitializedFilters, filters...)
	}
}

// WithMaxRetainedTopics sets the bound on distinct retained topics
// (default 100000).
func WithMaxRetainedTopics(n int) Option {
	return func(c *RouterConfig) { c.MaxRetainedTopics = n }
}

// WithRouterLogger sets the structured logger used for state-transition
// tracing. If not provided, NewDiscardLogger() is used.
func WithRouterLogger(log zerolog.Logger) Option {
	return func(c *RouterConfig) { c.Logger = log }
}

// defaultConfig returns a RouterConfig with every limit at its documented
// default, mirroring the teacher's defaultOptions().
func defaultConfig() *RouterConfig {
	return &RouterConfig{
		MaxSegmentSize:    DefaultMaxSegmentSize,
		MaxSegmentCount:   DefaultMaxSegmentCount,
		MaxConnections:    DefaultMaxConnections,
		MaxReadLen:        DefaultMaxReadLen,
		MaxRetainedTopics: DefaultMaxRetainedTopics,
		Logger:            NewDiscardLogger(),
	}
}

// NewRouterConfig builds a RouterConfig from defaults plus the given
// options, the same two-step (defaults, then apply options) construction
// the teacher's Dial() performs over defaultOptions().
func NewRouterConfig(opts ...Option) *RouterConfig {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// LoadRouterConfig reads a YAML file into a RouterConfig, applying the same
// defaults NewRouterConfig does for any field the file omits. Adapted from
// the teacher's FileStore (NewFileStore's directory/permissions setup) —
// repurposed here from per-client session persistence to a one-shot startup
// configuration read rather than durable per-connection storage.
func LoadRouterConfig(path string, opts ...Option) (*RouterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read router config: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse router config: %w", err)
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg, nil
}
