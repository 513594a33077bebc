package bridge

import (
	"net/http"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// BridgeBuilderOption is a functional option for configuring a Bridge.
type BridgeBuilderOption func(*bridgeImpl)

// WithExcludedTopics replaces the set of topics that are not forwarded.
//
// Parameters:
//   - topics: topics to skip, none to forward everything
//
// Returns:
//   - BridgeBuilderOption: option function to apply
func WithExcludedTopics(topics ...string) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.excluded = make(map[string]bool, len(topics))
		for _, t := range topics {
			b.excluded[t] = true
		}
	}
}

// WithBufferSize sets how many messages may queue per client before new ones are dropped.
func WithBufferSize(n int) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithCheckOrigin sets the origin check used during the websocket upgrade.
// The default accepts only same-origin requests.
//
// Parameters:
//   - check: returns true if the request origin is acceptable
//
// Returns:
//   - BridgeBuilderOption: option function to apply
func WithCheckOrigin(check func(r *http.Request) bool) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.upgrader.CheckOrigin = check
	}
}

// WithCommandHandler sets the handler for commands read from clients.
func WithCommandHandler(h CommandHandler) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.commands = h
	}
}

// WithLogger sets the bridge logger.
func WithLogger(l logging.Logger) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics attaches a collector exporting the connected client count.
func WithMetrics(c *profiler.Collector) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.metrics = c
	}
}
