package eventbus

import (
	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// EventBusBuilderOption is a functional option for configuring an EventBus.
type EventBusBuilderOption func(*eventBusImpl)

// WithLogger sets the logger used to report failing handlers.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - EventBusBuilderOption: option function to apply
func WithLogger(l logging.Logger) EventBusBuilderOption {
	return func(b *eventBusImpl) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics attaches a collector that counts publishes and handler failures per topic.
//
// Parameters:
//   - c: the collector, may be nil
//
// Returns:
//   - EventBusBuilderOption: option function to apply
func WithMetrics(c *profiler.Collector) EventBusBuilderOption {
	return func(b *eventBusImpl) {
		b.metrics = c
	}
}

type subscribeConfig struct {
	once     bool
	priority int
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscribeConfig)

// WithOnce removes the subscription before its first invocation.
func WithOnce() SubscribeOption {
	return func(c *subscribeConfig) {
		c.once = true
	}
}

// WithPriority orders the handler relative to others on the same topic. Higher runs first; the default is 0.
func WithPriority(p int) SubscribeOption {
	return func(c *subscribeConfig) {
		c.priority = p
	}
}
