package eventbus

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// Event is a single published notification.
type Event struct {
	Topic   string
	Payload any
}

// Handler reacts to an event. A returned error is logged and counted but never
// reaches the publisher.
type Handler func(evt Event) error

type subscription struct {
	id       string
	topic    string
	handler  Handler
	priority int
	once     bool
	seq      uint64
}

type eventBusImpl struct {
	mu *sync.Mutex

	logger  logging.Logger
	metrics *profiler.Collector

	seq     uint64
	byID    map[string]*subscription
	byTopic map[string][]*subscription
}

// EventBus is the in-process publish/subscribe hub that connects the engine components.
// Dispatch is synchronous on the publishing goroutine.
type EventBus interface {
	// Subscribe registers a handler for a topic. Use TopicAll to receive every event.
	//
	// Parameters:
	//   - topic: the topic to listen on
	//   - handler: the function invoked for each matching event
	//   - options: WithOnce, WithPriority
	//
	// Returns:
	//   - string: the subscription id used with Unsubscribe
	Subscribe(topic string, handler Handler, options ...SubscribeOption) string

	// Unsubscribe removes a subscription.
	//
	// Parameters:
	//   - id: the id returned by Subscribe
	//
	// Returns:
	//   - bool: true if the subscription existed
	Unsubscribe(id string) bool

	// Publish delivers the payload to every handler subscribed to the topic,
	// highest priority first and in registration order for equal priorities.
	// Handler panics and errors are recovered and logged; they never stop the
	// remaining handlers. Publishing from inside a handler is allowed.
	//
	// Parameters:
	//   - topic: the event topic
	//   - payload: the event payload
	Publish(topic string, payload any)

	// SubscriberCount returns the number of live subscriptions for a topic,
	// excluding TopicAll subscribers.
	//
	// Parameters:
	//   - topic: the topic to count
	//
	// Returns:
	//   - int: the number of subscriptions
	SubscriberCount(topic string) int
}

var _ EventBus = &eventBusImpl{}

// NewEventBus creates an empty EventBus.
//
// Parameters:
//   - options: functional options to configure the bus
//
// Returns:
//   - EventBus: the newly created bus
func NewEventBus(options ...EventBusBuilderOption) EventBus {
	b := &eventBusImpl{
		mu:      &sync.Mutex{},
		logger:  logging.Noop(),
		byID:    make(map[string]*subscription),
		byTopic: make(map[string][]*subscription),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *eventBusImpl) Subscribe(topic string, handler Handler, options ...SubscribeOption) string {
	cfg := subscribeConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub := &subscription{
		id:       uuid.NewString(),
		topic:    topic,
		handler:  handler,
		priority: cfg.priority,
		once:     cfg.once,
		seq:      b.seq,
	}
	b.byID[sub.id] = sub
	b.byTopic[topic] = append(b.byTopic[topic], sub)
	return sub.id
}

func (b *eventBusImpl) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(id)
}

func (b *eventBusImpl) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byTopic[topic])
}

func (b *eventBusImpl) Publish(topic string, payload any) {
	b.metrics.EventPublished(topic)

	b.mu.Lock()
	matched := make([]*subscription, 0, len(b.byTopic[topic])+len(b.byTopic[TopicAll]))
	matched = append(matched, b.byTopic[topic]...)
	if topic != TopicAll {
		matched = append(matched, b.byTopic[TopicAll]...)
	}
	// Once handlers are claimed here so a nested publish cannot run them twice.
	for _, sub := range matched {
		if sub.once {
			b.removeLocked(sub.id)
		}
	}
	b.mu.Unlock()

	if len(matched) == 0 {
		return
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].priority != matched[j].priority {
			return matched[i].priority > matched[j].priority
		}
		return matched[i].seq < matched[j].seq
	})

	evt := Event{Topic: topic, Payload: payload}
	for _, sub := range matched {
		if !sub.once && !b.active(sub.id) {
			continue
		}
		if err := b.invoke(sub, evt); err != nil {
			b.metrics.HandlerFailed(topic)
			b.logger.Warn(context.Background(), "event handler failed",
				logging.String("topic", topic),
				logging.String("subscription", sub.id),
				logging.Err(err),
			)
		}
	}
}

// invoke runs one handler, converting a panic into an error.
func (b *eventBusImpl) invoke(sub *subscription, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	if sub.handler == nil {
		return nil
	}
	return sub.handler(evt)
}

// active reports whether a subscription is still registered. Handlers earlier
// in a dispatch may unsubscribe later ones.
func (b *eventBusImpl) active(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.byID[id]
	return ok
}

// removeLocked drops a subscription from both indexes.
// Caller must hold the mutex.
func (b *eventBusImpl) removeLocked(id string) bool {
	sub, ok := b.byID[id]
	if !ok {
		return false
	}
	delete(b.byID, id)

	subs := b.byTopic[sub.topic]
	for i, s := range subs {
		if s.id == id {
			b.byTopic[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.byTopic[sub.topic]) == 0 {
		delete(b.byTopic, sub.topic)
	}
	return true
}
