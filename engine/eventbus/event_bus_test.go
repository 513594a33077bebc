package eventbus

import (
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

func record(order *[]string, name string) Handler {
	return func(Event) error {
		*order = append(*order, name)
		return nil
	}
}

func TestPublish_PriorityThenRegistrationOrder(t *testing.T) {
	bus := NewEventBus(WithLogger(logging.Noop()))
	var order []string

	bus.Subscribe("t", record(&order, "low-a"), WithPriority(0))
	bus.Subscribe("t", record(&order, "high"), WithPriority(10))
	bus.Subscribe("t", record(&order, "low-b"), WithPriority(0))
	bus.Subscribe("t", record(&order, "mid"), WithPriority(5))
	bus.Subscribe("other", record(&order, "other"))

	bus.Publish("t", nil)

	want := []string{"high", "mid", "low-a", "low-b"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestPublish_PanicAndErrorIsolated(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := profiler.NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	bus := NewEventBus(WithMetrics(metrics))
	var order []string

	bus.Subscribe("t", func(Event) error { panic("boom") }, WithPriority(3))
	bus.Subscribe("t", func(Event) error { return errors.New("nope") }, WithPriority(2))
	bus.Subscribe("t", record(&order, "survivor"), WithPriority(1))

	bus.Publish("t", 42)

	if !reflect.DeepEqual(order, []string{"survivor"}) {
		t.Fatalf("later handlers must still run, got %v", order)
	}
	if got := testutil.ToFloat64(metrics.HandlerFailures.WithLabelValues("t")); got != 2 {
		t.Errorf("handler failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("t")); got != 1 {
		t.Errorf("published = %v, want 1", got)
	}
}

func TestOnce_RemovedBeforeInvocationEvenWhenPanicking(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	bus.Subscribe("t", func(Event) error {
		calls++
		panic("once and done")
	}, WithOnce())

	bus.Publish("t", nil)
	bus.Publish("t", nil)

	if calls != 1 {
		t.Fatalf("once handler ran %d times, want 1", calls)
	}
	if n := bus.SubscriberCount("t"); n != 0 {
		t.Fatalf("once handler still registered (%d subscribers)", n)
	}
}

func TestOnce_NotRerunByReentrantPublish(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	bus.Subscribe("t", func(Event) error {
		calls++
		bus.Publish("t", nil)
		return nil
	}, WithOnce())

	bus.Publish("t", nil)
	if calls != 1 {
		t.Fatalf("once handler ran %d times, want 1", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	var order []string
	id := bus.Subscribe("t", record(&order, "gone"))

	if !bus.Unsubscribe(id) {
		t.Fatal("first Unsubscribe should report true")
	}
	if bus.Unsubscribe(id) {
		t.Fatal("second Unsubscribe should report false")
	}
	bus.Publish("t", nil)
	if len(order) != 0 {
		t.Fatalf("unsubscribed handler ran: %v", order)
	}
}

func TestUnsubscribeDuringDispatchSkipsLaterHandler(t *testing.T) {
	bus := NewEventBus()
	var order []string
	var laterID string

	bus.Subscribe("t", func(Event) error {
		order = append(order, "first")
		bus.Unsubscribe(laterID)
		return nil
	}, WithPriority(1))
	laterID = bus.Subscribe("t", record(&order, "later"))

	bus.Publish("t", nil)
	if !reflect.DeepEqual(order, []string{"first"}) {
		t.Fatalf("order = %v, want [first]", order)
	}
}

func TestReentrantPublishAndWildcard(t *testing.T) {
	bus := NewEventBus()
	var seen []string

	bus.Subscribe(TopicAll, func(evt Event) error {
		seen = append(seen, evt.Topic)
		return nil
	})
	bus.Subscribe("outer", func(Event) error {
		bus.Publish("inner", "payload")
		return nil
	}, WithPriority(1))

	bus.Publish("outer", nil)

	want := []string{"inner", "outer"}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
}

func TestPayloadDelivered(t *testing.T) {
	bus := NewEventBus()
	var got Event
	bus.Subscribe("t", func(evt Event) error {
		got = evt
		return nil
	})
	bus.Publish("t", "hello")
	if got.Topic != "t" || got.Payload != "hello" {
		t.Fatalf("got %+v", got)
	}
}
