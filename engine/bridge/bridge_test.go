package bridge

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

type fixture struct {
	bus     eventbus.EventBus
	bridge  Bridge
	server  *httptest.Server
	metrics *profiler.Collector
}

func newFixture(t *testing.T, options ...BridgeBuilderOption) *fixture {
	t.Helper()
	metrics, err := profiler.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	f := &fixture{bus: eventbus.NewEventBus(), metrics: metrics}
	f.bridge = NewBridge(f.bus, append([]BridgeBuilderOption{WithMetrics(metrics)}, options...)...)
	f.server = httptest.NewServer(f.bridge)
	t.Cleanup(func() {
		f.bridge.Close()
		f.server.Close()
	})
	return f
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	before := f.bridge.ClientCount()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	waitFor(t, func() bool {
		return f.bridge.ClientCount() == before+1 &&
			testutil.ToFloat64(f.metrics.BridgeClients) == float64(before+1)
	})
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal %s: %v", data, err)
	}
	return msg
}

func TestForwardsEventsExceptExcluded(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	if got := testutil.ToFloat64(f.metrics.BridgeClients); got != 1 {
		t.Fatalf("bridge clients = %v, want 1", got)
	}

	f.bus.Publish(eventbus.TopicFrameTick, common.FrameInfo{Frame: 1})
	f.bus.Publish(eventbus.TopicPointerMove, nil)
	f.bus.Publish(eventbus.TopicRegionClicked, map[string]string{"isoCode": "SG"})

	msg := readMessage(t, conn)
	if msg["topic"] != eventbus.TopicRegionClicked {
		t.Fatalf("first message = %v, want region:clicked", msg)
	}
	payload, ok := msg["payload"].(map[string]any)
	if !ok || payload["isoCode"] != "SG" {
		t.Fatalf("payload = %v", msg["payload"])
	}

	f.bus.Publish(eventbus.TopicViewReset, nil)
	msg = readMessage(t, conn)
	if _, has := msg["payload"]; has || msg["topic"] != eventbus.TopicViewReset {
		t.Fatalf("view:reset message = %v", msg)
	}
}

func TestExcludedTopicsOverride(t *testing.T) {
	f := newFixture(t, WithExcludedTopics(eventbus.TopicRegionHovered))
	conn := f.dial(t)

	f.bus.Publish(eventbus.TopicRegionHovered, nil)
	f.bus.Publish(eventbus.TopicFrameTick, common.FrameInfo{Frame: 7})

	msg := readMessage(t, conn)
	if msg["topic"] != eventbus.TopicFrameTick {
		t.Fatalf("message = %v, want frame:tick", msg)
	}
}

func TestCommandsReachHandler(t *testing.T) {
	commands := make(chan Command, 4)
	f := newFixture(t, WithCommandHandler(func(c Command) { commands <- c }))
	conn := f.dial(t)

	for _, raw := range []string{
		`{"command":"focus","isoCode":"SG"}`,
		`{"isoCode":"ignored"}`,
		`{"command":"auto-rotate","enabled":false}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}

	want := []Command{{Name: CommandFocus, ISOCode: "SG"}, {Name: CommandAutoRotate}}
	for i, w := range want {
		select {
		case got := <-commands:
			if got.Name != w.Name || got.ISOCode != w.ISOCode {
				t.Fatalf("command %d = %+v, want %+v", i, got, w)
			}
			if w.Name == CommandAutoRotate && (got.Enabled == nil || *got.Enabled) {
				t.Fatalf("enabled = %v, want false", got.Enabled)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("command %d not delivered", i)
		}
	}
}

func TestDisconnectAndClose(t *testing.T) {
	f := newFixture(t)
	first := f.dial(t)
	second := f.dial(t)

	first.Close()
	waitFor(t, func() bool { return testutil.ToFloat64(f.metrics.BridgeClients) == 1 })
	if n := f.bridge.ClientCount(); n != 1 {
		t.Fatalf("clients = %d, want 1", n)
	}

	f.bridge.Close()
	if f.bridge.ClientCount() != 0 {
		t.Fatal("Close left clients connected")
	}
	if got := testutil.ToFloat64(f.metrics.BridgeClients); got != 0 {
		t.Fatalf("bridge clients = %v, want 0", got)
	}
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := second.ReadMessage(); err == nil {
		t.Fatal("client still readable after Close")
	}

	f.bus.Publish(eventbus.TopicRegionClicked, nil)
}
