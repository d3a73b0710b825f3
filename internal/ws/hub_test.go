package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creperia-pos/api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func mockClient(hub *Hub, topic string, buf int) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, buf),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 1s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return ev
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no message received")
		return Event{}
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "orders", 4)

	hub.register <- client
	waitFor(t, func() bool { return hub.Subscribers("orders") == 1 })

	hub.unregister <- client
	waitFor(t, func() bool { return hub.Subscribers("orders") == 0 })

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if _, ok := hub.rooms["orders"]; ok {
		t.Fatal("empty room not cleaned up")
	}
}

func TestHub_PublishOnlyReachesTopic(t *testing.T) {
	hub := startHub(t)
	orders1 := mockClient(hub, "orders", 4)
	orders2 := mockClient(hub, "orders", 4)
	stock := mockClient(hub, "stock", 4)
	for _, c := range []*Client{orders1, orders2, stock} {
		hub.register <- c
	}
	waitFor(t, func() bool { return hub.Subscribers("orders") == 2 && hub.Subscribers("stock") == 1 })

	hub.Publish("orders", "order.created", map[string]int{"order_number": 42})

	for _, c := range []*Client{orders1, orders2} {
		ev := receive(t, c)
		if ev.Type != "order.created" {
			t.Errorf("type = %q", ev.Type)
		}
		if string(ev.Payload) != `{"order_number":42}` {
			t.Errorf("payload = %s", ev.Payload)
		}
	}

	select {
	case <-stock.send:
		t.Fatal("stock subscriber received an orders event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DropsSlowConsumer(t *testing.T) {
	hub := startHub(t)
	slow := mockClient(hub, "stock", 1)
	hub.register <- slow
	waitFor(t, func() bool { return hub.Subscribers("stock") == 1 })

	hub.Publish("stock", "stock.adjusted", 1)
	hub.Publish("stock", "stock.adjusted", 2)

	waitFor(t, func() bool { return hub.Subscribers("stock") == 0 })
	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Fatal("send channel should be closed")
	}
}

func TestHub_UnmarshalablePayloadIsDropped(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "orders", 4)
	hub.register <- client
	waitFor(t, func() bool { return hub.Subscribers("orders") == 1 })

	hub.Publish("orders", "order.created", make(chan int))
	hub.Publish("orders", "order.paid", "ok")

	if ev := receive(t, client); ev.Type != "order.paid" {
		t.Fatalf("type = %q, want order.paid", ev.Type)
	}
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := mockClient(hub, "orders", 4)
	hub.register <- client
	waitFor(t, func() bool { return hub.Subscribers("orders") == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("client channel should be closed on shutdown")
	}
}

func TestServeWS(t *testing.T) {
	const secret = "test-secret"
	hub := startHub(t)

	r := chi.NewRouter()
	r.Get("/ws/{topic}", func(w http.ResponseWriter, req *http.Request) {
		ServeWS(context.Background(), hub, secret, w, req)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	token, err := auth.GenerateToken(secret, uuid.New(), "Kitchen", "KITCHEN")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/ws/orders")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("unknown topic", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/ws/payroll?token=" + token)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("receives events", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders?token=" + token
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		waitFor(t, func() bool { return hub.Subscribers("orders") == 1 })

		hub.Publish("orders", "order.cancelled", map[string]string{"id": "abc"})

		conn.SetReadDeadline(time.Now().Add(time.Second))
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		if ev.Type != "order.cancelled" {
			t.Fatalf("type = %q", ev.Type)
		}
	})
}
