package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/koetsuki/internal/metrics"
	"github.com/foxseedlab/koetsuki/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingReceiver struct {
	mu       sync.Mutex
	messages []protocol.Message
	closes   []error
}

func (r *recordingReceiver) OnMessage(msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingReceiver) OnClose(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes = append(r.closes, err)
}

func (r *recordingReceiver) snapshot() ([]protocol.Message, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Message(nil), r.messages...), append([]error(nil), r.closes...)
}

type serverFrame struct {
	messageType int
	data        []byte
}

// newDecoderServer upgrades one connection, hands it to script and records
// every frame the client sends.
func newDecoderServer(t *testing.T, script func(conn *websocket.Conn)) (string, <-chan serverFrame) {
	t.Helper()
	frames := make(chan serverFrame, 16)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		go func() {
			for {
				mt, data, err := conn.ReadMessage()
				if err != nil {
					close(frames)
					return
				}
				frames <- serverFrame{messageType: mt, data: data}
			}
		}()
		script(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), frames
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func nextFrame(t *testing.T, frames <-chan serverFrame) serverFrame {
	t.Helper()
	select {
	case f, ok := <-frames:
		if !ok {
			t.Fatal("server connection closed")
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return serverFrame{}
}

func TestWebSocketSendsControlAndPCMFrames(t *testing.T) {
	hold := make(chan struct{})
	url, frames := newDecoderServer(t, func(*websocket.Conn) { <-hold })
	defer close(hold)

	client := NewWebSocketClient(WebSocketConfig{Endpoint: url, WriteTimeout: time.Second}, metrics.NewMetrics())
	conn, err := client.Connect(context.Background(), &recordingReceiver{})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := conn.SendControl(protocol.Start()); err != nil {
		t.Fatalf("SendControl failed: %v", err)
	}
	pcm := []byte{0x01, 0x00, 0xff, 0x7f}
	if err := conn.SendPCM(pcm); err != nil {
		t.Fatalf("SendPCM failed: %v", err)
	}

	f := nextFrame(t, frames)
	if f.messageType != websocket.TextMessage || string(f.data) != `{"type":"start"}` {
		t.Fatalf("unexpected control frame: %d %s", f.messageType, f.data)
	}
	f = nextFrame(t, frames)
	if f.messageType != websocket.BinaryMessage || string(f.data) != string(pcm) {
		t.Fatalf("unexpected pcm frame: %d %v", f.messageType, f.data)
	}
}

func TestWebSocketRejectsInboundOnlyControl(t *testing.T) {
	hold := make(chan struct{})
	url, _ := newDecoderServer(t, func(*websocket.Conn) { <-hold })
	defer close(hold)

	client := NewWebSocketClient(WebSocketConfig{Endpoint: url}, nil)
	conn, err := client.Connect(context.Background(), &recordingReceiver{})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := conn.SendControl(protocol.Message{Kind: protocol.KindFinal, Text: "x"}); err == nil {
		t.Fatal("expected error for inbound-only message")
	}
}

func TestWebSocketDeliversNormalizedMessages(t *testing.T) {
	hold := make(chan struct{})
	url, _ := newDecoderServer(t, func(conn *websocket.Conn) {
		for _, raw := range []string{
			`{"type":"partial","value":{"partial":"hel"}}`,
			`not json`,
			`{"type":"final","value":{"text":"hello"}}`,
		} {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(raw))
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
		<-hold
	})
	defer close(hold)

	m := metrics.NewMetrics()
	recv := &recordingReceiver{}
	client := NewWebSocketClient(WebSocketConfig{Endpoint: url}, m)
	conn, err := client.Connect(context.Background(), recv)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	waitFor(t, "messages", func() bool {
		msgs, _ := recv.snapshot()
		return len(msgs) == 2
	})
	msgs, closes := recv.snapshot()
	if msgs[0] != (protocol.Message{Kind: protocol.KindPartial, Text: "hel"}) {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1] != (protocol.Message{Kind: protocol.KindFinal, Text: "hello"}) {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
	if len(closes) != 0 {
		t.Fatalf("unexpected close: %v", closes)
	}
	if got := testutil.ToFloat64(m.ProtocolErrors); got != 1 {
		t.Fatalf("expected one protocol error, got %v", got)
	}
}

func TestWebSocketReportsRemoteClose(t *testing.T) {
	url, _ := newDecoderServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"), time.Now().Add(time.Second))
	})

	recv := &recordingReceiver{}
	client := NewWebSocketClient(WebSocketConfig{Endpoint: url}, nil)
	conn, err := client.Connect(context.Background(), recv)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	waitFor(t, "close callback", func() bool {
		_, closes := recv.snapshot()
		return len(closes) == 1
	})
	if err := conn.SendPCM([]byte{0, 0}); err == nil {
		t.Fatal("expected send after remote close to fail")
	}
}

func TestWebSocketLocalCloseIsSilent(t *testing.T) {
	hold := make(chan struct{})
	url, _ := newDecoderServer(t, func(*websocket.Conn) { <-hold })
	defer close(hold)

	recv := &recordingReceiver{}
	client := NewWebSocketClient(WebSocketConfig{Endpoint: url}, nil)
	c, err := client.Connect(context.Background(), recv)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	ws := c.(*wsConn)
	select {
	case <-ws.done:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not stop")
	}
	if _, closes := recv.snapshot(); len(closes) != 0 {
		t.Fatalf("local close reported as remote: %v", closes)
	}
}

func TestWebSocketConnectFailure(t *testing.T) {
	client := NewWebSocketClient(WebSocketConfig{Endpoint: "ws://127.0.0.1:1"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := client.Connect(ctx, &recordingReceiver{}); err == nil {
		t.Fatal("expected dial error")
	}
}
