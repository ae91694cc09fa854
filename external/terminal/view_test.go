package terminal

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foxseedlab/koetsuki/internal/session"
)

func TestViewRender(t *testing.T) {
	v := NewView(50)
	out := v.Render(session.Snapshot{
		State:       session.StateCapturing,
		Mode:        session.ModeContinuous,
		SessionID:   "sess-1",
		PacketsSent: 12,
		BytesSent:   38400,
		Live:        "wor",
		Transcript:  "hello ",
		Status:      "Continuous listening. Stop to end.",
		InRate:      48000,
		OutRate:     16000,
	})

	for _, want := range []string{"capturing", "continuous", "sess-1", "48000 Hz -> 16000 Hz", "sent 12 packets, 38400 bytes", "Continuous listening.", "hello", "wor"} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing from render:\n%s", want, out)
		}
	}
}

func TestViewRenderTransportLostAndEmpty(t *testing.T) {
	out := NewView(0).Render(session.Snapshot{State: session.StateConnected, TransportLost: true})
	if !strings.Contains(out, "transport lost") {
		t.Fatalf("transport loss not shown:\n%s", out)
	}
	if !strings.Contains(out, "no transcript yet") {
		t.Fatalf("empty transcript placeholder missing:\n%s", out)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestViewWatchRedrawsOnChange(t *testing.T) {
	var calls atomic.Int32
	snapshot := func() session.Snapshot {
		n := calls.Add(1)
		if n < 3 {
			return session.Snapshot{Status: "first"}
		}
		return session.Snapshot{Status: "second"}
	}
	var out lockedBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewView(40).Watch(ctx, time.Millisecond, snapshot, &out)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "second") {
		if time.Now().After(deadline) {
			t.Fatalf("second frame never rendered: %s", out.String())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if got := strings.Count(out.String(), "Status: first"); got != 1 {
		t.Fatalf("unchanged frame redrawn %d times", got)
	}
}

func TestViewWatchIgnoresCounterOnlyChanges(t *testing.T) {
	var calls atomic.Int32
	snapshot := func() session.Snapshot {
		n := calls.Add(1)
		snap := session.Snapshot{
			State:       session.StateCapturing,
			Status:      "listening",
			PacketsSent: uint64(n),
			BytesSent:   uint64(n) * 3200,
			Buffered:    int(n % 7),
		}
		if n >= 20 {
			snap.Live = "hello"
		}
		return snap
	}
	var out lockedBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewView(40).Watch(ctx, time.Millisecond, snapshot, &out)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "hello") {
		if time.Now().After(deadline) {
			t.Fatalf("live text never rendered: %s", out.String())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if got := strings.Count(out.String(), "Status: listening"); got != 2 {
		t.Fatalf("expected 2 frames, got %d:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "sent 1 packets, 3200 bytes") {
		t.Fatalf("first frame lacks counters: %s", out.String())
	}
}
