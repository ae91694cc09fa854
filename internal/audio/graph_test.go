package audio

import "testing"

func newTestGraph(t *testing.T, queue int) *Graph {
	t.Helper()
	g, err := NewGraph(GraphConfig{InRate: 48000, OutRate: 16000, PacketDuration: PacketDuration, QueueSize: queue})
	if err != nil {
		t.Fatalf("failed to create graph: %v", err)
	}
	return g
}

func TestPacketSamples(t *testing.T) {
	if got := PacketSamples(16000, PacketDuration); got != 1600 {
		t.Fatalf("expected 1600 samples, got %d", got)
	}
}

func TestNewGraph_RejectsNonPositiveQueue(t *testing.T) {
	if _, err := NewGraph(GraphConfig{InRate: 48000, OutRate: 16000, QueueSize: 0}); err == nil {
		t.Fatal("expected error for zero queue size")
	}
}

func TestGraph_TenFramesOfTenMillisecondsYieldOnePacket(t *testing.T) {
	g := newTestGraph(t, 4)
	if d := g.Descriptor(); d.InRate != 48000 || d.OutRate != 16000 {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	frame := make(Frame, 480)
	for i := range frame {
		frame[i] = 0.25
	}
	for i := 0; i < 10; i++ {
		g.Process(frame)
	}
	if len(g.Packets()) != 1 {
		t.Fatalf("expected exactly one packet, got %d", len(g.Packets()))
	}
	pkt := <-g.Packets()
	if len(pkt.Samples) != 1600 {
		t.Fatalf("expected 1600 samples, got %d", len(pkt.Samples))
	}
	if pkt.Len() != 3200 {
		t.Fatalf("expected 3200 bytes, got %d", pkt.Len())
	}
	if pkt.Samples[0] != EncodeSample(0.25) {
		t.Fatalf("unexpected encoded sample: %d", pkt.Samples[0])
	}
	if g.Buffered() != 0 {
		t.Fatalf("expected no remainder, got %d", g.Buffered())
	}
}

func TestGraph_DiscardDropsPartialPacket(t *testing.T) {
	g := newTestGraph(t, 4)
	frame := make(Frame, 480)
	for i := 0; i < 5; i++ {
		g.Process(frame)
	}
	if g.Buffered() != 800 {
		t.Fatalf("expected 800 buffered samples, got %d", g.Buffered())
	}
	g.Discard()
	if g.Buffered() != 0 {
		t.Fatalf("expected remainder to be discarded, got %d", g.Buffered())
	}
	for i := 0; i < 5; i++ {
		g.Process(frame)
	}
	if len(g.Packets()) != 0 {
		t.Fatalf("expected no packets after discard, got %d", len(g.Packets()))
	}
	if g.Buffered() != 800 {
		t.Fatalf("expected 800 buffered samples, got %d", g.Buffered())
	}
}

func TestGraph_DropsNewestWhenQueueFull(t *testing.T) {
	g := newTestGraph(t, 1)
	first := make(Frame, 4800)
	for i := range first {
		first[i] = 0.5
	}
	second := make(Frame, 4800)
	g.Process(first)
	g.Process(second)
	if g.Emitted() != 1 || g.Dropped() != 1 {
		t.Fatalf("expected 1 emitted and 1 dropped, got %d and %d", g.Emitted(), g.Dropped())
	}
	pkt := <-g.Packets()
	if pkt.Samples[0] != EncodeSample(0.5) {
		t.Fatal("expected the oldest packet to be kept")
	}
}
