package audio

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	TargetSampleRate = 16000
	PacketDuration   = 100 * time.Millisecond
)

func PacketSamples(rate int, d time.Duration) int {
	return int(int64(rate) * int64(d) / int64(time.Second))
}

type Descriptor struct {
	InRate  int `json:"inRate"`
	OutRate int `json:"outRate"`
}

type GraphConfig struct {
	InRate         int
	OutRate        int
	PacketDuration time.Duration
	QueueSize      int
}

// Graph drops the newest packet when the hand-off channel is full.
type Graph struct {
	resampler  *Resampler
	packetizer *Packetizer
	desc       Descriptor
	out        chan Packet
	scratch    []float32
	emitFn     func([]float32)

	discard  atomic.Bool
	buffered atomic.Int64
	emitted  atomic.Uint64
	dropped  atomic.Uint64
}

func NewGraph(cfg GraphConfig) (*Graph, error) {
	if cfg.OutRate == 0 {
		cfg.OutRate = TargetSampleRate
	}
	if cfg.PacketDuration == 0 {
		cfg.PacketDuration = PacketDuration
	}
	if cfg.QueueSize <= 0 {
		return nil, fmt.Errorf("queue size must be positive, got %d", cfg.QueueSize)
	}
	rs, err := NewResampler(cfg.InRate, cfg.OutRate)
	if err != nil {
		return nil, err
	}
	size := PacketSamples(cfg.OutRate, cfg.PacketDuration)
	if size <= 0 {
		return nil, fmt.Errorf("packet duration %s is too short for %d Hz", cfg.PacketDuration, cfg.OutRate)
	}
	g := &Graph{
		resampler:  rs,
		packetizer: NewPacketizer(size),
		desc:       Descriptor{InRate: cfg.InRate, OutRate: cfg.OutRate},
		out:        make(chan Packet, cfg.QueueSize),
	}
	g.emitFn = g.emit
	slog.Info("audio graph initialized", "in_rate", g.desc.InRate, "out_rate", g.desc.OutRate, "packet_samples", size, "queue_size", cfg.QueueSize)
	return g, nil
}

func (g *Graph) Descriptor() Descriptor {
	return g.desc
}

func (g *Graph) PacketSamples() int {
	return g.packetizer.Size()
}

func (g *Graph) Packets() <-chan Packet {
	return g.out
}

func (g *Graph) Process(frame Frame) {
	if g.discard.Swap(false) {
		g.packetizer.Reset()
	}
	g.scratch = g.resampler.Process(g.scratch[:0], frame)
	g.packetizer.Write(g.scratch, g.emitFn)
	g.buffered.Store(int64(g.packetizer.Buffered()))
}

func (g *Graph) emit(samples []float32) {
	pkt := Packet{Samples: Encode(samples)}
	select {
	case g.out <- pkt:
		g.emitted.Add(1)
	default:
		g.dropped.Add(1)
	}
}

// Discard is safe to call from any goroutine.
func (g *Graph) Discard() {
	g.discard.Store(true)
	g.buffered.Store(0)
}

func (g *Graph) Buffered() int {
	if g.discard.Load() {
		return 0
	}
	return int(g.buffered.Load())
}

func (g *Graph) Emitted() uint64 {
	return g.emitted.Load()
}

func (g *Graph) Dropped() uint64 {
	return g.dropped.Load()
}
