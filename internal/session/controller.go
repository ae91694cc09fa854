package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/koetsuki/internal/audio"
	"github.com/foxseedlab/koetsuki/internal/config"
	"github.com/foxseedlab/koetsuki/internal/discord"
	"github.com/foxseedlab/koetsuki/internal/metrics"
	"github.com/foxseedlab/koetsuki/internal/protocol"
	"github.com/foxseedlab/koetsuki/internal/repository"
	"github.com/foxseedlab/koetsuki/internal/transport"
	"github.com/foxseedlab/koetsuki/internal/webhook"
	"github.com/google/uuid"
)

const (
	inboundQueueSize  = 64
	repositoryTimeout = 5 * time.Second
)

var (
	ErrNotConnected  = errors.New("session is not connected")
	ErrTransportLost = errors.New("transport connection was lost")
	ErrStopped       = errors.New("controller is not running")
)

type commandKind int

const (
	cmdConnect commandKind = iota
	cmdStart
	cmdStop
	cmdDisconnect
	cmdClear
)

type command struct {
	ctx   context.Context
	kind  commandKind
	mode  Mode
	reply chan error
}

type inboundEvent struct {
	sessionID string
	msg       protocol.Message
	closed    bool
	err       error
}

// Controller owns the session state machine on the goroutine that calls Run.
type Controller struct {
	cfg       *config.Config
	transport transport.Client
	source    audio.Source
	repo      repository.Repository
	webhook   webhook.Sender
	discord   discord.Client
	metrics   *metrics.Metrics

	cmds    chan command
	inbound chan inboundEvent
	done    chan struct{}
	running atomic.Bool

	runCtx      context.Context
	graph       *audio.Graph
	session     *Session
	transcript  *Transcript
	status      string
	lastMode    Mode
	droppedSeen uint64

	snapshot atomic.Pointer[Snapshot]
	archives sync.WaitGroup
}

func NewController(cfg *config.Config, tc transport.Client, src audio.Source, repo repository.Repository, wh webhook.Sender, dc discord.Client, m *metrics.Metrics) *Controller {
	c := &Controller{
		cfg:        cfg,
		transport:  tc,
		source:     src,
		repo:       repo,
		webhook:    wh,
		discord:    dc,
		metrics:    m,
		cmds:       make(chan command),
		inbound:    make(chan inboundEvent, inboundQueueSize),
		done:       make(chan struct{}),
		transcript: NewTranscript(cfg.TranscriptTokensPerLine),
		status:     messageReady,
	}
	c.publish()
	return c
}

// Run waits for archiving before it returns.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("controller is already running")
	}
	defer close(c.done)
	c.runCtx = ctx
	slog.Info("session controller started")

	for {
		var packets <-chan audio.Packet
		if c.graph != nil {
			packets = c.graph.Packets()
		}
		select {
		case <-ctx.Done():
			if c.session != nil {
				c.disconnect(stopReasonShutdown)
			}
			c.publish()
			c.archives.Wait()
			slog.Info("session controller stopped")
			return nil
		case cmd := <-c.cmds:
			err := c.handle(cmd)
			c.publish()
			cmd.reply <- err
		case pkt := <-packets:
			c.forward(pkt)
		case ev := <-c.inbound:
			c.handleInbound(ev)
		}
		c.publish()
	}
}

func (c *Controller) Snapshot() Snapshot {
	return *c.snapshot.Load()
}

func (c *Controller) Connect(ctx context.Context) error {
	return c.do(ctx, command{kind: cmdConnect})
}

func (c *Controller) Start(ctx context.Context, mode Mode) error {
	return c.do(ctx, command{kind: cmdStart, mode: mode})
}

func (c *Controller) Stop(ctx context.Context) error {
	return c.do(ctx, command{kind: cmdStop})
}

func (c *Controller) Disconnect(ctx context.Context) error {
	return c.do(ctx, command{kind: cmdDisconnect})
}

func (c *Controller) ClearTranscript(ctx context.Context) error {
	return c.do(ctx, command{kind: cmdClear})
}

func (c *Controller) do(ctx context.Context, cmd command) error {
	cmd.ctx = ctx
	cmd.reply = make(chan error, 1)
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

func (c *Controller) handle(cmd command) error {
	switch cmd.kind {
	case cmdConnect:
		return c.connect(cmd.ctx)
	case cmdStart:
		return c.start(cmd.mode)
	case cmdStop:
		return c.stop()
	case cmdDisconnect:
		return c.disconnect(stopReasonManual)
	case cmdClear:
		c.transcript.Clear()
		c.setStatus(messageTranscriptCleared)
		return nil
	default:
		return fmt.Errorf("unknown command %d", cmd.kind)
	}
}

func (c *Controller) connect(ctx context.Context) error {
	if s := c.session; s != nil {
		if !s.transportLost {
			c.setStatus(messageAlreadyConnected)
			return nil
		}
		slog.Info("replacing session after transport loss", "session_id", s.ID)
		_ = c.disconnect(stopReasonTransportLost)
	}

	id := uuid.NewString()
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.STTConnectTimeout)
	defer cancel()
	conn, err := c.transport.Connect(dialCtx, &receiver{sessionID: id, events: c.inbound, done: c.done})
	if err != nil {
		c.metrics.TransportFailures.Inc()
		c.setStatus(messageConnectFailed)
		slog.Error("failed to connect transport", "error", err, "endpoint", c.cfg.DecoderEndpoint())
		return fmt.Errorf("connect: %w", err)
	}

	s := &Session{
		ID:        id,
		State:     StateConnected,
		Mode:      c.lastMode,
		StartedAt: time.Now(),
		conn:      conn,
	}
	c.session = s
	c.metrics.SessionsStarted.Inc()
	c.persistSessionStart(s)
	c.setStatus(messageConnected)
	slog.Info("session connected", "session_id", s.ID, "endpoint", c.cfg.DecoderEndpoint())

	if err := c.ensureGraph(); err != nil {
		c.setStatus(messageMicFailed)
		slog.Error("failed to start audio capture", "error", err, "session_id", s.ID)
	}
	return nil
}

func (c *Controller) ensureGraph() error {
	if c.graph != nil {
		return nil
	}
	g, err := audio.NewGraph(audio.GraphConfig{
		InRate:         c.source.SampleRate(),
		OutRate:        audio.TargetSampleRate,
		PacketDuration: audio.PacketDuration,
		QueueSize:      c.cfg.AudioPacketQueueSize,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDevice, err)
	}
	if err := c.source.Start(c.runCtx, g.Process); err != nil {
		return err
	}
	c.graph = g
	return nil
}

func (c *Controller) start(mode Mode) error {
	s := c.session
	if s == nil {
		c.setStatus(messageConnectFirst)
		return ErrNotConnected
	}
	if s.transportLost {
		c.setStatus(messageReconnectRequired)
		return ErrTransportLost
	}
	if s.State == StateCapturing {
		return nil
	}
	if err := c.ensureGraph(); err != nil {
		c.setStatus(messageMicFailed)
		slog.Error("cannot start capture without audio", "error", err, "session_id", s.ID)
		return err
	}
	if err := s.conn.SendControl(protocol.Start()); err != nil {
		c.transportFailed(s, err)
		return fmt.Errorf("send start: %w", err)
	}
	s.State = StateCapturing
	s.Mode = mode
	c.lastMode = mode
	c.setStatus(listeningMessage(mode))
	slog.Info("capture started", "session_id", s.ID, "mode", mode.String())
	return nil
}

func (c *Controller) stop() error {
	s := c.session
	if s == nil || s.State != StateCapturing {
		return nil
	}
	s.State = StateConnected
	c.discardRemainder()
	if err := s.conn.SendControl(protocol.Stop()); err != nil {
		c.transportFailed(s, err)
		return fmt.Errorf("send stop: %w", err)
	}
	c.setStatus(messageCaptureStopped)
	slog.Info("capture stopped", "session_id", s.ID, "packets_sent", s.PacketsSent, "bytes_sent", s.BytesSent)
	return nil
}

func (c *Controller) disconnect(reason string) error {
	s := c.session
	if s == nil {
		return nil
	}
	if s.State == StateCapturing && !s.transportLost {
		if err := s.conn.SendControl(protocol.Stop()); err != nil {
			slog.Warn("failed to send stop before disconnect", "error", err, "session_id", s.ID)
		}
	}
	if s.transportLost {
		reason = stopReasonTransportLost
	}
	c.session = nil
	c.discardRemainder()
	err := s.conn.Close()
	if err != nil {
		slog.Warn("transport close failed", "error", err, "session_id", s.ID)
	}
	c.setStatus(messageDisconnected)
	slog.Info("session disconnected", "session_id", s.ID, "reason", reason, "packets_sent", s.PacketsSent, "bytes_sent", s.BytesSent)

	c.archives.Add(1)
	go func() {
		defer c.archives.Done()
		c.archiveSession(s, time.Now(), reason)
	}()
	return err
}

func (c *Controller) forward(pkt audio.Packet) {
	s := c.session
	if s == nil || s.State != StateCapturing || s.transportLost {
		c.metrics.PacketsGated.Inc()
		return
	}
	b := pkt.Bytes()
	if err := s.conn.SendPCM(b); err != nil {
		c.transportFailed(s, err)
		return
	}
	s.PacketsSent++
	s.BytesSent += uint64(len(b))
	c.metrics.PacketsSent.Inc()
	c.metrics.BytesSent.Add(float64(len(b)))
	if s.PacketsSent == 1 || s.PacketsSent%100 == 0 {
		slog.Debug("pcm packets sent", "session_id", s.ID, "packets_sent", s.PacketsSent, "bytes_sent", s.BytesSent)
	}
}

func (c *Controller) handleInbound(ev inboundEvent) {
	s := c.session
	if s == nil || s.ID != ev.sessionID {
		slog.Debug("dropping inbound event for inactive session", "session_id", ev.sessionID)
		return
	}
	if ev.closed {
		c.transportFailed(s, ev.err)
		return
	}
	c.metrics.InboundMessages.WithLabelValues(string(ev.msg.Kind)).Inc()
	switch ev.msg.Kind {
	case protocol.KindPartial:
		c.transcript.SetLive(ev.msg.Text)
	case protocol.KindFinal:
		if ev.msg.Text == "" {
			return
		}
		c.transcript.AppendFinal(ev.msg.Text)
		c.persistSegment(s, ev.msg.Text)
	case protocol.KindStatus:
		c.setStatus(ev.msg.Text)
	}
}

func (c *Controller) transportFailed(s *Session, err error) {
	if s.transportLost {
		return
	}
	s.transportLost = true
	if s.State == StateCapturing {
		s.State = StateConnected
	}
	c.discardRemainder()
	c.metrics.TransportFailures.Inc()
	if err == nil {
		err = transport.ErrTransport
	}
	slog.Error("transport failed", "error", err, "session_id", s.ID, "packets_sent", s.PacketsSent)
	if cerr := s.conn.Close(); cerr != nil {
		slog.Debug("closing failed transport", "error", cerr, "session_id", s.ID)
	}
	c.setStatus(messageTransportLost)
}

func (c *Controller) discardRemainder() {
	if c.graph != nil {
		c.graph.Discard()
	}
}

func (c *Controller) setStatus(text string) {
	c.status = text
}

func (c *Controller) publish() {
	snap := &Snapshot{
		State:      StateIdle,
		Mode:       c.lastMode,
		Live:       c.transcript.Live(),
		Transcript: c.transcript.Final(),
		Status:     c.status,
	}
	if s := c.session; s != nil {
		snap.State = s.State
		snap.Mode = s.Mode
		snap.SessionID = s.ID
		snap.PacketsSent = s.PacketsSent
		snap.BytesSent = s.BytesSent
		snap.TransportLost = s.transportLost
	}
	if g := c.graph; g != nil {
		snap.Dropped = g.Dropped()
		snap.Buffered = g.Buffered()
		snap.InRate = g.Descriptor().InRate
		snap.OutRate = g.Descriptor().OutRate
		if snap.Dropped > c.droppedSeen {
			c.metrics.PacketsDropped.Add(float64(snap.Dropped - c.droppedSeen))
			c.droppedSeen = snap.Dropped
		}
	}
	c.metrics.SessionState.Set(float64(snap.State))
	c.snapshot.Store(snap)
}

type receiver struct {
	sessionID string
	events    chan<- inboundEvent
	done      <-chan struct{}
}

func (r *receiver) OnMessage(msg protocol.Message) {
	r.post(inboundEvent{sessionID: r.sessionID, msg: msg})
}

func (r *receiver) OnClose(err error) {
	r.post(inboundEvent{sessionID: r.sessionID, closed: true, err: err})
}

func (r *receiver) post(ev inboundEvent) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}
