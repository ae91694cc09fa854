package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/koetsuki/internal/metrics"
	"github.com/foxseedlab/koetsuki/internal/protocol"
	"github.com/foxseedlab/koetsuki/internal/transport"
	"github.com/gorilla/websocket"
)

const closeGracePeriod = 2 * time.Second

type WebSocketConfig struct {
	Endpoint     string
	WriteTimeout time.Duration
}

// WebSocketClient dials one websocket per session.
type WebSocketClient struct {
	endpoint     string
	writeTimeout time.Duration
	dialer       *websocket.Dialer
	metrics      *metrics.Metrics
}

func NewWebSocketClient(cfg WebSocketConfig, m *metrics.Metrics) *WebSocketClient {
	dialer := websocket.DefaultDialer
	if dialer == nil {
		dialer = &websocket.Dialer{}
	}
	return &WebSocketClient{
		endpoint:     cfg.Endpoint,
		writeTimeout: cfg.WriteTimeout,
		dialer:       dialer,
		metrics:      m,
	}
}

func (c *WebSocketClient) Connect(ctx context.Context, receiver transport.Receiver) (transport.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: dial %s failed (status %d): %v", transport.ErrTransport, c.endpoint, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: dial %s: %v", transport.ErrTransport, c.endpoint, err)
	}
	slog.Info("websocket connected", "endpoint", c.endpoint)

	wc := &wsConn{
		conn:         conn,
		receiver:     receiver,
		writeTimeout: c.writeTimeout,
		metrics:      c.metrics,
		done:         make(chan struct{}),
	}
	go wc.readLoop()
	return wc, nil
}

type wsConn struct {
	conn         *websocket.Conn
	receiver     transport.Receiver
	writeTimeout time.Duration
	metrics      *metrics.Metrics
	done         chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

func (c *wsConn) SendPCM(pcm []byte) error {
	return c.write(websocket.BinaryMessage, pcm)
}

func (c *wsConn) SendControl(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

func (c *wsConn) write(messageType int, data []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("%w: connection is closed", transport.ErrTransport)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	return nil
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeGracePeriod))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) readLoop() {
	defer close(c.done)
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket closed by peer", "error", err)
			} else {
				slog.Error("websocket read failed", "error", err)
			}
			c.closed.Store(true)
			_ = c.conn.Close()
			c.receiver.OnClose(fmt.Errorf("%w: %v", transport.ErrTransport, err))
			return
		}

		switch messageType {
		case websocket.TextMessage:
			msg, err := protocol.Decode(data)
			if err != nil {
				if c.metrics != nil {
					c.metrics.ProtocolErrors.Inc()
				}
				slog.Warn("dropping malformed control message", "error", err, "size", len(data))
				continue
			}
			c.receiver.OnMessage(msg)
		default:
			continue
		}
	}
}

var _ transport.Conn = (*wsConn)(nil)
