package transport

import (
	"context"
	"errors"

	"github.com/foxseedlab/koetsuki/internal/protocol"
)

// ErrTransport marks connect failures and unexpected closes.
var ErrTransport = errors.New("transport error")

// OnClose is called once when the connection ends without a local Close.
type Receiver interface {
	OnMessage(msg protocol.Message)
	OnClose(err error)
}

type Conn interface {
	SendPCM(pcm []byte) error
	SendControl(msg protocol.Message) error
	Close() error
}

type Client interface {
	Connect(ctx context.Context, receiver Receiver) (Conn, error)
}
