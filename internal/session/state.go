package session

import (
	"sync"
	"time"

	"github.com/foxseedlab/koetsuki/internal/repository"
	"github.com/foxseedlab/koetsuki/internal/transport"
)

type State int

const (
	StateIdle State = iota
	StateConnected
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

type Mode int

const (
	ModePushToTalk Mode = iota
	ModeContinuous
)

func (m Mode) String() string {
	switch m {
	case ModePushToTalk:
		return "push-to-talk"
	case ModeContinuous:
		return "continuous"
	default:
		return "unknown"
	}
}

type Session struct {
	ID          string
	State       State
	Mode        Mode
	StartedAt   time.Time
	PacketsSent uint64
	BytesSent   uint64

	conn          transport.Conn
	transportLost bool
	persisted     bool
	segments      []repository.TranscriptSegment
	writes        sync.WaitGroup
}

type Snapshot struct {
	State         State
	Mode          Mode
	SessionID     string
	PacketsSent   uint64
	BytesSent     uint64
	Live          string
	Transcript    string
	Status        string
	TransportLost bool
	Dropped       uint64
	Buffered      int
	InRate        int
	OutRate       int
}
