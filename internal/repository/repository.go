package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	ID        string
	Endpoint  string
	StartedAt time.Time
}

type CompleteSessionInput struct {
	SessionID   string
	EndedAt     time.Time
	StopReason  string
	PacketsSent uint64
	BytesSent   uint64
}

type InsertSegmentInput struct {
	SessionID    string
	Content      string
	SegmentIndex int
	SpokenAt     time.Time
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	UpdateSessionCompleted(ctx context.Context, input CompleteSessionInput) error
}

type TranscriptRepository interface {
	InsertSegment(ctx context.Context, input InsertSegmentInput) error
	ListSegmentsBySessionID(ctx context.Context, sessionID string) ([]TranscriptSegment, error)
}

type Repository interface {
	SessionRepository
	TranscriptRepository
}
