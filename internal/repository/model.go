package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

type Session struct {
	ID          string
	Endpoint    string
	StartedAt   time.Time
	EndedAt     *time.Time
	Status      SessionStatus
	StopReason  string
	PacketsSent uint64
	BytesSent   uint64
}

type TranscriptSegment struct {
	ID           string
	SessionID    string
	Content      string
	SegmentIndex int
	SpokenAt     time.Time
	CreatedAt    time.Time
}
