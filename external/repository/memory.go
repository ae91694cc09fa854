package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/foxseedlab/koetsuki/internal/repository"
	"github.com/google/uuid"
)

// MemoryRepository is used when no database is configured.
type MemoryRepository struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]*repository.Session
	segments map[string][]repository.TranscriptSegment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:      time.Now,
		sessions: make(map[string]*repository.Session),
		segments: make(map[string][]repository.TranscriptSegment),
	}
}

func (r *MemoryRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[input.ID]; ok {
		return nil, fmt.Errorf("session %s already exists", input.ID)
	}
	s := &repository.Session{
		ID:        input.ID,
		Endpoint:  input.Endpoint,
		StartedAt: input.StartedAt,
		Status:    repository.SessionStatusRunning,
	}
	r.sessions[input.ID] = s
	out := *s
	return &out, nil
}

func (r *MemoryRepository) UpdateSessionCompleted(_ context.Context, input repository.CompleteSessionInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[input.SessionID]
	if !ok {
		return fmt.Errorf("session %s not found", input.SessionID)
	}
	endedAt := input.EndedAt
	s.EndedAt = &endedAt
	s.Status = repository.SessionStatusCompleted
	s.StopReason = input.StopReason
	s.PacketsSent = input.PacketsSent
	s.BytesSent = input.BytesSent
	return nil
}

func (r *MemoryRepository) GetSession(_ context.Context, sessionID string) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (r *MemoryRepository) InsertSegment(_ context.Context, input repository.InsertSegmentInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[input.SessionID]; !ok {
		return fmt.Errorf("session %s not found", input.SessionID)
	}
	for _, seg := range r.segments[input.SessionID] {
		if seg.SegmentIndex == input.SegmentIndex {
			return fmt.Errorf("segment %d already exists for session %s", input.SegmentIndex, input.SessionID)
		}
	}
	r.segments[input.SessionID] = append(r.segments[input.SessionID], repository.TranscriptSegment{
		ID:           uuid.NewString(),
		SessionID:    input.SessionID,
		Content:      input.Content,
		SegmentIndex: input.SegmentIndex,
		SpokenAt:     input.SpokenAt,
		CreatedAt:    r.now(),
	})
	return nil
}

func (r *MemoryRepository) ListSegmentsBySessionID(_ context.Context, sessionID string) ([]repository.TranscriptSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append([]repository.TranscriptSegment(nil), r.segments[sessionID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].SegmentIndex < list[j].SegmentIndex })
	return list, nil
}
