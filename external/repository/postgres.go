package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/koetsuki/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, endpoint, started_at, status)
		 VALUES ($1::uuid, $2, $3, 'running')
		 RETURNING id::text, endpoint, started_at, ended_at, status::text, stop_reason, packets_sent, bytes_sent`,
		input.ID, input.Endpoint, input.StartedAt)
	return scanSession(row)
}

func (r *PostgresRepository) UpdateSessionCompleted(ctx context.Context, input repository.CompleteSessionInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = 'completed', ended_at = $2, stop_reason = $3, packets_sent = $4, bytes_sent = $5
		 WHERE id = $1::uuid`,
		input.SessionID, input.EndedAt, input.StopReason, int64(input.PacketsSent), int64(input.BytesSent))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", input.SessionID)
	}
	return nil
}

func (r *PostgresRepository) InsertSegment(ctx context.Context, input repository.InsertSegmentInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transcript_segments (session_id, content, segment_index, spoken_at)
		 VALUES ($1::uuid, $2, $3, $4)`,
		input.SessionID, input.Content, input.SegmentIndex, input.SpokenAt)
	return err
}

func (r *PostgresRepository) ListSegmentsBySessionID(ctx context.Context, sessionID string) ([]repository.TranscriptSegment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, session_id::text, content, segment_index, spoken_at, created_at
		 FROM transcript_segments WHERE session_id = $1::uuid ORDER BY segment_index ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.TranscriptSegment
	for rows.Next() {
		var seg repository.TranscriptSegment
		if err := rows.Scan(&seg.ID, &seg.SessionID, &seg.Content, &seg.SegmentIndex, &seg.SpokenAt, &seg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, seg)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) Shutdown() {
	r.pool.Close()
}

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	var endedAt *time.Time
	var status string
	var packets, bytes int64
	if err := row.Scan(&s.ID, &s.Endpoint, &s.StartedAt, &endedAt, &status, &s.StopReason, &packets, &bytes); err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	s.Status = repository.SessionStatus(status)
	s.PacketsSent = uint64(packets)
	s.BytesSent = uint64(bytes)
	return &s, nil
}
