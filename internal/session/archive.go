package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/koetsuki/internal/discord"
	"github.com/foxseedlab/koetsuki/internal/repository"
)

const archiveTimeout = 30 * time.Second

func (c *Controller) persistSessionStart(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), repositoryTimeout)
	defer cancel()
	if _, err := c.repo.CreateSession(ctx, repository.CreateSessionInput{
		ID:        s.ID,
		Endpoint:  c.cfg.DecoderEndpoint(),
		StartedAt: s.StartedAt,
	}); err != nil {
		slog.Error("failed to create session in repository; transcript kept in memory only", "error", err, "session_id", s.ID)
		return
	}
	s.persisted = true
}

func (c *Controller) persistSegment(s *Session, text string) {
	seg := repository.TranscriptSegment{
		SessionID:    s.ID,
		Content:      text,
		SegmentIndex: len(s.segments),
		SpokenAt:     time.Now(),
	}
	s.segments = append(s.segments, seg)
	if !s.persisted {
		return
	}
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), repositoryTimeout)
		defer cancel()
		if err := c.repo.InsertSegment(ctx, repository.InsertSegmentInput{
			SessionID:    seg.SessionID,
			Content:      seg.Content,
			SegmentIndex: seg.SegmentIndex,
			SpokenAt:     seg.SpokenAt,
		}); err != nil {
			slog.Error("failed to insert segment", "error", err, "session_id", seg.SessionID, "segment_index", seg.SegmentIndex)
		}
	}()
}

func (c *Controller) archiveSession(s *Session, endedAt time.Time, reason string) {
	s.writes.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	segments := s.segments
	if s.persisted {
		stored, err := c.repo.ListSegmentsBySessionID(ctx, s.ID)
		if err != nil {
			slog.Error("failed to list transcript segments; using in-memory copy", "error", err, "session_id", s.ID)
		} else {
			segments = stored
		}
		if err := c.repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
			SessionID:   s.ID,
			EndedAt:     endedAt,
			StopReason:  reason,
			PacketsSent: s.PacketsSent,
			BytesSent:   s.BytesSent,
		}); err != nil {
			slog.Error("failed to complete session", "error", err, "session_id", s.ID)
		}
	}
	if len(segments) == 0 {
		slog.Info("session ended without transcript; skipping archive", "session_id", s.ID, "reason", reason)
		return
	}

	loc := c.cfg.Location()
	info := archiveInfo{
		SessionID:   s.ID,
		Endpoint:    c.cfg.DecoderEndpoint(),
		StartedAt:   s.StartedAt,
		EndedAt:     endedAt,
		Timezone:    c.cfg.TranscriptTimezone,
		StopReason:  reason,
		PacketsSent: s.PacketsSent,
		BytesSent:   s.BytesSent,
	}
	body := buildTranscriptText(info, loc, segments)
	filename := fmt.Sprintf("transcript-%s.txt", s.ID)
	if c.cfg.DiscordChannelID != "" {
		if err := c.discord.SendChannelMessageWithFile(discord.FileMessage{
			ChannelID: c.cfg.DiscordChannelID,
			Content:   messageArchiveAttachment,
			Filename:  filename,
			FileBody:  body,
		}); err != nil {
			slog.Error("failed to post transcript file", "error", err, "session_id", s.ID)
		}
	}
	if err := c.webhook.SendTranscript(ctx, buildTranscriptWebhookPayload(info, loc, segments)); err != nil {
		slog.Error("failed to send webhook transcript", "error", err, "session_id", s.ID)
	}
	slog.Info("session archived", "session_id", s.ID, "segments", len(segments), "reason", reason)
}
