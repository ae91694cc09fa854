package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/foxseedlab/koetsuki/internal/repository"
	"github.com/foxseedlab/koetsuki/internal/webhook"
)

const transcriptTimeLayout = "2006-01-02 15:04:05"

type archiveInfo struct {
	SessionID   string
	Endpoint    string
	StartedAt   time.Time
	EndedAt     time.Time
	Timezone    string
	StopReason  string
	PacketsSent uint64
	BytesSent   uint64
}

func buildTranscriptText(info archiveInfo, loc *time.Location, segments []repository.TranscriptSegment) []byte {
	startText := info.StartedAt.In(safeLocation(loc)).Format(transcriptTimeLayout)
	endText := info.EndedAt.In(safeLocation(loc)).Format(transcriptTimeLayout)

	lines := []string{
		fmt.Sprintf("Session: %s", info.SessionID),
		fmt.Sprintf("Decoder: %s", info.Endpoint),
		fmt.Sprintf("Period: %s ~ %s (%s)", startText, endText, info.Timezone),
		fmt.Sprintf("Audio sent: %d packets, %d bytes", info.PacketsSent, info.BytesSent),
		fmt.Sprintf("Ended by: %s", info.StopReason),
		"",
	}
	for _, seg := range segments {
		elapsed := seg.SpokenAt.Sub(info.StartedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		lines = append(lines, fmt.Sprintf("%s %s", formatElapsedHMS(elapsed), seg.Content))
	}
	return []byte(strings.Join(lines, "\n"))
}

func buildTranscriptWebhookPayload(info archiveInfo, loc *time.Location, segments []repository.TranscriptSegment) webhook.TranscriptWebhookPayload {
	transcriptLines := make([]string, 0, len(segments))
	out := make([]webhook.TranscriptWebhookSegment, 0, len(segments))
	for _, seg := range segments {
		transcriptLines = append(transcriptLines, seg.Content)
		out = append(out, webhook.TranscriptWebhookSegment{
			Index:      seg.SegmentIndex,
			SpokenAt:   seg.SpokenAt.In(safeLocation(loc)).Format(time.RFC3339),
			Transcript: seg.Content,
		})
	}

	durationSeconds := int64(info.EndedAt.Sub(info.StartedAt).Seconds())
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	return webhook.TranscriptWebhookPayload{
		SchemaVersion:      webhook.TranscriptWebhookSchemaVersion,
		SessionID:          info.SessionID,
		Endpoint:           info.Endpoint,
		StartAt:            info.StartedAt.In(safeLocation(loc)).Format(time.RFC3339),
		EndAt:              info.EndedAt.In(safeLocation(loc)).Format(time.RFC3339),
		Timezone:           info.Timezone,
		DurationSeconds:    durationSeconds,
		StopReason:         info.StopReason,
		PacketsSent:        info.PacketsSent,
		BytesSent:          info.BytesSent,
		SegmentCount:       len(segments),
		TranscriptSegments: out,
		Transcript:         strings.Join(transcriptLines, " "),
	}
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func safeLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
