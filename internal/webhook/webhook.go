package webhook

import "context"

const TranscriptWebhookSchemaVersion = 1

type TranscriptWebhookSegment struct {
	Index      int    `json:"index"`
	SpokenAt   string `json:"spoken_at"`
	Transcript string `json:"transcript"`
}

type TranscriptWebhookPayload struct {
	SchemaVersion      int                        `json:"schema_version"`
	SessionID          string                     `json:"session_id"`
	Endpoint           string                     `json:"endpoint"`
	StartAt            string                     `json:"start_at"`
	EndAt              string                     `json:"end_at"`
	Timezone           string                     `json:"timezone"`
	DurationSeconds    int64                      `json:"duration_seconds"`
	StopReason         string                     `json:"stop_reason"`
	PacketsSent        uint64                     `json:"packets_sent"`
	BytesSent          uint64                     `json:"bytes_sent"`
	SegmentCount       int                        `json:"segment_count"`
	TranscriptSegments []TranscriptWebhookSegment `json:"transcript_segments"`
	Transcript         string                     `json:"transcript"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
