// Package models defines the transcript event payloads shared by the
// printer, the status server, and the Kafka publisher.
package models

// TranscriptPartial is an interim result; later partials and the final
// for the same segment supersede it.
type TranscriptPartial struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	SegmentID string `json:"segmentId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// TranscriptFinal is a confirmed result for one utterance segment.
type TranscriptFinal struct {
	EventType     string  `json:"eventType"`
	SessionID     string  `json:"sessionId"`
	SegmentID     string  `json:"segmentId"`
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	AudioOffsetMs int64   `json:"audioOffsetMs"`
	Timestamp     int64   `json:"timestamp"`
}

// Event type markers carried in the payloads.
const (
	EventTranscriptPartial = "transcript.partial"
	EventTranscriptFinal   = "transcript.final"
)
