package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who spoke an utterance.
type Role string

const (
	RoleTherapist Role = "Therapist"
	RoleClient    Role = "Client"
	// RoleUnknown marks a labeled line whose role prefix could not be parsed.
	RoleUnknown Role = "Unknown"
)

// Segment is a bounded, possibly overlapping slice of the transcript.
type Segment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Attribution struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func (a Attribution) String() string {
	return fmt.Sprintf("%s: %s", a.Role, a.Text)
}

// LabeledConversation renders attributions one "Role: text" per line.
func LabeledConversation(attrs []Attribution) string {
	lines := make([]string, len(attrs))
	for i, a := range attrs {
		lines[i] = a.String()
	}
	return strings.Join(lines, "\n")
}

// ChunkSummary is the accepted summary for one segment.
type ChunkSummary struct {
	SegmentIndex int    `json:"segment_index"`
	Text         string `json:"text"`
	Score        int    `json:"score"`
	Refined      bool   `json:"refined"`
}

// SegmentReport records the quality decision taken for one segment.
type SegmentReport struct {
	SegmentIndex int  `json:"segment_index"`
	InitialScore int  `json:"initial_score"`
	RefinedScore *int `json:"refined_score,omitempty"`
	FinalScore   int  `json:"final_score"`
	Accepted     bool `json:"accepted_refinement"`
}

type NoteJob struct {
	ID           string           `json:"id"`
	ClientID     string           `json:"client_id"`
	SessionID    string           `json:"session_id"`
	Transcript   string           `json:"-"`
	Size         int              `json:"size"`
	Segments     int              `json:"segments"`
	Reports      []SegmentReport  `json:"reports,omitempty"`
	MeanScore    float64          `json:"mean_score"`
	PartialNotes []string         `json:"partial_notes,omitempty"`
	FinalNote    string           `json:"final_note,omitempty"`
	Status       ProcessingStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	CompletedAt  time.Time        `json:"completed_at,omitempty"`
}

// Clone returns a copy that shares no slices with j.
func (j *NoteJob) Clone() *NoteJob {
	c := *j
	c.Reports = append([]SegmentReport(nil), j.Reports...)
	c.PartialNotes = append([]string(nil), j.PartialNotes...)
	return &c
}

type ProcessingStatus string

const (
	StatusPending     ProcessingStatus = "pending"
	StatusSegmenting  ProcessingStatus = "segmenting"
	StatusSummarizing ProcessingStatus = "summarizing"
	StatusComposing   ProcessingStatus = "composing"
	StatusRendering   ProcessingStatus = "rendering"
	StatusCompleted   ProcessingStatus = "completed"
	StatusFailed      ProcessingStatus = "failed"
)

func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// PipelineMessage carries one job between pipeline stages.
type PipelineMessage struct {
	Job       *NoteJob
	Segments  []Segment
	Summaries []ChunkSummary
	HTML      string
	Stage     string
	// Deadline bounds the whole job across stages.
	Deadline time.Time
}

func NewNoteJob(clientID, sessionID, transcript string) *NoteJob {
	return &NoteJob{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		SessionID:   sessionID,
		Transcript:  transcript,
		Size:        len(transcript),
		Status:      StatusPending,
		SubmittedAt: time.Now(),
	}
}

// Fail moves the job to the failed state and records err.
func (j *NoteJob) Fail(err error) {
	j.Status = StatusFailed
	j.Error = err.Error()
	j.CompletedAt = time.Now()
}
