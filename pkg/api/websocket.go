package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"therapy-notes/pkg/logger"
	"therapy-notes/pkg/models"
	"therapy-notes/pkg/storage"
	"therapy-notes/pkg/transcript"
)

const (
	msgTranscript         = "transcript"
	msgPing               = "ping"
	msgPong               = "pong"
	msgJobReceived        = "job_received"
	msgStatusUpdate       = "status_update"
	msgProcessingComplete = "processing_complete"
	msgProcessingFailed   = "processing_failed"
	msgError              = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketMessage struct {
	Type       string          `json:"type"`
	ClientID   string          `json:"client_id,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	Transcript string          `json:"transcript,omitempty"`
	JobID      string          `json:"job_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// wsConn serializes writes; the read loop and job monitors share the socket.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg WebSocketMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		logger.Debug().Err(err).Str("type", msg.Type).Msg("WS: write failed")
	}
}

func (h *Handlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var monitors sync.WaitGroup
	defer monitors.Wait()

	for {
		var msg WebSocketMessage
		if err := raw.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case msgTranscript:
			if jobID, ok := h.handleTranscript(conn, &msg); ok {
				monitors.Add(1)
				go func() {
					defer monitors.Done()
					h.monitorJob(ctx, conn, jobID)
				}()
			}
		case msgPing:
			conn.send(WebSocketMessage{Type: msgPong})
		default:
			conn.send(WebSocketMessage{Type: msgError, Error: "Unknown message type"})
		}
	}
	cancel()
}

func (h *Handlers) handleTranscript(conn *wsConn, msg *WebSocketMessage) (string, bool) {
	if msg.ClientID == "" || msg.SessionID == "" {
		conn.send(WebSocketMessage{Type: msgError, Error: "client_id and session_id are required"})
		return "", false
	}

	text := transcript.Normalize(msg.Transcript)
	if text == "" {
		conn.send(WebSocketMessage{Type: msgError, Error: "transcript is required"})
		return "", false
	}

	job := models.NewNoteJob(msg.ClientID, msg.SessionID, text)
	if err := h.pipeline.SubmitJob(job); err != nil {
		conn.send(WebSocketMessage{Type: msgError, JobID: job.ID, Error: err.Error()})
		return "", false
	}

	logger.Info().Str("job_id", job.ID).Str("client_id", job.ClientID).Msg("WS: note job submitted")
	conn.send(WebSocketMessage{Type: msgJobReceived, JobID: job.ID, Status: string(job.Status)})
	return job.ID, true
}

// monitorJob polls the job and reports each status change until it
// completes or fails.
func (h *Handlers) monitorJob(ctx context.Context, conn *wsConn, jobID string) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var last models.ProcessingStatus
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := h.memStore.GetJob(jobID)
			if err != nil {
				if !errors.Is(err, storage.ErrJobNotFound) {
					conn.send(WebSocketMessage{Type: msgError, JobID: jobID, Error: err.Error()})
				}
				return
			}

			if job.Status != last {
				last = job.Status
				conn.send(WebSocketMessage{Type: msgStatusUpdate, JobID: jobID, Status: string(job.Status)})
			}

			switch job.Status {
			case models.StatusCompleted:
				data, err := json.Marshal(job)
				if err != nil {
					conn.send(WebSocketMessage{Type: msgError, JobID: jobID, Error: err.Error()})
					return
				}
				conn.send(WebSocketMessage{Type: msgProcessingComplete, JobID: jobID, Data: data})
				return
			case models.StatusFailed:
				logger.Info().Str("job_id", jobID).Str("error", job.Error).Msg("WS: job failed")
				conn.send(WebSocketMessage{Type: msgProcessingFailed, JobID: jobID, Error: job.Error})
				return
			}
		}
	}
}
