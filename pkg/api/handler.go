package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"therapy-notes/pkg/logger"
	"therapy-notes/pkg/models"
	"therapy-notes/pkg/pipeline"
	"therapy-notes/pkg/storage"
	"therapy-notes/pkg/transcript"
)

const (
	maxUploadSize      = 32 << 20
	defaultListLimit   = 50
	statusPollInterval = 500 * time.Millisecond
)

// JobSubmitter queues note jobs. *pipeline.Manager satisfies it.
type JobSubmitter interface {
	SubmitJob(job *models.NoteJob) error
}

type Handlers struct {
	pipeline  JobSubmitter
	memStore  storage.MemoryStore
	diskStore storage.DiskStore

	pollInterval time.Duration
}

func NewHandlers(submitter JobSubmitter, memStore storage.MemoryStore, diskStore storage.DiskStore) *Handlers {
	return &Handlers{
		pipeline:     submitter,
		memStore:     memStore,
		diskStore:    diskStore,
		pollInterval: statusPollInterval,
	}
}

// NewRouter wires every route onto a gorilla/mux router.
func NewRouter(h *Handlers) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/notes", h.SubmitNoteHandler).Methods(http.MethodPost)
	router.HandleFunc("/notes/{id}", h.GetNoteHandler).Methods(http.MethodGet)
	router.HandleFunc("/notes/{id}/html", h.GetNoteHTMLHandler).Methods(http.MethodGet)
	router.HandleFunc("/clients/{client_id}/notes", h.GetClientNotesHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", h.WebSocketHandler)
	return router
}

// SubmitNoteHandler accepts a transcript as a multipart file or a plain form
// field named "transcript".
func (h *Handlers) SubmitNoteHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	clientID := r.FormValue("client_id")
	sessionID := r.FormValue("session_id")
	if clientID == "" || sessionID == "" {
		http.Error(w, "client_id and session_id are required", http.StatusBadRequest)
		return
	}

	text, err := readTranscript(r)
	if err != nil {
		http.Error(w, "Failed to read transcript", http.StatusBadRequest)
		return
	}
	if text == "" {
		http.Error(w, "transcript is required", http.StatusBadRequest)
		return
	}

	job := models.NewNoteJob(clientID, sessionID, text)
	if err := h.pipeline.SubmitJob(job); err != nil {
		logger.Warn().Err(err).Str("job_id", job.ID).Msg("API: submit rejected")
		http.Error(w, "Failed to submit transcript: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	logger.Info().
		Str("job_id", job.ID).
		Str("client_id", clientID).
		Int("size", job.Size).
		Msg("API: note job submitted")

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
		"size":   job.Size,
	})
}

func readTranscript(r *http.Request) (string, error) {
	file, _, err := r.FormFile("transcript")
	if err == nil {
		defer file.Close()
		return transcript.Read(file)
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return "", err
	}
	return transcript.Normalize(r.FormValue("transcript")), nil
}

func (h *Handlers) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.lookupJob(id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetNoteHTMLHandler serves the rendered note once its job has completed.
func (h *Handlers) GetNoteHTMLHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.lookupJob(id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}
	if job.Status != models.StatusCompleted {
		http.Error(w, "note not ready: job is "+string(job.Status), http.StatusNotFound)
		return
	}

	html, err := h.diskStore.GetNote(id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

// GetClientNotesHandler lists a client's jobs, live ones from memory and
// finished ones from disk, newest first.
func (h *Handlers) GetClientNotesHandler(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["client_id"]

	live, err := h.memStore.GetClientJobs(clientID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	persisted, err := h.diskStore.ListClientJobs(clientID)
	if err != nil {
		logger.Error().Err(err).Str("client_id", clientID).Msg("API: list persisted jobs failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	jobs := mergeJobs(live, persisted)

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"client_id": clientID,
		"notes":     jobs,
		"count":     len(jobs),
	})
}

// lookupJob prefers the live copy and falls back to disk for jobs finished
// before a restart.
func (h *Handlers) lookupJob(id string) (*models.NoteJob, error) {
	job, err := h.memStore.GetJob(id)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, storage.ErrJobNotFound) {
		return nil, err
	}
	return h.diskStore.GetJob(id)
}

func (h *Handlers) writeLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrJobNotFound) || errors.Is(err, storage.ErrNoteNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	logger.Error().Err(err).Str("job_id", id).Msg("API: lookup failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// mergeJobs keeps one entry per id, preferring the live copy, ordered newest
// first.
func mergeJobs(live, persisted []*models.NoteJob) []*models.NoteJob {
	seen := make(map[string]bool, len(live))
	out := make([]*models.NoteJob, 0, len(live)+len(persisted))
	for _, job := range live {
		seen[job.ID] = true
		out = append(out, job)
	}
	for _, job := range persisted {
		if !seen[job.ID] {
			out = append(out, job)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("API: encode response failed")
	}
}

var _ JobSubmitter = (*pipeline.Manager)(nil)
