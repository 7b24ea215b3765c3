package pipeline

import (
	"context"
	"fmt"
	"time"

	"therapy-notes/pkg/logger"
	"therapy-notes/pkg/models"
	"therapy-notes/pkg/render"
)

func (m *Manager) segmentJob(ctx context.Context, msg *models.PipelineMessage) {
	msg.Stage = "segmentation"
	m.setStatus(msg, models.StatusSegmenting)

	msg.Segments = m.processor.Segment(msg.Job.Transcript)
	if len(msg.Segments) == 0 {
		m.fail(msg, ErrEmptyTranscript)
		return
	}
	msg.Job.Segments = len(msg.Segments)

	logger.Info().
		Str("job_id", msg.Job.ID).
		Int("segments", len(msg.Segments)).
		Msg("Segmentation Stage: transcript split")

	m.forward(m.summaryCh, msg)
}

func (m *Manager) summarizeJob(ctx context.Context, msg *models.PipelineMessage) {
	msg.Stage = "summarization"
	m.setStatus(msg, models.StatusSummarizing)

	jobCtx, cancel := jobContext(ctx, msg)
	defer cancel()

	summaries, reports, err := m.processor.SummarizeAll(jobCtx, msg.Segments)
	if err != nil {
		m.fail(msg, fmt.Errorf("summarization: %w", err))
		return
	}
	msg.Summaries = summaries
	msg.Job.Reports = reports
	msg.Job.MeanScore = MeanScore(reports)

	for _, r := range reports {
		event := logger.Info().
			Str("job_id", msg.Job.ID).
			Int("segment", r.SegmentIndex).
			Int("score", r.InitialScore)
		if r.RefinedScore != nil {
			event = event.Int("new_score", *r.RefinedScore).Bool("accepted", r.Accepted)
		}
		event.Msg("Summarization Stage: segment scored")
	}
	logger.Info().
		Str("job_id", msg.Job.ID).
		Float64("mean_score", msg.Job.MeanScore).
		Msg("Summarization Stage: all segments summarized")

	m.forward(m.compositionCh, msg)
}

func (m *Manager) composeJob(ctx context.Context, msg *models.PipelineMessage) {
	msg.Stage = "composition"
	m.setStatus(msg, models.StatusComposing)

	jobCtx, cancel := jobContext(ctx, msg)
	defer cancel()

	partials, final, err := m.processor.Compose(jobCtx, msg.Summaries)
	if err != nil {
		m.fail(msg, fmt.Errorf("composition: %w", err))
		return
	}
	msg.Job.PartialNotes = partials
	msg.Job.FinalNote = final

	m.setStatus(msg, models.StatusRendering)
	msg.HTML = render.Render(final)

	logger.Info().
		Str("job_id", msg.Job.ID).
		Int("html_bytes", len(msg.HTML)).
		Msg("Composition Stage: note rendered")

	m.forward(m.storageCh, msg)
}

func (m *Manager) storeJob(ctx context.Context, msg *models.PipelineMessage) {
	msg.Stage = "storage"

	if err := m.diskStore.StoreNote(msg.Job.ID, msg.HTML); err != nil {
		m.fail(msg, fmt.Errorf("failed to store note on disk: %w", err))
		return
	}

	msg.Job.Status = models.StatusCompleted
	msg.Job.CompletedAt = time.Now()
	if err := m.diskStore.StoreJob(msg.Job); err != nil {
		m.fail(msg, fmt.Errorf("failed to store job on disk: %w", err))
		return
	}
	if err := m.memStore.StoreJob(msg.Job); err != nil {
		logger.Error().Err(err).Str("job_id", msg.Job.ID).Msg("Storage Stage: memory store failed")
		return
	}

	logger.Info().
		Str("job_id", msg.Job.ID).
		Dur("elapsed", msg.Job.CompletedAt.Sub(msg.Job.SubmittedAt)).
		Msg("Storage Stage: job completed")
}

func (m *Manager) setStatus(msg *models.PipelineMessage, status models.ProcessingStatus) {
	msg.Job.Status = status
	if err := m.memStore.StoreJob(msg.Job); err != nil {
		logger.Error().Err(err).Str("job_id", msg.Job.ID).Msg("Pipeline: status update failed")
	}
}

// fail records the failure in both stores. No note is stored for a failed job.
func (m *Manager) fail(msg *models.PipelineMessage, err error) {
	msg.Job.Fail(err)
	logger.Error().Err(err).Str("job_id", msg.Job.ID).Str("stage", msg.Stage).Msg("Pipeline: job failed")

	if err := m.memStore.StoreJob(msg.Job); err != nil {
		logger.Error().Err(err).Str("job_id", msg.Job.ID).Msg("Pipeline: memory store failed")
	}
	if err := m.diskStore.StoreJob(msg.Job); err != nil {
		logger.Error().Err(err).Str("job_id", msg.Job.ID).Msg("Pipeline: disk store failed")
	}
}

func jobContext(ctx context.Context, msg *models.PipelineMessage) (context.Context, context.CancelFunc) {
	if msg.Deadline.IsZero() {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, msg.Deadline)
}
