package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"therapy-notes/pkg/config"
	"therapy-notes/pkg/logger"
	"therapy-notes/pkg/models"
	"therapy-notes/pkg/storage"
)

var (
	ErrQueueFull    = errors.New("pipeline queue is full")
	ErrShuttingDown = errors.New("pipeline is shutting down")
)

// Manager moves submitted jobs through the note stages, each backed by its
// own worker pool. Job state is published to the memory store after every
// transition; finished jobs and their HTML go to the disk store.
type Manager struct {
	config    config.PipelineConfig
	processor *Processor
	memStore  storage.MemoryStore
	diskStore storage.DiskStore

	// Pipeline channels
	ingestionCh    chan *models.NoteJob
	segmentationCh chan *models.PipelineMessage
	summaryCh      chan *models.PipelineMessage
	compositionCh  chan *models.PipelineMessage
	storageCh      chan *models.PipelineMessage

	// Worker pools
	segmentationPool *WorkerPool
	summaryPool      *WorkerPool
	compositionPool  *WorkerPool
	storagePool      *WorkerPool

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(cfg config.PipelineConfig, processor *Processor, memStore storage.MemoryStore, diskStore storage.DiskStore) *Manager {
	return &Manager{
		config:    cfg,
		processor: processor,
		memStore:  memStore,
		diskStore: diskStore,

		ingestionCh:    make(chan *models.NoteJob, cfg.QueueSize),
		segmentationCh: make(chan *models.PipelineMessage, cfg.QueueSize),
		summaryCh:      make(chan *models.PipelineMessage, cfg.QueueSize),
		compositionCh:  make(chan *models.PipelineMessage, cfg.QueueSize),
		storageCh:      make(chan *models.PipelineMessage, cfg.QueueSize),
	}
}

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()
	logger.Info().Msg("Pipeline Manager: starting")

	m.segmentationPool = NewWorkerPool("segmentation", m.config.SegmentationWorkers, m.segmentJob)
	m.summaryPool = NewWorkerPool("summarization", m.config.SummaryWorkers, m.summarizeJob)
	m.compositionPool = NewWorkerPool("composition", m.config.CompositionWorkers, m.composeJob)
	m.storagePool = NewWorkerPool("storage", m.config.StorageWorkers, m.storeJob)

	for _, pool := range m.pools() {
		pool.Start(m.ctx)
	}

	m.wg.Add(5)
	go m.runIngestionStage()
	go m.runStage(m.segmentationCh, m.segmentationPool)
	go m.runStage(m.summaryCh, m.summaryPool)
	go m.runStage(m.compositionCh, m.compositionPool)
	go m.runStage(m.storageCh, m.storagePool)

	return nil
}

func (m *Manager) Stop() {
	logger.Info().Msg("Pipeline Manager: stopping")
	m.mu.RLock()
	cancel := m.cancel
	m.mu.RUnlock()
	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
	for _, pool := range m.pools() {
		pool.Stop()
	}
	logger.Info().Msg("Pipeline Manager: stopped")
}

func (m *Manager) pools() []*WorkerPool {
	return []*WorkerPool{m.segmentationPool, m.summaryPool, m.compositionPool, m.storagePool}
}

// SubmitJob queues job without blocking. The pending job is visible in the
// memory store as soon as SubmitJob returns nil. The stages work on a copy,
// so job stays owned by the caller.
func (m *Manager) SubmitJob(job *models.NoteJob) error {
	m.mu.RLock()
	ctx := m.ctx
	m.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return ErrShuttingDown
	}

	if err := m.memStore.StoreJob(job); err != nil {
		return err
	}

	select {
	case m.ingestionCh <- job.Clone():
		logger.Info().Str("job_id", job.ID).Int("size", job.Size).Msg("Pipeline Manager: job submitted")
		return nil
	case <-ctx.Done():
		_ = m.memStore.DeleteJob(job.ID)
		return ErrShuttingDown
	default:
		_ = m.memStore.DeleteJob(job.ID)
		logger.Warn().Str("job_id", job.ID).Msg("Pipeline Manager: queue is full")
		return ErrQueueFull
	}
}

func (m *Manager) runIngestionStage() {
	defer m.wg.Done()

	for {
		select {
		case job := <-m.ingestionCh:
			msg := &models.PipelineMessage{Job: job, Stage: "ingestion"}
			if m.config.ProcessingTimeout > 0 {
				msg.Deadline = time.Now().Add(m.config.ProcessingTimeout)
			}
			if !m.forward(m.segmentationCh, msg) {
				return
			}

		case <-m.ctx.Done():
			logger.Debug().Msg("Ingestion Stage: shutting down")
			return
		}
	}
}

func (m *Manager) runStage(in <-chan *models.PipelineMessage, pool *WorkerPool) {
	defer m.wg.Done()

	for {
		select {
		case msg := <-in:
			if !pool.Submit(m.ctx, msg) {
				return
			}

		case <-m.ctx.Done():
			logger.Debug().Str("stage", pool.name).Msg("Stage: shutting down")
			return
		}
	}
}

// forward hands msg to the next stage. It returns false once the manager is
// shutting down.
func (m *Manager) forward(next chan<- *models.PipelineMessage, msg *models.PipelineMessage) bool {
	select {
	case next <- msg:
		return true
	case <-m.ctx.Done():
		return false
	}
}
