package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(candidateID uuid.UUID)
}

// CandidateProcessor screens one queued candidate.
type CandidateProcessor interface {
	ProcessCandidate(ctx context.Context, candidateID uuid.UUID) error
}

// PendingSource lists candidates left in the queued state, e.g. after a restart.
type PendingSource interface {
	FindPendingJobs(limit int) ([]models.Candidate, error)
}

type worker struct {
	pending      PendingSource
	processor    CandidateProcessor
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	inFlight     sync.Map
	log          *zap.Logger
}

func NewWorker(
	pending PendingSource,
	processor CandidateProcessor,
	concurrency int,
	pollInterval time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &worker{
		pending:      pending,
		processor:    processor,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		log:          logger.WithFields(log, zap.String("component", "worker")),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	if w.pending != nil && w.pollInterval > 0 {
		w.wg.Add(1)
		go w.pollPendingJobs(ctx)
	}
}

// Stop implements Worker. Jobs already running finish; queued ones are left
// for the poller of the next process.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping worker")
		close(w.stopChan)
	})
	w.wg.Wait()
	w.log.Info("worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(candidateID uuid.UUID) {
	if _, busy := w.inFlight.LoadOrStore(candidateID, struct{}{}); busy {
		return
	}

	select {
	case w.jobQueue <- candidateID:
		w.log.Debug("job enqueued", zap.String(logger.FieldCandidateID, candidateID.String()))
	case <-w.stopChan:
		w.inFlight.Delete(candidateID)
		w.log.Warn("worker stopped, cannot enqueue job", zap.String(logger.FieldCandidateID, candidateID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case candidateID := <-w.jobQueue:
			log.Info("processing candidate", zap.String(logger.FieldCandidateID, candidateID.String()))
			if err := w.processor.ProcessCandidate(ctx, candidateID); err != nil {
				log.Error("failed to process candidate", zap.String(logger.FieldCandidateID, candidateID.String()), zap.Error(err))
			} else {
				log.Info("candidate processed", zap.String(logger.FieldCandidateID, candidateID.String()))
			}
			w.inFlight.Delete(candidateID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.pending.FindPendingJobs(10)
			if err != nil {
				w.log.Warn("failed to fetch pending candidates", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.log.Info("found pending candidates", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
