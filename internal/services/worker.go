package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(docID uuid.UUID)
}

type worker struct {
	docRepo      repositories.DocumentRepository
	indexService IndexService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *zap.Logger
}

func NewWorker(
	docRepo repositories.DocumentRepository,
	indexService IndexService,
	concurrency int,
	pollInterval time.Duration,
	l *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	return &worker{
		docRepo:      docRepo,
		indexService: indexService,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		logger:       logger.OrNop(l),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting index worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	w.logger.Info("index worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(docID uuid.UUID) {
	select {
	case w.jobQueue <- docID:
		w.logger.Debug("index job enqueued", zap.String("document_id", docID.String()))
	case <-w.stopChan:
		w.logger.Warn("worker stopped, cannot enqueue job", zap.String("document_id", docID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case docID := <-w.jobQueue:
			if err := w.indexService.IndexDocument(ctx, docID); err != nil {
				w.logger.Error("index job failed",
					zap.Int("worker", workerID),
					zap.String("document_id", docID.String()),
					zap.Error(err),
				)
				continue
			}
			w.logger.Debug("index job completed", zap.Int("worker", workerID), zap.String("document_id", docID.String()))
		}
	}
}

// pollPendingJobs re-enqueues documents left queued, e.g. across restarts.
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
			pending, err := w.docRepo.FindPendingJobs(10)
			if err != nil {
				w.logger.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			for _, doc := range pending {
				w.EnqueueJob(doc.ID)
			}
		}
	}
}
