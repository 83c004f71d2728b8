package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/nulzo/prism-local/internal/store"
	"github.com/nulzo/prism-local/internal/store/model"
	"go.uber.org/zap"
)

const (
	defaultBufferSize = 10000
	defaultBatchSize  = 50
	defaultFlushEvery = 5 * time.Second
)

// Ingestor handles the asynchronous persistence of request logs.
type Ingestor interface {
	Log(log *model.RequestLog)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	logChan   chan *model.RequestLog
	batchSize int
	flushTime time.Duration

	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

func NewIngestor(logger *zap.Logger, repo store.Repository) Ingestor {
	return newIngestor(logger, repo, defaultBufferSize, defaultBatchSize, defaultFlushEvery)
}

func newIngestor(logger *zap.Logger, repo store.Repository, buffer, batch int, flush time.Duration) *ingestor {
	return &ingestor{
		logger:    logger,
		repo:      repo,
		logChan:   make(chan *model.RequestLog, buffer),
		batchSize: batch,
		flushTime: flush,
		done:      make(chan struct{}),
	}
}

// Log never blocks the request path. When the buffer is full the entry is dropped.
func (i *ingestor) Log(log *model.RequestLog) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return
	}

	select {
	case i.logChan <- log:
	default:
		i.logger.Warn("analytics buffer full, dropping log", zap.String("request_id", log.ID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.closed {
		return
	}
	i.started = true
	go i.worker(ctx)
}

// Stop flushes whatever is buffered and returns once the worker has exited.
func (i *ingestor) Stop() {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		<-i.done
		return
	}
	i.closed = true
	close(i.logChan)
	if !i.started {
		close(i.done)
	}
	i.mu.Unlock()
	<-i.done
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.RequestLog, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		err := i.repo.WithTx(context.Background(), func(repo store.Repository) error {
			for _, log := range batch {
				if err := repo.Requests().Log(context.Background(), log); err != nil {
					i.logger.Error("failed to persist request log", zap.String("id", log.ID), zap.Error(err))
				}
			}
			return nil
		})
		if err != nil {
			i.logger.Error("failed to flush request logs", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case log, ok := <-i.logChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, log)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			// drain what is already queued
			for {
				select {
				case log, ok := <-i.logChan:
					if !ok {
						flush()
						return
					}
					batch = append(batch, log)
				default:
					flush()
					return
				}
			}
		}
	}
}

type nopIngestor struct{}

// NewNopIngestor returns an Ingestor that discards everything. Used when the
// database is disabled.
func NewNopIngestor() Ingestor { return nopIngestor{} }

func (nopIngestor) Log(*model.RequestLog) {}
func (nopIngestor) Start(context.Context) {}
func (nopIngestor) Stop()                 {}
