package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/metrics"
	"github.com/adminkit/toggle/internal/models"
)

// DefaultAuditQueueSize is used when NewAuditWorker is given a non-positive size.
const DefaultAuditQueueSize = 1000

// auditWriteTimeout bounds a single delivery to the auditor.
const auditWriteTimeout = 10 * time.Second

// AuditJob represents a single audit entry to be recorded.
type AuditJob struct {
	Entry models.AuditEntry
}

// AuditEnqueuer accepts audit jobs without blocking the caller.
type AuditEnqueuer interface {
	Enqueue(job *AuditJob)
}

// AuditWorker buffers audit entries and writes them via a single worker goroutine.
type AuditWorker struct {
	auditor Auditor
	log     *logrus.Logger
	jobs    chan *AuditJob
}

// NewAuditWorker creates an AuditWorker with the given queue capacity.
func NewAuditWorker(auditor Auditor, log *logrus.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = DefaultAuditQueueSize
	}
	return &AuditWorker{
		auditor: auditor,
		log:     log,
		jobs:    make(chan *AuditJob, queueSize),
	}
}

// Enqueue adds an audit job. Non-blocking; drops the job if the queue is full.
func (w *AuditWorker) Enqueue(job *AuditJob) {
	select {
	case w.jobs <- job:
		metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
	default:
		metrics.AuditDroppedTotal.Inc()
		w.log.WithFields(logrus.Fields{
			"action":      job.Entry.Action,
			"resource":    job.Entry.Resource,
			"resource_id": job.Entry.ResourceID,
		}).Warn("audit queue full, dropping entry")
	}
}

// Len returns the number of queued jobs.
func (w *AuditWorker) Len() int {
	return len(w.jobs)
}

// Run processes audit jobs until the context is cancelled, then drains remaining jobs.
func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *AuditWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *AuditWorker) process(job *AuditJob) {
	metrics.AuditQueueDepth.Set(float64(len(w.jobs)))

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := w.auditor.RecordAudit(ctx, job.Entry); err != nil {
		w.log.WithError(err).WithField("action", job.Entry.Action).Warn("audit record failed")
	}
}
