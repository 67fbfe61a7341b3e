package activity

import (
	"context"
	"time"

	"github.com/medforce/activity-agent/internal/model"
	"github.com/medforce/activity-agent/pkg/logger"
)

func (s *Service) enqueue(entry *model.RetryEntry) {
	s.mu.Lock()
	s.queue = append(s.queue, entry)
	depth := len(s.queue)
	s.mu.Unlock()
	s.metrics.QueueDepth.Set(float64(depth))
}

// QueueDepth returns the number of entries awaiting retry.
func (s *Service) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// DrainOnce processes at most one queued entry. A failed attempt increments
// the entry's retry count and re-enqueues it at the tail, until the count
// reaches the cap and the entry is dropped for good. Draining one entry per
// tick keeps retry traffic at a fixed trickle regardless of queue depth.
func (s *Service) DrainOnce(ctx context.Context) {
	s.mu.Lock()
	if !s.enabled || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	entry := s.queue[0]
	s.queue = s.queue[1:]
	depth := len(s.queue)
	s.mu.Unlock()
	s.metrics.QueueDepth.Set(float64(depth))

	s.metrics.RetriesAttempted.WithLabelValues(string(entry.Type)).Inc()
	_, err := s.submit(ctx, Input{
		Type:       entry.Type,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		TargetName: entry.TargetName,
		Details:    entry.Details,
		Hints:      entry.Hints,
	})
	if err == nil {
		return
	}

	entry.RetryCount++
	if entry.RetryCount >= s.cfg.MaxRetries {
		s.logger.Warn("dropping activity after exhausting retries",
			"type", string(entry.Type), "target_id", entry.TargetID,
			"retries", entry.RetryCount)
		s.metrics.RetriesDropped.WithLabelValues(string(entry.Type)).Inc()
		return
	}
	s.enqueue(entry)
}

// RetryWorker drains the service's retry queue, one entry per tick.
type RetryWorker struct {
	svc      *Service
	interval time.Duration
	logger   *logger.Logger
}

func NewRetryWorker(svc *Service, log *logger.Logger) *RetryWorker {
	return &RetryWorker{
		svc:      svc,
		interval: svc.cfg.RetryInterval,
		logger:   log.WithComponent("retry_worker"),
	}
}

// Start blocks until ctx is cancelled. Pending entries are deliberately
// lost on shutdown; the queue is session-scoped state.
func (w *RetryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting retry worker", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down retry worker",
				"dropped_entries", w.svc.QueueDepth())
			return
		case <-ticker.C:
			w.svc.DrainOnce(ctx)
		}
	}
}
