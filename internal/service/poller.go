package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smsbridge/pkg/logger"
	"smsbridge/pkg/metrics"
	"smsbridge/pkg/retry"
	"smsbridge/pkg/trace"
)

// Poller drives the pipeline on a fixed period. Each cycle runs strictly
// sequentially (fetch, diff, deliver one message at a time) so task
// ordering stays deterministic and the task service is never hit with a
// burst. Any cycle error is absorbed at the cycle boundary; one bad
// cycle never terminates the process.
type Poller struct {
	detector     *Detector
	pipeline     *Pipeline
	queue        *RetryQueue
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *zap.Logger
}

func NewPoller(detector *Detector, pipeline *Pipeline, queue *RetryQueue, interval, cycleTimeout time.Duration, log *zap.Logger) *Poller {
	return &Poller{
		detector:     detector,
		pipeline:     pipeline,
		queue:        queue,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       log,
	}
}

// Run captures the baseline snapshot and then polls until ctx is
// cancelled. A baseline failure is returned to the caller: the service
// must not start without a comparison point.
func (p *Poller) Run(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(trace.WithContext(ctx, trace.GenerateTraceID()), p.cycleTimeout)
	err := p.detector.Initialize(initCtx)
	cancel()
	if err != nil {
		return err
	}

	p.logger.Info("Poll loop started",
		zap.Duration("interval", p.interval),
		zap.Int("baseline_messages", p.detector.SnapshotSize()),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poll loop stopped")
			return nil
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// runCycle executes one poll cycle under its own trace ID and timeout.
func (p *Poller) runCycle(parent context.Context) {
	ctx := trace.WithContext(parent, trace.GenerateTraceID())
	ctx, cancel := context.WithTimeout(ctx, p.cycleTimeout)
	defer cancel()

	log := logger.WithTrace(ctx, p.logger)
	start := time.Now()

	// Retries queued by earlier cycles go first so delivery order stays
	// close to arrival order.
	retried := p.deliverRetries(ctx, log)

	delta, err := p.detector.Poll(ctx)
	if err != nil {
		log.Error("Poll failed, keeping previous snapshot", zap.Error(err))
		metrics.RecordPollCycle("failed", time.Since(start))
		return
	}

	if len(delta) == 0 && retried == 0 {
		log.Debug("No new mail")
		metrics.RecordPollCycle("success", time.Since(start))
		return
	}

	delivered := 0
	for _, msg := range delta {
		log.Info("New message",
			zap.String("message_id", idTail(msg.ID)),
			zap.String("sender", msg.Sender.DisplayName()),
		)
		result := p.pipeline.Deliver(ctx, msg)
		if result.Status != StatusFailed {
			if result.Status == StatusDelivered {
				delivered++
			}
			continue
		}
		if retryable, label := retry.IsRetryable(result.Err); retryable {
			p.queue.Enqueue(msg)
		} else {
			metrics.IncrementDelivery("dropped")
			log.Error("Delivery failed permanently",
				zap.String("message_id", idTail(msg.ID)),
				zap.String("classification", label),
				zap.Error(result.Err),
			)
		}
	}

	log.Info("Poll cycle complete",
		zap.Int("new_messages", len(delta)),
		zap.Int("delivered", delivered),
		zap.Int("retried", retried),
		zap.Int("retry_queue", p.queue.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	metrics.RecordPollCycle("success", time.Since(start))
}

// deliverRetries drains the due part of the retry queue and returns the
// number of attempts made.
func (p *Poller) deliverRetries(ctx context.Context, log *zap.Logger) int {
	due := p.queue.Due()
	for _, entry := range due {
		result := p.pipeline.Deliver(ctx, entry.Message)
		if result.Status != StatusFailed {
			continue
		}
		if retryable, label := retry.IsRetryable(result.Err); retryable {
			p.queue.Requeue(entry)
		} else {
			metrics.IncrementDelivery("dropped")
			log.Error("Retried delivery failed permanently",
				zap.String("message_id", idTail(entry.Message.ID)),
				zap.String("classification", label),
				zap.Error(result.Err),
			)
		}
	}
	return len(due)
}
