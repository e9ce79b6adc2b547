package service

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"smsbridge/internal/model"
	"smsbridge/pkg/metrics"
)

// retryInitialInterval is the first retry delay. With a 90s poll period
// most retries land on the next cycle anyway; the backoff matters when
// the loop is run faster.
const retryInitialInterval = 30 * time.Second

// pendingDelivery is one message whose task creation failed transiently
// and is waiting for another attempt.
type pendingDelivery struct {
	Message  model.Message
	Attempts int

	bo          backoff.BackOff
	nextAttempt time.Time
}

// RetryQueue holds failed deliveries across poll cycles, decoupled from
// snapshot membership: a message that already entered the snapshot will
// never reappear in a delta, so without this queue a transient task-
// creation failure would silently lose it. In-memory only; a restart
// drops the queue.
type RetryQueue struct {
	entries    []*pendingDelivery
	maxRetries int
	logger     *zap.Logger
	now        func() time.Time
}

func NewRetryQueue(maxRetries int, logger *zap.Logger) *RetryQueue {
	return &RetryQueue{
		maxRetries: maxRetries,
		logger:     logger,
		now:        time.Now,
	}
}

// Enqueue admits a message after its first failed delivery.
func (q *RetryQueue) Enqueue(msg model.Message) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = retryInitialInterval
	exp.MaxElapsedTime = 0 // bounded by attempt count, not wall time
	bo := backoff.WithMaxRetries(exp, uint64(q.maxRetries))

	entry := &pendingDelivery{
		Message:     msg,
		Attempts:    1,
		bo:          bo,
		nextAttempt: q.now().Add(bo.NextBackOff()),
	}
	q.entries = append(q.entries, entry)
	metrics.SetRetryQueueDepth(len(q.entries))

	q.logger.Info("Delivery queued for retry",
		zap.String("message_id", idTail(msg.ID)),
		zap.Time("next_attempt", entry.nextAttempt),
	)
}

// Requeue re-admits an entry after another failed attempt. It returns
// false when the retry budget is exhausted and the message is dropped.
func (q *RetryQueue) Requeue(entry *pendingDelivery) bool {
	entry.Attempts++
	next := entry.bo.NextBackOff()
	if next == backoff.Stop {
		metrics.IncrementDelivery("dropped")
		q.logger.Error("Delivery retries exhausted, message lost",
			zap.String("message_id", idTail(entry.Message.ID)),
			zap.Int("attempts", entry.Attempts),
		)
		metrics.SetRetryQueueDepth(len(q.entries))
		return false
	}

	entry.nextAttempt = q.now().Add(next)
	q.entries = append(q.entries, entry)
	metrics.SetRetryQueueDepth(len(q.entries))
	return true
}

// Due removes and returns the entries whose next attempt is due,
// preserving enqueue order.
func (q *RetryQueue) Due() []*pendingDelivery {
	now := q.now()
	var due []*pendingDelivery
	var rest []*pendingDelivery
	for _, e := range q.entries {
		if e.nextAttempt.After(now) {
			rest = append(rest, e)
			continue
		}
		due = append(due, e)
	}
	q.entries = rest
	metrics.SetRetryQueueDepth(len(q.entries))
	return due
}

// Len returns the number of waiting entries.
func (q *RetryQueue) Len() int { return len(q.entries) }
