package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"smsbridge/internal/model"
	"smsbridge/pkg/logger"
	"smsbridge/pkg/metrics"
)

// ErrNotPrimed is returned when Poll is called before Initialize.
var ErrNotPrimed = errors.New("detector has no baseline snapshot yet")

// Detector owns the rolling snapshot and computes the per-poll delta:
// messages present in the current fetch but absent from the snapshot,
// restricted to whitelisted senders. The snapshot is replaced wholesale
// after a successful fetch and left untouched on any fetch error, so a
// failed poll retries against the same baseline.
type Detector struct {
	mail       MailGateway
	normalizer *Normalizer
	fetchLimit int
	logger     *zap.Logger

	snapshot model.Snapshot
	primed   bool
}

func NewDetector(mail MailGateway, normalizer *Normalizer, fetchLimit int, log *zap.Logger) *Detector {
	return &Detector{
		mail:       mail,
		normalizer: normalizer,
		fetchLimit: fetchLimit,
		logger:     log,
	}
}

// Initialize performs the baseline fetch. Messages visible at this point
// count as already-known history and are never delivered.
func (d *Detector) Initialize(ctx context.Context) error {
	current, err := d.fetchCurrent(ctx)
	if err != nil {
		return err
	}

	d.snapshot = model.Snapshot{Messages: current, CapturedAt: time.Now()}
	d.primed = true

	log := logger.WithTrace(ctx, d.logger)
	log.Info("Baseline snapshot captured",
		zap.Int("message_count", len(current)),
	)
	if len(current) > 0 {
		newest := current[0]
		log.Info("Newest message at baseline",
			zap.String("message_id", idTail(newest.ID)),
			zap.String("sender", newest.Sender.DisplayName()),
			zap.String("body", newest.SMSBody),
		)
	}
	return nil
}

// Poll fetches the current mailbox state and returns the whitelisted
// delta in the provider's newest-first order.
func (d *Detector) Poll(ctx context.Context) ([]model.Message, error) {
	if !d.primed {
		return nil, ErrNotPrimed
	}

	current, err := d.fetchCurrent(ctx)
	if err != nil {
		// Snapshot stays untouched; next poll compares against the
		// same baseline.
		return nil, err
	}

	known := d.snapshot.IDSet()
	var delta []model.Message
	unauthorized := 0
	for _, m := range current {
		if _, seen := known[m.ID]; seen {
			continue
		}
		if !m.Whitelisted() {
			unauthorized++
			continue
		}
		delta = append(delta, m)
	}

	d.snapshot = model.Snapshot{Messages: current, CapturedAt: time.Now()}

	if unauthorized > 0 {
		logger.WithTrace(ctx, d.logger).Warn("Unauthorized senders among new messages",
			zap.Int("count", unauthorized),
		)
		metrics.AddDeliveries("unauthorized", unauthorized)
	}
	return delta, nil
}

// SnapshotSize returns the number of messages in the current baseline.
func (d *Detector) SnapshotSize() int { return len(d.snapshot.Messages) }

// Primed reports whether the baseline fetch has happened.
func (d *Detector) Primed() bool { return d.primed }

// fetchCurrent fetches and normalizes the full current message list.
func (d *Detector) fetchCurrent(ctx context.Context) ([]model.Message, error) {
	raws, err := d.mail.FetchRecentMessages(ctx, d.fetchLimit)
	if err != nil {
		return nil, err
	}
	metrics.MessagesFetched.Add(float64(len(raws)))

	out := make([]model.Message, 0, len(raws))
	for _, raw := range raws {
		attachments, err := d.mail.FetchAttachments(ctx, raw.ID)
		if err != nil {
			// Treat the whole fetch as failed so the snapshot is never
			// partially updated.
			return nil, err
		}
		out = append(out, d.normalizer.Normalize(raw, attachments))
	}
	return out, nil
}

// idTail returns the unique tail of a provider message ID for logging.
func idTail(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[len(id)-12:]
}
