package service

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"

	"smsbridge/internal/model"
	"smsbridge/internal/storage"
	"smsbridge/pkg/logger"
	"smsbridge/pkg/metrics"
)

// DeliveryStatus is the outcome of one delivery attempt.
type DeliveryStatus int

const (
	StatusDelivered DeliveryStatus = iota
	StatusUnauthorized
	StatusFailed
)

func (s DeliveryStatus) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeliveryResult reports what happened to one message.
type DeliveryResult struct {
	Status DeliveryStatus
	TaskID string
	Err    error
}

// Pipeline turns one whitelisted message into one remote task, uploads
// its image attachments, and persists the originals locally. Task
// creation is the only step that can fail the delivery; attachment
// uploads and local saves are independent best-effort side effects that
// never roll back a created task.
type Pipeline struct {
	mail   MailGateway
	tasks  TaskGateway
	store  *storage.AttachmentStore
	listID string
	logger *zap.Logger
}

func NewPipeline(mail MailGateway, tasks TaskGateway, store *storage.AttachmentStore, listID string, log *zap.Logger) *Pipeline {
	return &Pipeline{
		mail:   mail,
		tasks:  tasks,
		store:  store,
		listID: listID,
		logger: log,
	}
}

// Deliver creates the task for msg. Callers filter on the whitelist
// already; the check here is a defensive backstop.
func (p *Pipeline) Deliver(ctx context.Context, msg model.Message) DeliveryResult {
	log := logger.WithTrace(ctx, p.logger).With(zap.String("message_id", idTail(msg.ID)))

	if !msg.Whitelisted() {
		log.Warn("Refusing to deliver message from unauthorized sender")
		metrics.IncrementDelivery(StatusUnauthorized.String())
		return DeliveryResult{Status: StatusUnauthorized}
	}

	title := msg.TaskTitle()
	taskID, err := p.tasks.CreateTask(ctx, p.listID, title)
	if err != nil {
		log.Error("Task creation failed", zap.Error(err))
		metrics.IncrementDelivery(StatusFailed.String())
		return DeliveryResult{Status: StatusFailed, Err: err}
	}

	log.Info("Task created",
		zap.String("task_id", taskID),
		zap.String("title", title),
		zap.String("sender", msg.Sender.DisplayName()),
	)
	metrics.IncrementDelivery(StatusDelivered.String())

	// The delivery is complete once the task exists. Everything below is
	// best effort.
	attachments, err := p.mail.FetchAttachments(ctx, msg.ID)
	if err != nil {
		log.Error("Failed to fetch attachments for upload", zap.Error(err))
		return DeliveryResult{Status: StatusDelivered, TaskID: taskID}
	}

	p.uploadImages(ctx, log, taskID, msg.ID, msg.ImageAttachments, attachments)

	if err := p.store.Save(msg, attachments); err != nil {
		log.Error("Failed to persist attachments locally", zap.Error(err))
	}

	return DeliveryResult{Status: StatusDelivered, TaskID: taskID}
}

// uploadImages downloads each image named on the message and attaches it
// to the task independently; one failure does not block the others.
func (p *Pipeline) uploadImages(ctx context.Context, log *zap.Logger, taskID, messageID string, refs []model.ImageRef, attachments []model.RawAttachment) {
	byID := make(map[string]model.RawAttachment, len(attachments))
	for _, att := range attachments {
		byID[att.ID] = att
	}
	for _, ref := range refs {
		att, ok := byID[ref.AttachmentID]
		if !ok {
			log.Warn("Image attachment no longer present on message",
				zap.String("attachment_id", ref.AttachmentID),
			)
			metrics.IncrementAttachmentUpload("failed")
			continue
		}
		data, err := p.mail.FetchAttachmentContent(ctx, messageID, ref.AttachmentID)
		if err != nil {
			log.Error("Failed to download image content",
				zap.String("attachment_id", ref.AttachmentID),
				zap.String("name", att.Name),
				zap.Error(err),
			)
			metrics.IncrementAttachmentUpload("failed")
			continue
		}
		f := model.FileAttachment{
			Name:         att.Name,
			ContentType:  att.ContentType,
			ContentBytes: base64.StdEncoding.EncodeToString(data),
		}
		if err := p.tasks.AttachFile(ctx, p.listID, taskID, f); err != nil {
			log.Error("Attachment upload failed",
				zap.String("attachment_id", att.ID),
				zap.String("name", att.Name),
				zap.Error(err),
			)
			metrics.IncrementAttachmentUpload("failed")
			continue
		}
		metrics.IncrementAttachmentUpload("success")
	}
}
