// Package service implements the core pipeline: fetch the mailbox,
// detect newly arrived messages against the previous snapshot, and turn
// each whitelisted one into exactly one remote task.
package service

import (
	"context"

	"smsbridge/internal/model"
)

// MailGateway is the consumed contract of the remote mailbox.
type MailGateway interface {
	// FetchRecentMessages returns the limit most recent messages,
	// newest first.
	FetchRecentMessages(ctx context.Context, limit int) ([]model.RawMessage, error)

	// FetchAttachments returns all attachments of one message.
	FetchAttachments(ctx context.Context, messageID string) ([]model.RawAttachment, error)

	// FetchAttachmentContent returns the decoded bytes of one attachment.
	FetchAttachmentContent(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// TaskGateway is the consumed contract of the remote task-list service.
type TaskGateway interface {
	// CreateTask creates a task with the given title and returns its ID.
	CreateTask(ctx context.Context, listID, title string) (string, error)

	// AttachFile uploads one file attachment onto an existing task.
	AttachFile(ctx context.Context, listID, taskID string, f model.FileAttachment) error
}
