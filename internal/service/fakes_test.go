package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"smsbridge/internal/contacts"
	"smsbridge/internal/model"
)

// fakeMail scripts the mail gateway: one message list per fetch call,
// plus a per-message attachment table.
type fakeMail struct {
	mu sync.Mutex

	// fetches is consumed front to back; the last entry repeats.
	fetches     [][]model.RawMessage
	fetchErrs   []error
	attachments map[string][]model.RawAttachment
	attachErr   error
	contentErr  func(attachmentID string) error

	fetchCalls int
}

func (f *fakeMail) FetchRecentMessages(ctx context.Context, limit int) ([]model.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.fetchCalls
	f.fetchCalls++
	if i < len(f.fetchErrs) && f.fetchErrs[i] != nil {
		return nil, f.fetchErrs[i]
	}
	if len(f.fetches) == 0 {
		return nil, nil
	}
	if i >= len(f.fetches) {
		i = len(f.fetches) - 1
	}
	msgs := f.fetches[i]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeMail) FetchAttachments(ctx context.Context, messageID string) ([]model.RawAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	return f.attachments[messageID], nil
}

func (f *fakeMail) FetchAttachmentContent(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contentErr != nil {
		if err := f.contentErr(attachmentID); err != nil {
			return nil, err
		}
	}
	for _, a := range f.attachments[messageID] {
		if a.ID == attachmentID {
			return base64.StdEncoding.DecodeString(a.ContentBytes)
		}
	}
	return nil, fmt.Errorf("no attachment %s on message %s", attachmentID, messageID)
}

// fakeTasks records task creations and attachment uploads.
type fakeTasks struct {
	mu sync.Mutex

	createErr error
	attachErr func(name string) error

	created  []string // titles in creation order
	attached []string // attachment names in upload order
}

func (f *fakeTasks) CreateTask(ctx context.Context, listID, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, title)
	return "task-" + title, nil
}

func (f *fakeTasks) AttachFile(ctx context.Context, listID, taskID string, file model.FileAttachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		if err := f.attachErr(file.Name); err != nil {
			return err
		}
	}
	f.attached = append(f.attached, file.Name)
	return nil
}

func (f *fakeTasks) createdTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func testDirectory(t *testing.T, csv string) *contacts.Directory {
	t.Helper()
	dir, err := contacts.ParseString(csv)
	if err != nil {
		t.Fatalf("parse contacts: %v", err)
	}
	return dir
}

func rawMessage(id, senderName string, received time.Time) model.RawMessage {
	return model.RawMessage{
		ID:            id,
		SenderName:    senderName,
		SenderAddress: senderName + "@txt.example.net",
		Subject:       "",
		ReceivedAt:    received,
	}
}

func textAttachment(id, body string) model.RawAttachment {
	return model.RawAttachment{
		ID:           id,
		Name:         "text_0.txt",
		ContentType:  "text/plain",
		ContentBytes: b64(body),
	}
}

func imageAttachment(id, name string) model.RawAttachment {
	return model.RawAttachment{
		ID:           id,
		Name:         name,
		ContentType:  "image/jpeg",
		ContentBytes: b64("jpegbytes-" + id),
	}
}
