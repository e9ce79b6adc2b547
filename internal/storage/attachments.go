// Package storage persists original message attachments to a local,
// date-partitioned directory tree. This is a plain I/O side effect of
// delivery; failures are reported but never fail a poll cycle.
package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"smsbridge/internal/model"
)

// bodyPrefixLen is how much of the SMS body goes into a file name.
const bodyPrefixLen = 9

// AttachmentStore writes attachment bytes under
// root/<month>_<year>/<month>_<day>_<year>/.
type AttachmentStore struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

func NewAttachmentStore(root string, logger *zap.Logger) *AttachmentStore {
	return &AttachmentStore{
		root:   root,
		logger: logger,
		now:    time.Now,
	}
}

// Save persists every attachment of one message. File names combine a
// short body prefix, a fragment of the message ID and a per-extension
// counter, so two same-typed attachments of one message never collide.
// Individual failures are collected; the rest of the set is still saved.
func (s *AttachmentStore) Save(msg model.Message, attachments []model.RawAttachment) error {
	if len(attachments) == 0 {
		return nil
	}

	dir, err := s.ensureDayDir()
	if err != nil {
		return err
	}

	prefix := sanitizePrefix(msg.SMSBody)
	frag := idFragment(msg.ID)
	extCount := make(map[string]int)

	var errs []error
	for _, att := range attachments {
		if att.ContentBytes == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(att.ContentBytes)
		if err != nil {
			errs = append(errs, fmt.Errorf("attachment %s: invalid base64: %w", att.ID, err))
			continue
		}

		ext := extension(att.Name)
		name := fmt.Sprintf("%s_%s_%d%s", prefix, frag, extCount[ext], ext)
		extCount[ext]++

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("attachment %s: %w", att.ID, err))
			continue
		}
		s.logger.Info("Attachment saved",
			zap.String("path", path),
			zap.Int("bytes", len(data)),
		)
	}
	return errors.Join(errs...)
}

// ensureDayDir creates and returns today's partition directory.
func (s *AttachmentStore) ensureDayDir() (string, error) {
	t := s.now()
	monthDir := fmt.Sprintf("%s_%d", strings.ToLower(t.Month().String()), t.Year())
	dayDir := fmt.Sprintf("%d_%d_%d", int(t.Month()), t.Day(), t.Year())

	dir := filepath.Join(s.root, monthDir, dayDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create attachment dir: %w", err)
	}
	return dir, nil
}

// sanitizePrefix reduces the SMS body to a short, filesystem-safe token.
func sanitizePrefix(body string) string {
	var b strings.Builder
	for _, r := range body {
		if b.Len() >= bodyPrefixLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "attachment"
	}
	return b.String()
}

// idFragment returns a short unique slice of the provider message ID.
func idFragment(id string) string {
	if len(id) >= 8 {
		return id[len(id)-8 : len(id)-4]
	}
	return id
}

// extension returns the attachment's file extension, defaulting to .bin
// when the name carries none.
func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ".bin"
	}
	return ext
}
