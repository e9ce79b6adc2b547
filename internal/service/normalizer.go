package service

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"smsbridge/internal/contacts"
	"smsbridge/internal/model"
)

// Normalizer converts raw mailbox records into canonical messages:
// sender resolved against the contact directory, the SMS body extracted
// from the first text/plain attachment, image attachments separated out.
type Normalizer struct {
	contacts *contacts.Directory
	logger   *zap.Logger
}

func NewNormalizer(dir *contacts.Directory, logger *zap.Logger) *Normalizer {
	return &Normalizer{contacts: dir, logger: logger}
}

// Normalize builds the canonical Message for one raw record and its
// attachment set. It never fails: decode problems degrade the body to a
// sentinel instead of dropping the message.
func (n *Normalizer) Normalize(raw model.RawMessage, attachments []model.RawAttachment) model.Message {
	msg := model.Message{
		ID:         raw.ID,
		Sender:     n.contacts.Resolve(raw.SenderKey()),
		Subject:    raw.Subject,
		SMSBody:    model.NoSMSBody,
		ReceivedAt: raw.ReceivedAt,
	}
	if msg.Subject == "" {
		msg.Subject = model.EmptySubject
	}

	for _, att := range attachments {
		switch {
		case att.ContentType == "text/plain" && !msg.HasTextBody:
			msg.SMSBody = n.decodeTextBody(raw.ID, att)
			msg.HasTextBody = true
		case strings.HasPrefix(att.ContentType, "image/"):
			msg.ImageAttachments = append(msg.ImageAttachments, model.ImageRef{
				AttachmentID: att.ID,
				ContentType:  att.ContentType,
			})
		}
		// Other content types carry no body and are only persisted
		// locally by the pipeline.
	}

	return msg
}

// decodeTextBody decodes the text/plain attachment as UTF-8. Bad base64
// or invalid UTF-8 degrades to the undecodable sentinel.
func (n *Normalizer) decodeTextBody(messageID string, att model.RawAttachment) string {
	data, err := base64.StdEncoding.DecodeString(att.ContentBytes)
	if err != nil {
		n.logger.Warn("Text attachment has invalid base64 content",
			zap.String("message_id", messageID),
			zap.String("attachment_id", att.ID),
			zap.Error(err),
		)
		return model.UndecodableBody
	}
	if !utf8.Valid(data) {
		n.logger.Warn("Text attachment is not valid UTF-8",
			zap.String("message_id", messageID),
			zap.String("attachment_id", att.ID),
		)
		return model.UndecodableBody
	}
	return strings.TrimSpace(string(data))
}
