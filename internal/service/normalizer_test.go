package service

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"smsbridge/internal/model"
)

const testContacts = "phone_number,name\n5551234567,Alice\n5550001111,Bob\n"

func TestNormalizeTextBody(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	raw := rawMessage("msg-1", "5551234567", time.Now())
	msg := n.Normalize(raw, []model.RawAttachment{textAttachment("att-1", "Pizza night")})

	assert.Equal(t, "Pizza night", msg.SMSBody)
	assert.True(t, msg.HasTextBody)
	assert.Empty(t, msg.ImageAttachments)
	assert.Equal(t, "Alice", msg.Sender.DisplayName())
	assert.True(t, msg.Whitelisted())
	assert.Equal(t, "Pizza night, Alice", msg.TaskTitle())
}

func TestNormalizeUnknownSender(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	msg := n.Normalize(rawMessage("msg-2", "9990001234", time.Now()), nil)

	assert.False(t, msg.Whitelisted())
	assert.Equal(t, "UNKNOWN", msg.Sender.DisplayName())
}

func TestNormalizeSeparatesImages(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	atts := []model.RawAttachment{
		imageAttachment("img-1", "photo.jpg"),
		textAttachment("att-1", "look at this"),
		imageAttachment("img-2", "photo2.png"),
		{ID: "cal-1", Name: "invite.ics", ContentType: "text/calendar", ContentBytes: b64("BEGIN:VCALENDAR")},
	}
	msg := n.Normalize(rawMessage("msg-3", "5550001111", time.Now()), atts)

	assert.Equal(t, "look at this", msg.SMSBody)
	// Encounter order is preserved.
	assert.Equal(t, []model.ImageRef{
		{AttachmentID: "img-1", ContentType: "image/jpeg"},
		{AttachmentID: "img-2", ContentType: "image/jpeg"},
	}, msg.ImageAttachments)
}

func TestNormalizeFirstTextAttachmentWins(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	atts := []model.RawAttachment{
		textAttachment("att-1", "first"),
		textAttachment("att-2", "second"),
	}
	msg := n.Normalize(rawMessage("msg-4", "5550001111", time.Now()), atts)
	assert.Equal(t, "first", msg.SMSBody)
}

func TestNormalizeNoTextAttachment(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	raw := rawMessage("msg-5", "5550001111", time.Now())
	raw.Subject = "Picture message"
	msg := n.Normalize(raw, []model.RawAttachment{imageAttachment("img-1", "photo.jpg")})

	assert.Equal(t, model.NoSMSBody, msg.SMSBody)
	assert.False(t, msg.HasTextBody)
	// Title falls back to the subject.
	assert.Equal(t, "Picture message, Bob", msg.TaskTitle())
}

func TestNormalizeEmptySubjectSentinel(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	msg := n.Normalize(rawMessage("msg-6", "5550001111", time.Now()), nil)
	assert.Equal(t, model.EmptySubject, msg.Subject)
}

func TestNormalizeUndecodableBody(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	notBase64 := model.RawAttachment{ID: "att-1", Name: "a.txt", ContentType: "text/plain", ContentBytes: "%%%not-base64%%%"}
	msg := n.Normalize(rawMessage("msg-7", "5550001111", time.Now()), []model.RawAttachment{notBase64})
	assert.Equal(t, model.UndecodableBody, msg.SMSBody)
	assert.True(t, msg.HasTextBody)

	notUTF8 := model.RawAttachment{
		ID:          "att-2",
		Name:        "b.txt",
		ContentType: "text/plain",
		// 0xff 0xfe is not valid UTF-8.
		ContentBytes: base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x01}),
	}
	msg = n.Normalize(rawMessage("msg-8", "5550001111", time.Now()), []model.RawAttachment{notUTF8})
	assert.Equal(t, model.UndecodableBody, msg.SMSBody)
}

func TestNormalizeTrimsBody(t *testing.T) {
	n := NewNormalizer(testDirectory(t, testContacts), zap.NewNop())

	msg := n.Normalize(rawMessage("msg-9", "5551234567", time.Now()),
		[]model.RawAttachment{textAttachment("att-1", "  Call me  \n")})
	assert.Equal(t, "Call me", msg.SMSBody)
}
