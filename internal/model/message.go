package model

import "time"

// Sentinel values carried over from the mailbox provider's sparse records.
const (
	EmptySubject    = "EMPTY SUBJECT"
	NoSMSBody       = "No SMS body found"
	UndecodableBody = "(undecodable)"
	unknownSender   = "UNKNOWN"
)

// Sender is the whitelist classification of a message's origin. A known
// sender resolved to a contact entry; an unknown one did not. The tagged
// form avoids comparing display names against a sentinel string.
type Sender struct {
	name  string
	known bool
}

// KnownSender returns a whitelisted sender with its resolved display name.
func KnownSender(name string) Sender {
	return Sender{name: name, known: true}
}

// UnknownSender returns the unauthorized sender value.
func UnknownSender() Sender {
	return Sender{}
}

// Known reports whether the sender resolved to a contact entry.
func (s Sender) Known() bool { return s.known }

// DisplayName returns the resolved contact name, or "UNKNOWN".
func (s Sender) DisplayName() string {
	if !s.known {
		return unknownSender
	}
	return s.name
}

// RawMessage is one mailbox record as returned by the mail gateway,
// before normalization.
type RawMessage struct {
	ID            string
	SenderName    string
	SenderAddress string
	Subject       string
	ReceivedAt    time.Time
}

// SenderKey returns the identifier used for whitelist resolution. The
// email-to-SMS gateway places the originating phone number in the display
// name, so the name is preferred over the address when present.
func (r RawMessage) SenderKey() string {
	if r.SenderName != "" {
		return r.SenderName
	}
	return r.SenderAddress
}

// RawAttachment is one attachment record with inline base64 content.
type RawAttachment struct {
	ID           string
	Name         string
	ContentType  string
	ContentBytes string // base64
}

// ImageRef identifies one image attachment of a message.
type ImageRef struct {
	AttachmentID string
	ContentType  string
}

// Message is the canonical, normalized form of one mailbox message. It is
// immutable after normalization; ID is the provider's stable message ID.
type Message struct {
	ID               string
	Sender           Sender
	Subject          string
	SMSBody          string
	HasTextBody      bool
	ReceivedAt       time.Time
	ImageAttachments []ImageRef
}

// Whitelisted reports whether the message may be delivered.
func (m Message) Whitelisted() bool { return m.Sender.Known() }

// TaskTitle builds the title of the task created for this message:
// the SMS body when one was extracted, otherwise the subject, suffixed
// with the sender's display name.
func (m Message) TaskTitle() string {
	if m.HasTextBody {
		return m.SMSBody + ", " + m.Sender.DisplayName()
	}
	return m.Subject + ", " + m.Sender.DisplayName()
}

// Snapshot is the baseline for delta detection: the previous fetch's
// normalized message list. Exactly one live snapshot exists, owned by the
// delta detector, and it is replaced wholesale after a successful fetch.
type Snapshot struct {
	Messages   []Message
	CapturedAt time.Time
}

// IDSet returns the set of message IDs present in the snapshot.
func (s Snapshot) IDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Messages))
	for _, m := range s.Messages {
		ids[m.ID] = struct{}{}
	}
	return ids
}
