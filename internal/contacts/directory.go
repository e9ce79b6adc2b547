// Package contacts holds the whitelist of known senders, loaded once at
// startup and immutable afterwards.
package contacts

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"smsbridge/internal/model"
)

// PhonePrefixLen is the fixed key length for phone-number-style entries.
// Email-to-SMS gateways put the 10-digit originating number at the front
// of the sender field, so resolution compares that prefix exactly.
const PhonePrefixLen = 10

// Directory maps normalized sender keys to display names. No partial or
// fuzzy matching: a sender is whitelisted iff its key matches exactly.
type Directory struct {
	entries map[string]string
}

// LoadFile builds a directory from a CSV file with the header
// "phone_number,name". A parse failure is returned to the caller and is
// expected to be fatal at startup.
func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open contacts file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ParseString builds a directory from inline CSV text.
func ParseString(text string) (*Directory, error) {
	return Parse(strings.NewReader(text))
}

// Parse reads CSV records from r. The first record must be the
// "phone_number,name" header.
func Parse(r io.Reader) (*Directory, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts header: %w", err)
	}
	keyIdx, nameIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "phone_number":
			keyIdx = i
		case "name":
			nameIdx = i
		}
	}
	if keyIdx < 0 || nameIdx < 0 {
		return nil, fmt.Errorf("contacts header must contain phone_number and name, got %q", strings.Join(header, ","))
	}

	entries := make(map[string]string)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read contacts record: %w", err)
		}
		if len(record) <= keyIdx || len(record) <= nameIdx {
			return nil, fmt.Errorf("contacts record too short: %q", strings.Join(record, ","))
		}
		key := strings.TrimSpace(record[keyIdx])
		name := strings.TrimSpace(record[nameIdx])
		if key == "" || name == "" {
			return nil, fmt.Errorf("contacts record has empty field: %q", strings.Join(record, ","))
		}
		// Keys are stored normalized so lookup and load agree on length.
		entries[normalizeKey(key)] = name
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("contacts source contains no entries")
	}
	return &Directory{entries: entries}, nil
}

// normalizeKey trims the sender key and cuts phone-style keys to the
// fixed prefix length. Gateways deliver the originating number either
// bare or as the local part of an address, so a leading digit run counts
// as a phone key even when an "@domain" suffix follows. Other addresses
// match in full.
func normalizeKey(senderKey string) string {
	key := strings.TrimSpace(senderKey)
	local := key
	if at := strings.IndexByte(key, '@'); at >= 0 {
		local = key[:at]
	}
	if phoneLike(local) {
		return local[:PhonePrefixLen]
	}
	return key
}

// phoneLike reports whether s carries a full-length digit prefix.
func phoneLike(s string) bool {
	if len(s) < PhonePrefixLen {
		return false
	}
	for _, r := range s[:PhonePrefixLen] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolve looks up senderKey and returns the classified sender.
func (d *Directory) Resolve(senderKey string) model.Sender {
	if name, ok := d.entries[normalizeKey(senderKey)]; ok {
		return model.KnownSender(name)
	}
	return model.UnknownSender()
}

// IsWhitelisted reports whether senderKey resolves to a contact entry.
func (d *Directory) IsWhitelisted(senderKey string) bool {
	return d.Resolve(senderKey).Known()
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.entries) }

// Entries returns a copy of the key→name mapping, for diagnostics.
func (d *Directory) Entries() map[string]string {
	out := make(map[string]string, len(d.entries))
	for k, v := range d.entries {
		out[k] = v
	}
	return out
}
