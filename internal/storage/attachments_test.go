package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smsbridge/internal/model"
)

func fixedStore(t *testing.T) (*AttachmentStore, string) {
	t.Helper()
	root := t.TempDir()
	s := NewAttachmentStore(root, zap.NewNop())
	s.now = func() time.Time {
		return time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)
	}
	return s, root
}

func rawAttachment(id, name, content string) model.RawAttachment {
	return model.RawAttachment{
		ID:           id,
		Name:         name,
		ContentType:  "image/jpeg",
		ContentBytes: base64.StdEncoding.EncodeToString([]byte(content)),
	}
}

func testMessage() model.Message {
	return model.Message{
		ID:      "AAMkAGI2THVSAAA=",
		Sender:  model.KnownSender("Bob"),
		SMSBody: "Pizza night at eight",
	}
}

func TestSaveWritesDatePartitionedFiles(t *testing.T) {
	s, root := fixedStore(t)

	err := s.Save(testMessage(), []model.RawAttachment{rawAttachment("a1", "photo.jpg", "bytes")})
	require.NoError(t, err)

	dir := filepath.Join(root, "march_2024", "3_7_2024")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	name := entries[0].Name()
	assert.True(t, strings.HasSuffix(name, "_0.jpg"), "got %q", name)
	assert.True(t, strings.HasPrefix(name, "Pizza_nig"), "got %q", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}

func TestSaveSameExtensionNeverCollides(t *testing.T) {
	s, root := fixedStore(t)

	atts := []model.RawAttachment{
		rawAttachment("a1", "photo.jpg", "first"),
		rawAttachment("a2", "photo.jpg", "second"),
		rawAttachment("a3", "dog.png", "third"),
	}
	require.NoError(t, s.Save(testMessage(), atts))

	dir := filepath.Join(root, "march_2024", "3_7_2024")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	names := make(map[string]bool)
	jpg, png := 0, 0
	for _, e := range entries {
		assert.False(t, names[e.Name()], "duplicate name %q", e.Name())
		names[e.Name()] = true
		switch filepath.Ext(e.Name()) {
		case ".jpg":
			jpg++
		case ".png":
			png++
		}
	}
	assert.Equal(t, 2, jpg)
	assert.Equal(t, 1, png)
}

func TestSaveSkipsEmptyAndReportsBadContent(t *testing.T) {
	s, root := fixedStore(t)

	atts := []model.RawAttachment{
		{ID: "a1", Name: "empty.jpg", ContentType: "image/jpeg", ContentBytes: ""},
		{ID: "a2", Name: "bad.jpg", ContentType: "image/jpeg", ContentBytes: "%%%"},
		rawAttachment("a3", "good.jpg", "ok"),
	}
	err := s.Save(testMessage(), atts)
	assert.Error(t, err) // the bad record is reported

	// The good record is still written.
	dir := filepath.Join(root, "march_2024", "3_7_2024")
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1)
}

func TestSaveNoAttachmentsCreatesNothing(t *testing.T) {
	s, root := fixedStore(t)
	require.NoError(t, s.Save(testMessage(), nil))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitizePrefix(t *testing.T) {
	assert.Equal(t, "Pizza_nig", sanitizePrefix("Pizza night at eight"))
	assert.Equal(t, "Call_me", sanitizePrefix("Call me"))
	assert.Equal(t, "attachment", sanitizePrefix(""))
}

func TestExtensionDefaults(t *testing.T) {
	assert.Equal(t, ".jpg", extension("photo.JPG"))
	assert.Equal(t, ".bin", extension("no-extension"))
}

func TestIDFragmentShortID(t *testing.T) {
	assert.Equal(t, "abc", idFragment("abc"))
	id := "AAMkAGI2THVSAAA="
	frag := idFragment(id)
	assert.Equal(t, 4, len(frag))
	assert.True(t, strings.Contains(id, frag), fmt.Sprintf("%q not in %q", frag, id))
}
