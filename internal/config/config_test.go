package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
graph:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret-1
  user_id: user-1
tasks:
  list_id: list-1
contacts:
  csv_path: contacts.csv
`

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, validYAML)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.Graph.BaseURL)
	assert.Equal(t, "inbox", cfg.Mail.Folder)
	assert.Equal(t, 10, cfg.Mail.FetchLimit)
	assert.Equal(t, 90, cfg.Poll.IntervalSeconds)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "attachments", cfg.Storage.AttachmentDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	writeConfig(t, validYAML)
	t.Setenv("TASK_LIST_ID", "list-override")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "list-override", cfg.Tasks.ListID)
	assert.Equal(t, 30, cfg.Poll.IntervalSeconds)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	writeConfig(t, `
graph:
  tenant_id: tenant-1
tasks:
  list_id: list-1
contacts:
  csv_path: contacts.csv
`)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsMissingContactsSource(t *testing.T) {
	writeConfig(t, `
graph:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret-1
  user_id: user-1
tasks:
  list_id: list-1
`)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvOnly(t *testing.T) {
	// No config file at all: everything comes from the environment.
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GRAPH_TENANT_ID", "tenant-1")
	t.Setenv("GRAPH_CLIENT_ID", "client-1")
	t.Setenv("GRAPH_CLIENT_SECRET", "secret-1")
	t.Setenv("GRAPH_USER_ID", "user-1")
	t.Setenv("TASK_LIST_ID", "list-1")
	t.Setenv("CONTACTS_CSV", "phone_number,name\n5551234567,Alice\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", cfg.Graph.TenantID)
	assert.NotEmpty(t, cfg.Contacts.CSVInline)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	writeConfig(t, "graph: [not: a: mapping")
	_, err := Load()
	assert.Error(t, err)
}
