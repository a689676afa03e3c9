package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "helpdesk", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "helpdesk.db", cfg.Database.Filename)
	assert.Equal(t, 15*time.Second, cfg.Database.LockTimeout)
	assert.Equal(t, "TICKET-", cfg.Ticket.IDPrefix)
	assert.Equal(t, int64(1000), cfg.Ticket.CounterBase)
	assert.Equal(t, 1600, cfg.Attachments.MaxImageDimension)
	assert.Equal(t, 85, cfg.Attachments.JPEGQuality)
	assert.False(t, cfg.Email.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	dir := t.TempDir()
	path := filepath.Join(dir, "helpdesk.yaml")
	content := `
app:
  name: helpdesk-staging
server:
  port: 9090
database:
  persistent_dir: /var/lib/helpdesk
ticket:
  id_prefix: "HD-"
  counter_base: 5000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "helpdesk-staging", cfg.App.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/helpdesk", cfg.Database.PersistentDir)
	assert.Equal(t, "HD-", cfg.Ticket.IDPrefix)
	assert.Equal(t, int64(5000), cfg.Ticket.CounterBase)
	// Unset keys keep their defaults.
	assert.Equal(t, "helpdesk.db", cfg.Database.Filename)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	t.Setenv("HELPDESK_SERVER_PORT", "7070")
	t.Setenv("HELPDESK_EMAIL_SMTP_HOST", "mail.internal")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "mail.internal", cfg.Email.SMTPHost)
}
