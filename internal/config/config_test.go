package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Batch.ChunkSize)
	assert.Equal(t, time.Second, cfg.Batch.ChunkPause)
	assert.Equal(t, domain.DefaultFallbackFont, cfg.Text.FallbackFont)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Batch)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.yaml")
	data := `
relay:
  channel: review
batch:
  chunk_size: 3
  chunk_pause: 250ms
text:
  strategy: strict
  fallback_font:
    family: Roboto
    style: Regular
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("QUILL_CHUNK_SIZE", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "review", cfg.Relay.Channel)
	assert.Equal(t, 4, cfg.Batch.ChunkSize, "env wins over file")
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.ChunkPause)
	assert.Equal(t, "strict", cfg.Text.Strategy)
	assert.Equal(t, domain.FontName{Family: "Roboto", Style: "Regular"}, cfg.Text.FallbackFont)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_UnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.Text.Strategy = "guess"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RedactPattern(t *testing.T) {
	cfg := Default()
	cfg.Session.Redact = []string{"(?i)token", "("}
	assert.ErrorContains(t, cfg.Validate(), "invalid session.redact pattern")
}
