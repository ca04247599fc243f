package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
[user]
name = "Jane Doe"
email = "jane@example.com"

[log]
level = "debug"
`), 0o644))

	s, err := LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe <jane@example.com>", s.Identity())
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, s.Identity())
}

func TestLoadSettingsInvalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte("[user\nname = "), 0o644))
	_, err := LoadSettings(p)
	assert.Error(t, err)
}

func TestDefaultSettingsPath(t *testing.T) {
	t.Setenv("WIT_CONFIG", "/tmp/explicit.toml")
	assert.Equal(t, "/tmp/explicit.toml", defaultSettingsPath())

	t.Setenv("WIT_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "wit", "config.toml"), defaultSettingsPath())
}

func TestCommitUsesSettingsIdentity(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "f", "f\n")

	cfg := filepath.Join(t.TempDir(), "wit.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[user]\nname = \"Set Tings\"\nemail = \"st@example.com\"\n"), 0o644))
	mustRunWit(t, dir, "--config", cfg, "commit", "-m", "configured")

	out := mustRunWit(t, dir, "cat-file", "commit", "HEAD")
	assert.Contains(t, out, "author Set Tings <st@example.com> ")
}
