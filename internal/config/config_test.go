package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomePrefersEnv(t *testing.T) {
	t.Setenv(EnvHome, "/custom/orbit-home")
	home, err := Home()
	require.NoError(t, err)
	assert.Equal(t, "/custom/orbit-home", home)
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "target", cfg.General.TargetDir)
	assert.Equal(t, "auto", cfg.General.Color)
}

func TestLoadParsesAndValidates(t *testing.T) {
	home := t.TempDir()
	content := `[general]
target-dir = "out"
color = "never"

[[targets]]
name = "ghdl-sim"
command = "ghdl"
`
	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte(content), 0644))

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.General.TargetDir)
	assert.Equal(t, "never", cfg.General.Color)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "ghdl-sim", cfg.Targets[0]["name"])
}

func TestLoadRejectsBadColor(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte("[general]\ncolor = \"sometimes\"\n"), 0644))
	_, err := Load(home)
	assert.Error(t, err)
}

func TestGetSetRoundTrip(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(home)
	require.NoError(t, err)

	require.NoError(t, cfg.Set("general.target-dir", "build-out"))
	require.NoError(t, cfg.Save(home))

	again, err := Load(home)
	require.NoError(t, err)
	value, err := again.Get("general.target-dir")
	require.NoError(t, err)
	assert.Equal(t, "build-out", value)

	assert.Error(t, cfg.Set("general.color", "sometimes"))
	_, err = cfg.Get("nonsense.key")
	assert.Error(t, err)

	assert.Contains(t, again.List(), "general.target-dir=build-out")
}
