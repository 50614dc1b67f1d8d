package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWhenAbsent(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultVexesDir, cfg.VexesDir)
	assert.False(t, cfg.Lenient)
}

func TestParseGlobalAndLanguageKeys(t *testing.T) {
	src := `
vexes-dir = "rules"
ignore = ["build/**", "*.generated.go"]
lenient = true

[cpp]
use-for = ["*.h"]
`
	cfg, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "rules", cfg.VexesDir)
	assert.Equal(t, []string{"build/**", "*.generated.go"}, cfg.Ignore)
	assert.True(t, cfg.Lenient)
	require.Contains(t, cfg.Language, "cpp")
	assert.Equal(t, []string{"*.h"}, cfg.Language["cpp"].UseFor)
}

func TestParseRejectsUnknownTopLevelKey(t *testing.T) {
	_, err := Parse(`bogus = true`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestParseRejectsUnknownLanguageKey(t *testing.T) {
	_, err := Parse("[cpp]\nbogus-key = true\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus-key")
}

func TestLoadFromDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "vex.toml"), []byte("lenient = true\n"), 0o644))
	cfg, err := Load(root)
	require.NoError(t, err)
	assert.True(t, cfg.Lenient)
}
