package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.02, cfg.Processing.PositionTolerance)
	assert.Equal(t, 0.01, cfg.Processing.UVTolerance)
	assert.True(t, cfg.Export.CreateSkin)
	assert.Equal(t, "merged", cfg.Export.MergedName)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
processing:
  position_tolerance: 0.5
  generate_tangents: true
export:
  create_skin: false
logging:
  level: debug
  log_file: optimizer.log
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Processing.PositionTolerance)
	// untouched keys keep defaults
	assert.Equal(t, 0.01, cfg.Processing.UVTolerance)
	assert.True(t, cfg.Processing.GenerateTangents)
	assert.False(t, cfg.Export.CreateSkin)
	assert.Equal(t, "merged", cfg.Export.MergedName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "optimizer.log", cfg.Logging.LogFile)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("processing:\n  position_tolerance: [\n"), 0644))
	_, err = Load(invalid)
	assert.Error(t, err)

	badEncoding := filepath.Join(dir, "encoding.yaml")
	require.NoError(t, os.WriteFile(badEncoding, []byte("processing:\n  name_encoding: klingon\n"), 0644))
	_, err = Load(badEncoding)
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Address = "127.0.0.1:9000"
	cfg.Export.ASCII = true
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEncoding(t *testing.T) {
	defer SetEncoding("Windows 1252")

	assert.Contains(t, ListEncodings(), "Windows 1251")
	require.NoError(t, SetEncoding("Windows 1251"))
	assert.Equal(t, "Windows 1251", GetEncoding().String())
	assert.Error(t, SetEncoding("unknown"))
	assert.Equal(t, "Windows 1251", GetEncoding().String())
}
