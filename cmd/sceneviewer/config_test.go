package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/solarlune/scenecore"
	"github.com/solarlune/scenecore/colors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), config)
}

func TestLoadConfigFile(t *testing.T) {

	config, err := loadConfig("sceneviewer.toml")
	require.NoError(t, err)

	assert.Equal(t, "scenes/level.glb", config.Scene)
	assert.Equal(t, []string{"scenes/level.glb", "scenes/props.gltf"}, config.Scenes)
	assert.Equal(t, slog.LevelInfo, config.LogLevel)
	assert.Equal(t, colors.DarkestGray, config.background)
	assert.Equal(t, colors.White, config.textColor)

	r := config.Renderer
	assert.Equal(t, 640, r.Width)
	assert.False(t, r.DisableCulling)
	assert.Equal(t, scenecore.Vector3{X: 0, Y: 2, Z: 8}, r.Camera.Eye)
	assert.Equal(t, float32(60), r.Camera.FieldOfView)
	assert.Equal(t, float32(0.5), r.Camera.TransitionSeconds)
	assert.Equal(t, 120, r.Resources.SweepInterval)
	assert.Equal(t, 300, r.Resources.UnusedFrameWindow)

}

func TestLoadConfigPartial(t *testing.T) {

	path := filepath.Join(t.TempDir(), "viewer.toml")
	require.NoError(t, os.WriteFile(path, []byte("scene = \"a.glb\"\nlog_level = \"debug\"\n[renderer]\nno_culling = true\n"), 0o644))

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.glb"}, config.Scenes)
	assert.Equal(t, slog.LevelDebug, config.LogLevel)
	assert.True(t, config.Renderer.DisableCulling)
	// Untouched values keep their defaults.
	assert.Equal(t, scenecore.DefaultOptions().Width, config.Renderer.Width)
	assert.Equal(t, float32(45), config.Renderer.Camera.FieldOfView)

}

func TestLoadConfigErrors(t *testing.T) {

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("scene = [\n"), 0o644))
	_, err = loadConfig(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "color.toml")
	require.NoError(t, os.WriteFile(path, []byte("background = \"chartreuse\"\n"), 0o644))
	_, err = loadConfig(path)
	assert.ErrorContains(t, err, "chartreuse")

}
