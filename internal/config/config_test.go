package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 240.0, cfg.World.TileSize)
	assert.Equal(t, 5, cfg.World.SubTiles)
	assert.Equal(t, 60, cfg.Server.TickRate)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	data := []byte("world:\n  seed: 7\n  tile_size: 120\ngameplay:\n  mob_speed: 150\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)
	assert.Equal(t, 120.0, cfg.World.TileSize)
	assert.Equal(t, 150.0, cfg.Gameplay.MobSpeed)
	// не заданное в файле остаётся дефолтным
	assert.Equal(t, 500.0, cfg.Gameplay.PlayerSpeed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  tile_size: 0\n"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidTileSize)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestPortEnvFallback(t *testing.T) {
	t.Setenv("GAME_REST_PORT", "9999")
	s := ServerConfig{}
	assert.Equal(t, 9999, s.GetRESTPort())

	s.RESTPort = 8000
	assert.Equal(t, 8000, s.GetRESTPort(), "значение из конфига приоритетнее env")
}
