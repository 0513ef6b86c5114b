package storage

import (
	"context"
	"os"
	"testing"

	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*WorldStorage, string) {
	tempDir, err := os.MkdirTemp("", "world-storage-test")
	if err != nil {
		t.Fatalf("Не удалось создать временную директорию: %v", err)
	}

	storage, err := NewWorldStorage(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}

	return storage, tempDir
}

func cleanupTestStorage(storage *WorldStorage, tempDir string) {
	if storage != nil {
		storage.Close()
	}
	if tempDir != "" {
		os.RemoveAll(tempDir)
	}
}

func testSnapshot() *protocol.Snapshot {
	return &protocol.Snapshot{
		Frame: 42,
		Seed:  7,
		Tiles: []protocol.TileState{{X: 0, Y: 0, Open: true}, {X: 5, Y: 0}},
		Entities: []protocol.EntityState{
			{ID: 1, Type: "player", X: 12, Y: -3, Health: 8, MaxHealth: 10},
			{ID: 4, Type: "mob", X: 100, Y: 100, Health: 10, MaxHealth: 10},
		},
		PlayerID:       1,
		HealthFraction: 0.8,
		SelectedSlot:   1,
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(storage, tempDir)

	snap, ok, err := storage.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snap)
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(storage, tempDir)

	in := testSnapshot()
	require.NoError(t, storage.SaveSnapshot(in))

	out, ok, err := storage.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, storage.DeleteSnapshot())
	_, ok, err = storage.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer os.RemoveAll(tempDir)

	require.NoError(t, storage.SaveSnapshot(testSnapshot()))
	require.NoError(t, storage.Close())

	reopened, err := NewWorldStorage(tempDir)
	require.NoError(t, err)
	defer reopened.Close()

	out, ok, err := reopened.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42), out.Frame)
}

func TestClosedStorage(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer os.RemoveAll(tempDir)
	require.NoError(t, storage.Close())
	require.NoError(t, storage.Close(), "повторное закрытие безопасно")

	assert.ErrorIs(t, storage.SaveSnapshot(testSnapshot()), ErrStorageClosed)
	_, _, err := storage.LoadSnapshot()
	assert.ErrorIs(t, err, ErrStorageClosed)
}

func TestPersisterRoundTrip(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(storage, tempDir)
	repo := NewMemoryPlayerRepo()
	p := NewPersister(storage, repo)
	ctx := context.Background()

	require.NoError(t, p.Persist(ctx, testSnapshot()))
	st, ok, err := repo.Load(ctx, LocalPlayerID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8.0, st.Health)
	assert.Equal(t, 1, st.Slot)

	// Состояние игрока из репозитория важнее снимка
	st.Health = 3
	st.Slot = 0
	require.NoError(t, repo.Save(ctx, LocalPlayerID, st))

	snap, ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3.0, snap.Entities[0].Health)
	assert.Equal(t, int32(0), snap.SelectedSlot)
	assert.Equal(t, 10.0, snap.Entities[1].Health, "мобы не трогаются")
}

func TestPersisterWithoutPlayer(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	defer cleanupTestStorage(storage, tempDir)
	repo := NewMemoryPlayerRepo()
	p := NewPersister(storage, repo)

	snap := testSnapshot()
	snap.PlayerID = 0
	snap.Entities = snap.Entities[1:]
	require.NoError(t, p.Persist(context.Background(), snap))
	assert.Zero(t, repo.Count())
}
