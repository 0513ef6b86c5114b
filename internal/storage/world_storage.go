// Package storage сохраняет снимки мира в BadgerDB и состояние игрока в memory/Redis/MariaDB.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// snapshotKey ключ последнего снимка мира
const snapshotKey = "world:snapshot"

var ErrStorageClosed = errors.New("хранилище не готово")

// WorldStorage хранилище снимков мира
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewWorldStorage открывает BadgerDB в каталоге dataPath/world
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.encoder.Close()
	ws.decoder.Close()
	return ws.db.Close()
}

// SaveSnapshot записывает снимок: protobuf-кодирование, затем zstd
func (ws *WorldStorage) SaveSnapshot(snap *protocol.Snapshot) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrStorageClosed
	}

	data := ws.encoder.EncodeAll(protocol.Marshal(snap), nil)

	err := ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotKey), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения снимка: %w", err)
	}
	return nil
}

// LoadSnapshot читает последний снимок. Если снимка нет, возвращает (nil, false, nil).
func (ws *WorldStorage) LoadSnapshot() (*protocol.Snapshot, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, false, ErrStorageClosed
	}

	var compressed []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения снимка: %w", err)
	}

	raw, err := ws.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}

	snap, err := protocol.Unmarshal(raw)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// DeleteSnapshot удаляет сохранённый снимок (сброс мира)
func (ws *WorldStorage) DeleteSnapshot() error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrStorageClosed
	}
	return ws.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(snapshotKey))
	})
}
