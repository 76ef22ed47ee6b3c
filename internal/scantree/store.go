package scantree

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// SnapshotStore кэширует снимки дерева в BadgerDB.
// Повторный запуск по неизменившемуся корню поднимает снимок с диска
// вместо полного обхода файловой системы.
type SnapshotStore struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
}

// storedSnapshot сериализованная форма снимка
type storedSnapshot struct {
	Root     *Node     `json:"root"`
	ScanTime time.Time `json:"scan_time"`
}

// NewSnapshotStore открывает хранилище снимков в dataPath
func NewSnapshotStore(dataPath string) (*SnapshotStore, error) {
	dbPath := filepath.Join(dataPath, "scans")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &SnapshotStore{db: db, isReady: true}, nil
}

// Close закрывает хранилище
func (ss *SnapshotStore) Close() error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	if !ss.isReady {
		return nil
	}
	ss.isReady = false
	return ss.db.Close()
}

func snapshotKey(rootPath string) []byte {
	return []byte(fmt.Sprintf("scan:%d", PathID(rootPath)))
}

// Save сохраняет снимок дерева для корня
func (ss *SnapshotStore) Save(root *Node, scanTime time.Time) error {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	if !ss.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if root == nil {
		return fmt.Errorf("пустой снимок не сохраняется")
	}

	data, err := json.Marshal(storedSnapshot{Root: root, ScanTime: scanTime})
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	return ss.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(root.Path), data)
	})
}

// Load загружает снимок для корня; found=false если снимка нет
// или он старше maxAge.
func (ss *SnapshotStore) Load(rootPath string, maxAge time.Duration) (*Node, bool, error) {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	if !ss.isReady {
		return nil, false, fmt.Errorf("хранилище не готово")
	}

	var snap storedSnapshot
	err := ss.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(rootPath))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения снимка: %w", err)
	}

	if maxAge > 0 && time.Since(snap.ScanTime) > maxAge {
		return nil, false, nil
	}
	return snap.Root, snap.Root != nil, nil
}

// Delete удаляет снимок корня (для тестов и принудительного рескана)
func (ss *SnapshotStore) Delete(rootPath string) error {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	if !ss.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return ss.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(rootPath))
	})
}
