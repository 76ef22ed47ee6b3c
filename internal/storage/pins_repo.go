// Package storage хранит пользовательские закрепления строений.
// Закрепления привязаны к нормализованному пути узла, а не к номеру
// блока в снимке: путь переживает рескан, номер — нет.
package storage

import (
	"context"
	"time"
)

// Pin описывает закреплённое строение
type Pin struct {
	Path      string    `json:"path"`       // нормализованный путь узла
	BlockID   uint64    `json:"block_id"`   // хеш пути, совпадает с Block.ID
	Label     string    `json:"label"`      // пользовательская подпись
	CreatedAt time.Time `json:"created_at"` // UTC
}

// PinsRepo определяет интерфейс для сохранения и загрузки закреплений.
// Реализации: память (fallback), Redis (быстрый общий кеш),
// MariaDB (постоянное хранилище).
type PinsRepo interface {
	// Save сохраняет закрепление, перезаписывая существующее по тому же пути
	Save(ctx context.Context, pin Pin) error

	// Load загружает закрепление по пути.
	// Второй результат false, если закрепление не найдено.
	Load(ctx context.Context, path string) (Pin, bool, error)

	// Delete удаляет закрепление
	Delete(ctx context.Context, path string) error

	// List возвращает все закрепления
	List(ctx context.Context) ([]Pin, error)
}
