package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/codecity/internal/scantree"
)

// MemoryPinsRepo реализует PinsRepo в памяти.
// Используется как fallback, когда внешнее хранилище недоступно,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryPinsRepo struct {
	mu   sync.RWMutex
	data map[string]Pin // путь -> закрепление
}

// NewMemoryPinsRepo создает новый репозиторий закреплений в памяти
func NewMemoryPinsRepo() *MemoryPinsRepo {
	return &MemoryPinsRepo{
		data: make(map[string]Pin),
	}
}

// Save сохраняет закрепление в памяти
func (r *MemoryPinsRepo) Save(ctx context.Context, pin Pin) error {
	if pin.Path == "" {
		return fmt.Errorf("недействительный путь закрепления: пустая строка")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if pin.BlockID == 0 {
		pin.BlockID = scantree.PathID(pin.Path)
	}
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[pin.Path] = pin
	return nil
}

// Load загружает закрепление из памяти
func (r *MemoryPinsRepo) Load(ctx context.Context, path string) (Pin, bool, error) {
	if path == "" {
		return Pin{}, false, fmt.Errorf("недействительный путь закрепления: пустая строка")
	}

	select {
	case <-ctx.Done():
		return Pin{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pin, exists := r.data[path]
	return pin, exists, nil
}

// Delete удаляет закрепление из памяти
func (r *MemoryPinsRepo) Delete(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("недействительный путь закрепления: пустая строка")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[path]; !exists {
		return fmt.Errorf("закрепление для пути %s не найдено", path)
	}

	delete(r.data, path)
	return nil
}

// List возвращает все закрепления, отсортированные по пути
func (r *MemoryPinsRepo) List(ctx context.Context) ([]Pin, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pins := make([]Pin, 0, len(r.data))
	for _, pin := range r.data {
		pins = append(pins, pin)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Path < pins[j].Path })
	return pins, nil
}

// Count возвращает количество закреплений (для отладки)
func (r *MemoryPinsRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Clear очищает все закрепления (для тестов)
func (r *MemoryPinsRepo) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = make(map[string]Pin)
}
