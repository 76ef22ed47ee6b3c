package eventbus

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFor опрашивает условие до таймаута (диспетчеризация асинхронная)
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Условие не выполнилось за отведённое время")
}

// TestNewEnvelope проверяет сборку конверта
func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope("sim", TypeCityRebuilt, 5, CityRebuiltEvent{
		Root:       "/proj",
		Generation: 3,
		Blocks:     42,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "sim", ev.Source)
	assert.Equal(t, TypeCityRebuilt, ev.EventType)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())

	var payload CityRebuiltEvent
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, uint64(3), payload.Generation)
	assert.Equal(t, 42, payload.Blocks)
}

// TestMemoryBusPubSub проверяет доставку события подписчику
func TestMemoryBusPubSub(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var got atomic.Int64
	_, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		got.Add(1)
	})
	require.NoError(t, err)

	ev, err := NewEnvelope("test", TypeBlockPicked, 5, BlockPickedEvent{BlockID: 1})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))

	waitFor(t, func() bool { return got.Load() == 1 })
	assert.Equal(t, uint64(1), bus.Metrics().Published)
}

// TestMemoryBusFilter проверяет фильтрацию по типу и источнику
func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var picks, all atomic.Int64
	_, err := bus.Subscribe(ctx, Filter{Types: []string{TypeBlockPicked}}, func(ctx context.Context, ev *Envelope) {
		picks.Add(1)
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		all.Add(1)
	})
	require.NoError(t, err)

	pick, _ := NewEnvelope("sim", TypeBlockPicked, 5, BlockPickedEvent{BlockID: 1})
	mode, _ := NewEnvelope("sim", TypeCameraMode, 5, CameraModeEvent{Mode: "orbit"})
	require.NoError(t, bus.Publish(ctx, pick))
	require.NoError(t, bus.Publish(ctx, mode))

	waitFor(t, func() bool { return all.Load() == 2 })
	assert.Equal(t, int64(1), picks.Load(), "Фильтр по типу пропустил чужое событие")

	// Фильтр по источнику
	var fromAPI atomic.Int64
	_, err = bus.Subscribe(ctx, Filter{Sources: []string{"api"}}, func(ctx context.Context, ev *Envelope) {
		fromAPI.Add(1)
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, pick)) // source=sim
	waitFor(t, func() bool { return all.Load() == 3 })
	assert.Zero(t, fromAPI.Load(), "Фильтр по источнику пропустил чужое событие")
}

// TestMemoryBusUnsubscribe проверяет отписку
func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var got atomic.Int64
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		got.Add(1)
	})
	require.NoError(t, err)

	ev, _ := NewEnvelope("test", TypePinAdded, 5, PinEvent{Path: "/a"})
	require.NoError(t, bus.Publish(ctx, ev))
	waitFor(t, func() bool { return got.Load() == 1 })

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(ctx, ev))

	// Даём диспетчеру время: счётчик не должен вырасти
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), got.Load(), "Событие доставлено после отписки")
}

// TestMemoryBusDropsLowPriority проверяет дроп при переполненном буфере
func TestMemoryBusDropsLowPriority(t *testing.T) {
	// Буфер на одно событие и ни одного подписчика: диспетчер
	// вычитывает канал, поэтому заполняем его быстрее, чем он читает.
	bus := NewMemoryBus(1)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		ev, _ := NewEnvelope("test", TypeScanFailed, 0, ScanFailedEvent{Root: "/x"})
		require.NoError(t, bus.Publish(ctx, ev), "Низкий приоритет не должен давать ошибку")
	}

	stats := bus.Metrics()
	assert.Equal(t, uint64(200), stats.Published+stats.Dropped,
		"Каждое событие либо опубликовано, либо учтено как дроп")
}

// TestMemoryBusHighPriorityRespectsContext проверяет отмену ожидания
func TestMemoryBusHighPriorityRespectsContext(t *testing.T) {
	bus := NewMemoryBus(1).(*memoryBus)

	// Останавливаем диспетчер конкуренцией за буфер: забиваем канал вручную
	ev, _ := NewEnvelope("test", TypeCityRebuilt, 9, CityRebuiltEvent{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Публикуем до отказа; как только буфер полон, высокий приоритет
	// блокируется и должен выйти по таймауту контекста.
	var err error
	for i := 0; i < 1000; i++ {
		if err = bus.Publish(ctx, ev); err != nil {
			break
		}
	}
	if err != nil {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}
