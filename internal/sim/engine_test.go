package sim

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/codecity/internal/camera"
	"github.com/annel0/codecity/internal/city"
	"github.com/annel0/codecity/internal/geom"
	"github.com/annel0/codecity/internal/scantree"
	"github.com/annel0/codecity/internal/storage"
	"github.com/annel0/codecity/internal/vec"
)

// makeProject собирает небольшой проект во временном каталоге
func makeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(rel string, size int) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}

	write("main.go", 4000)
	write("util.go", 1500)
	write("README.md", 800)
	write("pkg/parser.go", 2500)
	write("pkg/lexer.go", 1200)
	return dir
}

func makeEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := Config{
		Root:     makeProject(t),
		TickRate: 30,
		Scan:     scantree.Options{MaxDepth: 4, MaxNodes: 256},
		Rules:    city.DefaultRules(),
	}
	return NewEngine(cfg, storage.NewMemoryPinsRepo(), nil, nil)
}

// TestEngineRebuild тестирует первую пересборку города
func TestEngineRebuild(t *testing.T) {
	e := makeEngine(t)
	ctx := context.Background()

	// До пересборки снимок пустой
	empty := e.Snapshot()
	assert.Equal(t, uint64(0), empty.Generation, "Стартовый снимок должен иметь поколение 0")
	assert.Empty(t, empty.Blocks)

	require.NoError(t, e.Rebuild(ctx, false))

	snap := e.Snapshot()
	assert.Equal(t, uint64(1), snap.Generation, "Первая пересборка даёт поколение 1")
	require.NotNil(t, snap.Root)
	assert.NotEmpty(t, snap.Blocks, "Проект должен дать строения")
	assert.NotEmpty(t, snap.Terrain, "Рельеф должен сгенерироваться")
	assert.GreaterOrEqual(t, len(snap.Movers), 4, "Город должен получить трафик")
	assert.False(t, snap.ScanTime.IsZero())

	// Индекс по стабильному идентификатору
	b, ok := snap.BlockByID(snap.Blocks[0].ID)
	require.True(t, ok)
	assert.Equal(t, snap.Blocks[0].Path, b.Path)

	_, ok = snap.BlockByID(0)
	assert.False(t, ok, "Несуществующий идентификатор не должен находиться")

	// Повторная пересборка подменяет снимок, старый остаётся согласованным
	require.NoError(t, e.Rebuild(ctx, false))
	assert.Equal(t, uint64(2), e.Snapshot().Generation)
	assert.Equal(t, uint64(1), snap.Generation, "Старый снимок неизменяем")
}

// TestEngineRebuildError тестирует сохранение снимка при ошибке сканирования
func TestEngineRebuildError(t *testing.T) {
	e := makeEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Rebuild(ctx, false))
	old := e.Snapshot()

	e.cfg.Root = filepath.Join(e.cfg.Root, "нет-такого-каталога")
	err := e.Rebuild(ctx, false)
	require.Error(t, err, "Сканирование несуществующего корня должно падать")

	assert.Same(t, old, e.Snapshot(), "При ошибке старый снимок остаётся действующим")
}

// TestEngineWorldInterface тестирует доступ камеры к миру
func TestEngineWorldInterface(t *testing.T) {
	e := makeEngine(t)
	require.NoError(t, e.Rebuild(context.Background(), false))
	snap := e.Snapshot()

	assert.Len(t, e.Blocks(), len(snap.Blocks))

	pos, ok := e.MoverPos(0)
	require.True(t, ok)
	assert.False(t, math.IsNaN(pos.X))

	_, ok = e.MoverPos(-1)
	assert.False(t, ok)
	_, ok = e.MoverPos(len(snap.Movers))
	assert.False(t, ok)

	// Спутник замыкает список и является воздушным
	assert.True(t, e.MoverAerial(len(snap.Movers)-1))
	assert.False(t, e.MoverAerial(len(snap.Movers)+5))
}

// TestEnginePinUnpin тестирует закрепление строения с пересборкой
func TestEnginePinUnpin(t *testing.T) {
	e := makeEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Rebuild(ctx, false))

	snap := e.Snapshot()
	var target *city.Block
	for i := range snap.Blocks {
		if snap.Blocks[i].Kind == scantree.KindFile {
			target = &snap.Blocks[i]
			break
		}
	}
	require.NotNil(t, target, "В проекте должен быть хотя бы один файл")

	require.NoError(t, e.Pin(ctx, target.Path, "важное"))
	assert.Equal(t, uint64(2), e.Snapshot().Generation, "Закрепление пересобирает город")

	pinned, ok := e.Snapshot().BlockByID(target.ID)
	require.True(t, ok, "Закреплённое строение должно пережить пересборку")
	assert.True(t, pinned.Pinned)

	require.NoError(t, e.Unpin(ctx, target.Path))
	unpinned, ok := e.Snapshot().BlockByID(target.ID)
	require.True(t, ok)
	assert.False(t, unpinned.Pinned)
}

// TestEnginePinWithoutRepo тестирует закрепление без хранилища
func TestEnginePinWithoutRepo(t *testing.T) {
	cfg := Config{Root: makeProject(t), Rules: city.DefaultRules(), Scan: scantree.Options{MaxDepth: 4, MaxNodes: 64}}
	e := NewEngine(cfg, nil, nil, nil)
	ctx := context.Background()

	assert.Error(t, e.Pin(ctx, "/любой/путь", ""))
	assert.Error(t, e.Unpin(ctx, "/любой/путь"))
	// Пересборка без хранилища закреплений работает
	assert.NoError(t, e.Rebuild(ctx, false))
}

// TestEnginePickCenter тестирует пикинг лучом из прицела
func TestEnginePickCenter(t *testing.T) {
	e := makeEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Rebuild(ctx, false))
	snap := e.Snapshot()

	var target *city.Block
	for i := range snap.Blocks {
		if snap.Blocks[i].Shape == geom.ShapeCube {
			target = &snap.Blocks[i]
			break
		}
	}
	require.NotNil(t, target, "В городе должен быть хотя бы один куб")

	w, _, _ := target.Size()
	e.WithCamera(func(c *camera.State) {
		c.Mode = camera.ModeFirstPerson
		// Смещение от центра уводит луч с диагонали крыши
		c.Pos = vec.V3(target.Pos.X+w/4, target.TopY()+10, target.Pos.Z)
		c.Yaw = 0
		c.Pitch = -math.Pi / 2
	})

	res := e.PickCenter(ctx)
	require.NotNil(t, res, "Луч вниз с крыши должен попасть в строение")
	assert.Equal(t, target.ID, res.BlockID)
	assert.Equal(t, target.Path, res.Path)
	assert.False(t, res.Beacon)
	assert.InDelta(t, 10.0, res.Distance, 1e-6, "Дистанция до крыши")
}

// TestEnginePickMiss тестирует промахи пикинга
func TestEnginePickMiss(t *testing.T) {
	e := makeEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Rebuild(ctx, false))

	e.WithCamera(func(c *camera.State) {
		c.Mode = camera.ModeFirstPerson
		c.Pos = vec.V3(-500, 100, -500)
		c.Yaw = 0
		c.Pitch = 1.0 // взгляд в небо
	})

	assert.Nil(t, e.PickCenter(ctx), "Луч в небо должен промахнуться")
	assert.Nil(t, e.PickScreen(ctx, 0, 0, 0, 0), "Вырожденный экран не даёт попадания")
}

// TestEngineFrame тестирует сборку кадра для клиентов
func TestEngineFrame(t *testing.T) {
	e := makeEngine(t)
	require.NoError(t, e.Rebuild(context.Background(), false))
	snap := e.Snapshot()

	frame := e.Frame()
	assert.Equal(t, snap.Generation, frame.Generation)
	assert.Equal(t, "orbit", frame.Mode)
	assert.Len(t, frame.Movers, len(snap.Movers))
	assert.False(t, frame.Flying)
	assert.False(t, frame.Piloting)
	assert.False(t, frame.Grapple)

	e.WithCamera(func(c *camera.State) { c.ToggleFirstPerson() })
	assert.Equal(t, "first_person", e.Frame().Mode)
}

// TestEngineStartStop тестирует жизненный цикл тик-цикла
func TestEngineStartStop(t *testing.T) {
	e := makeEngine(t)
	require.NoError(t, e.Rebuild(context.Background(), false))

	e.Start()

	deadline := time.After(2 * time.Second)
	for e.Frame().Tick == 0 {
		select {
		case <-deadline:
			t.Fatal("Тики не пошли за отведённое время")
		case <-time.After(10 * time.Millisecond):
		}
	}

	e.Stop()
	tick := e.Frame().Tick
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, tick, e.Frame().Tick, "После остановки тики не идут")
}
