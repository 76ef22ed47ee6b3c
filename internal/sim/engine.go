// Package sim владеет жизненным циклом мира: сканирование каталога,
// сборка города, тик камеры и подвижных объектов, пикинг. Снимок
// города неизменяем и подменяется атомарно; камера и время симуляции
// мутируют только под мьютексом движка.
package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/codecity/internal/camera"
	"github.com/annel0/codecity/internal/city"
	"github.com/annel0/codecity/internal/eventbus"
	"github.com/annel0/codecity/internal/geom"
	"github.com/annel0/codecity/internal/logging"
	"github.com/annel0/codecity/internal/pick"
	"github.com/annel0/codecity/internal/scantree"
	"github.com/annel0/codecity/internal/storage"
	"github.com/annel0/codecity/internal/vec"
)

// Config задаёт параметры движка
type Config struct {
	Root        string            // корневой каталог сканирования
	TickRate    int               // тиков в секунду
	Scan        scantree.Options  // лимиты сканера
	Rules       city.LayoutRules  // правила раскладки
	CacheMaxAge time.Duration     // максимальный возраст кешированного снимка
}

// Snapshot — неизменяемый снимок мира. Читатели берут указатель
// один раз и работают с согласованным состоянием без блокировок.
type Snapshot struct {
	Root       *scantree.Node
	Blocks     []city.Block
	Beacons    []city.Beacon
	Terrain    []city.GroundTile
	Movers     []Mover
	Generation uint64
	ScanTime   time.Time

	blockIndex map[uint64]int
}

// BlockByID ищет строение в снимке по стабильному идентификатору
func (s *Snapshot) BlockByID(id uint64) (*city.Block, bool) {
	i, ok := s.blockIndex[id]
	if !ok {
		return nil, false
	}
	return &s.Blocks[i], true
}

// Engine — тик-цикл мира
type Engine struct {
	cfg     Config
	scanner *scantree.Scanner
	store   *scantree.SnapshotStore // может быть nil, кеш тогда выключен
	pins    storage.PinsRepo
	bus     eventbus.EventBus
	log     *logging.Logger

	snap       atomic.Pointer[Snapshot]
	generation atomic.Uint64

	mu      sync.Mutex
	cam     *camera.State
	simTime float64
	ticks   uint64

	quit chan struct{}
	done chan struct{}
}

// NewEngine собирает движок. Первый снимок строится вызовом Rebuild.
func NewEngine(cfg Config, pins storage.PinsRepo, store *scantree.SnapshotStore, bus eventbus.EventBus) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 30
	}
	e := &Engine{
		cfg:     cfg,
		scanner: scantree.NewScanner(cfg.Scan),
		store:   store,
		pins:    pins,
		bus:     bus,
		log:     logging.GetSimLogger(),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	empty := &Snapshot{blockIndex: map[uint64]int{}}
	e.snap.Store(empty)
	e.cam = camera.NewState(vec.V3(0, 0, 0))
	return e
}

// Rebuild сканирует каталог и атомарно подменяет снимок города.
// При ошибке сканирования старый снимок остаётся действующим.
func (e *Engine) Rebuild(ctx context.Context, useCache bool) error {
	started := time.Now()

	root, err := e.loadTree(ctx, useCache)
	if err != nil {
		e.log.Error("Рескан %s не удался: %v", e.cfg.Root, err)
		_ = eventbus.Emit(ctx, "sim", eventbus.TypeScanFailed, 7, eventbus.ScanFailedEvent{
			Root: e.cfg.Root, Error: err.Error(),
		})
		return fmt.Errorf("сканирование %s: %w", e.cfg.Root, err)
	}

	pinned, err := e.loadPinned(ctx)
	if err != nil {
		// Закрепления не критичны для пересборки
		e.log.Warn("Закрепления недоступны: %v", err)
		pinned = map[uint64]struct{}{}
	}

	blocks, beacons := city.Map(root, e.cfg.Rules, pinned)
	extX, extZ := cityExtent(blocks)
	seed := geom.HashString(e.cfg.Root)

	snap := &Snapshot{
		Root:       root,
		Blocks:     blocks,
		Beacons:    beacons,
		Terrain:    city.GenerateTerrain(int(extX)+4, int(extZ)+4, int64(seed)),
		Movers:     GenerateMovers(extX, extZ, seed),
		Generation: e.generation.Add(1),
		ScanTime:   time.Now().UTC(),
		blockIndex: indexBlocks(blocks),
	}
	e.snap.Store(snap)

	if e.store != nil {
		if err := e.store.Save(root, snap.ScanTime); err != nil {
			e.log.Warn("Кеш снимка не сохранён: %v", err)
		}
	}

	elapsed := time.Since(started)
	rebuildDuration.Observe(elapsed.Seconds())
	rebuildsTotal.Inc()
	blocksGauge.Set(float64(len(blocks)))

	e.log.Info("🏙️ Город пересобран: gen=%d blocks=%d beacons=%d за %s",
		snap.Generation, len(blocks), len(beacons), elapsed)

	_ = eventbus.Emit(ctx, "sim", eventbus.TypeCityRebuilt, 5, eventbus.CityRebuiltEvent{
		Root:       e.cfg.Root,
		Generation: snap.Generation,
		Blocks:     len(blocks),
		Beacons:    len(beacons),
		DurationMs: elapsed.Milliseconds(),
	})
	return nil
}

// loadTree читает дерево из кеша либо сканирует заново
func (e *Engine) loadTree(ctx context.Context, useCache bool) (*scantree.Node, error) {
	if useCache && e.store != nil && e.cfg.CacheMaxAge > 0 {
		root, ok, err := e.store.Load(e.cfg.Root, e.cfg.CacheMaxAge)
		if err != nil {
			e.log.Warn("Кеш снимка недоступен: %v", err)
		} else if ok {
			e.log.Debug("Снимок %s взят из кеша", e.cfg.Root)
			return root, nil
		}
	}
	return e.scanner.Scan(ctx, e.cfg.Root)
}

func (e *Engine) loadPinned(ctx context.Context) (map[uint64]struct{}, error) {
	if e.pins == nil {
		return map[uint64]struct{}{}, nil
	}
	pins, err := e.pins.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]struct{}, len(pins))
	for _, p := range pins {
		set[p.BlockID] = struct{}{}
	}
	return set, nil
}

// Start запускает тик-цикл в отдельной горутине
func (e *Engine) Start() {
	interval := time.Second / time.Duration(e.cfg.TickRate)
	go func() {
		defer close(e.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-e.quit:
				return
			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				e.tick(dt)
			}
		}
	}()
	e.log.Info("Тик-цикл запущен: %d Гц", e.cfg.TickRate)
}

// Stop останавливает тик-цикл и дожидается его завершения
func (e *Engine) Stop() {
	close(e.quit)
	<-e.done
}

func (e *Engine) tick(dt float64) {
	started := time.Now()

	e.mu.Lock()
	e.simTime += dt
	e.ticks++
	e.cam.Tick(dt, e)
	e.mu.Unlock()

	ticksTotal.Inc()
	tickDuration.Observe(time.Since(started).Seconds())
}

// Snapshot возвращает текущий снимок мира
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// WithCamera выполняет f под мьютексом движка.
// Единственный безопасный способ мутировать камеру извне тика.
func (e *Engine) WithCamera(f func(*camera.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(e.cam)
}

//================ camera.World =================//

// Blocks возвращает строения текущего снимка
func (e *Engine) Blocks() []city.Block {
	return e.snap.Load().Blocks
}

// BlockByID ищет строение по стабильному идентификатору
func (e *Engine) BlockByID(id uint64) (*city.Block, bool) {
	return e.snap.Load().BlockByID(id)
}

// MoverPos возвращает позицию подвижного объекта в текущий момент.
// Вызывается только из тика, e.mu уже взят.
func (e *Engine) MoverPos(index int) (vec.Vec3Float, bool) {
	movers := e.snap.Load().Movers
	if index < 0 || index >= len(movers) {
		return vec.Vec3Float{}, false
	}
	return movers[index].PosAt(e.simTime), true
}

// MoverAerial сообщает, воздушный ли объект
func (e *Engine) MoverAerial(index int) bool {
	movers := e.snap.Load().Movers
	if index < 0 || index >= len(movers) {
		return false
	}
	return movers[index].Aerial()
}

//================ Пикинг =================//

// PickResult описывает результат пикинга для внешних слоёв
type PickResult struct {
	BlockID  uint64  `json:"block_id"`
	Path     string  `json:"path"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Beacon   bool    `json:"beacon"`
}

// PickScreen пускает луч из экранной точки и возвращает ближайшее
// попадание в строение либо маркер. nil при промахе.
func (e *Engine) PickScreen(ctx context.Context, px, py, screenW, screenH float64) *PickResult {
	snap := e.snap.Load()

	e.mu.Lock()
	ray := e.cam.ViewRay(px, py, screenW, screenH)
	yaw := e.cam.Yaw
	e.mu.Unlock()

	return e.resolvePick(ctx, snap, ray, yaw)
}

// PickCenter пускает луч из центра экрана (прицел от первого лица)
func (e *Engine) PickCenter(ctx context.Context) *PickResult {
	snap := e.snap.Load()

	e.mu.Lock()
	ray := e.cam.CenterRay()
	yaw := e.cam.Yaw
	e.mu.Unlock()

	return e.resolvePick(ctx, snap, ray, yaw)
}

func (e *Engine) resolvePick(ctx context.Context, snap *Snapshot, ray geom.Ray, yaw float64) *PickResult {
	pickRequests.Inc()

	hit := pick.Pick(ray, snap.Blocks, yaw)
	beaconHit := pick.PickBeacon(ray, snap.Beacons)

	// Маркер выигрывает, если он ближе строения
	if beaconHit != nil && (hit == nil || beaconHit.Distance < hit.Distance) {
		res := &PickResult{BlockID: beaconHit.ID, Distance: beaconHit.Distance, Beacon: true}
		if b, ok := snap.BlockByID(beaconHit.ID); ok {
			res.Path = b.Path
			res.Name = b.Name
		}
		e.publishPick(ctx, res)
		return res
	}
	if hit == nil {
		return nil
	}

	res := &PickResult{BlockID: hit.ID, Distance: hit.Distance}
	if b, ok := snap.BlockByID(hit.ID); ok {
		res.Path = b.Path
		res.Name = b.Name
	}
	e.publishPick(ctx, res)
	return res
}

func (e *Engine) publishPick(ctx context.Context, res *PickResult) {
	_ = eventbus.Emit(ctx, "sim", eventbus.TypeBlockPicked, 3, eventbus.BlockPickedEvent{
		BlockID:  res.BlockID,
		Path:     res.Path,
		Distance: res.Distance,
		Beacon:   res.Beacon,
	})
}

//================ Закрепления =================//

// Pin закрепляет строение по пути и планирует пересборку
func (e *Engine) Pin(ctx context.Context, path, label string) error {
	if e.pins == nil {
		return fmt.Errorf("хранилище закреплений не настроено")
	}
	pin := storage.Pin{Path: path, Label: label}
	if err := e.pins.Save(ctx, pin); err != nil {
		return err
	}
	_ = eventbus.Emit(ctx, "sim", eventbus.TypePinAdded, 4, eventbus.PinEvent{
		Path: path, BlockID: scantree.PathID(path),
	})
	return e.Rebuild(ctx, true)
}

// Unpin снимает закрепление и планирует пересборку
func (e *Engine) Unpin(ctx context.Context, path string) error {
	if e.pins == nil {
		return fmt.Errorf("хранилище закреплений не настроено")
	}
	if err := e.pins.Delete(ctx, path); err != nil {
		return err
	}
	_ = eventbus.Emit(ctx, "sim", eventbus.TypePinRemoved, 4, eventbus.PinEvent{
		Path: path, BlockID: scantree.PathID(path),
	})
	return e.Rebuild(ctx, true)
}

//================ Кадры для стрима =================//

// Frame — снимок позы камеры и подвижных объектов для клиентов
type Frame struct {
	Generation uint64          `json:"generation"`
	Tick       uint64          `json:"tick"`
	Mode       string          `json:"mode"`
	Pos        vec.Vec3Float   `json:"pos"`
	Yaw        float64         `json:"yaw"`
	Pitch      float64         `json:"pitch"`
	Flying     bool            `json:"flying"`
	Piloting   bool            `json:"piloting"`
	Grapple    bool            `json:"grapple"`
	Movers     []vec.Vec3Float `json:"movers"`
}

// Frame собирает текущий кадр под мьютексом движка
func (e *Engine) Frame() Frame {
	snap := e.snap.Load()

	e.mu.Lock()
	defer e.mu.Unlock()

	mode := "orbit"
	if e.cam.Mode == camera.ModeFirstPerson {
		mode = "first_person"
	}
	movers := make([]vec.Vec3Float, len(snap.Movers))
	for i := range snap.Movers {
		movers[i] = snap.Movers[i].PosAt(e.simTime)
	}
	return Frame{
		Generation: snap.Generation,
		Tick:       e.ticks,
		Mode:       mode,
		Pos:        e.cam.Eye(),
		Yaw:        e.cam.Yaw,
		Pitch:      e.cam.Pitch,
		Flying:     e.cam.Flying,
		Piloting:   e.cam.Piloting,
		Grapple:    e.cam.Grapple != camera.GrappleNone,
		Movers:     movers,
	}
}

//================ Вспомогательное =================//

func indexBlocks(blocks []city.Block) map[uint64]int {
	idx := make(map[uint64]int, len(blocks))
	for i := range blocks {
		idx[blocks[i].ID] = i
	}
	return idx
}

// cityExtent возвращает габариты застройки в мировых координатах
func cityExtent(blocks []city.Block) (float64, float64) {
	var maxX, maxZ float64
	for i := range blocks {
		_, bmax := blocks[i].Bounds()
		if bmax.X > maxX {
			maxX = bmax.X
		}
		if bmax.Z > maxZ {
			maxZ = bmax.Z
		}
	}
	return maxX, maxZ
}
