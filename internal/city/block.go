package city

import (
	"math"

	"github.com/annel0/codecity/internal/geom"
	"github.com/annel0/codecity/internal/scantree"
	"github.com/annel0/codecity/internal/vec"
)

// Block представляет размещённое строение города.
// Позиция — центр подошвы в мировых координатах (соглашение фиксировано:
// пикер, физика и рендерер считают от центра подошвы).
// Блоки неизменяемы после построения; рескан порождает новый список.
type Block struct {
	ID        uint64        `json:"id"`        // стабильный: хеш нормализованного пути
	NodeID    uint64        `json:"node_id"`   // идентификатор узла дерева
	Path      string        `json:"path"`      // абсолютный путь узла
	Name      string        `json:"name"`      // отображаемое имя
	Kind      scantree.Kind `json:"kind"`      // файл/каталог/симлинк
	Pos       vec.Vec3Float `json:"pos"`       // центр подошвы
	Footprint vec.Vec2      `json:"footprint"` // ширина×глубина (клетки × шаг сетки)
	Height    int           `json:"height"`    // высота в единицах мира
	Material  int           `json:"material"`  // индекс материала
	Texture   int           `json:"texture"`   // индекс текстуры
	Shape     geom.Shape    `json:"shape"`     // силуэт строения
	Pinned    bool          `json:"pinned"`    // закреплён пользователем
	GitRepo   bool          `json:"git_repo"`  // корень git-репозитория
	GitClean  bool          `json:"git_clean"` // репозиторий чистый
}

// Size возвращает габариты строения в единицах мира
func (b *Block) Size() (w, h, d float64) {
	return float64(b.Footprint.X), float64(b.Height), float64(b.Footprint.Y)
}

// TopY возвращает высоту крыши (плоской части, без деформации)
func (b *Block) TopY() float64 {
	return b.Pos.Y + float64(b.Height)
}

// Bounds возвращает осевой бокс без учёта деформации (для физики)
func (b *Block) Bounds() (min, max vec.Vec3Float) {
	w, h, d := b.Size()
	min = vec.V3(b.Pos.X-w/2, b.Pos.Y, b.Pos.Z-d/2)
	max = vec.V3(b.Pos.X+w/2, b.Pos.Y+h, b.Pos.Z+d/2)
	return min, max
}

// PickBounds возвращает бокс, раздутый консервативной границей шейпа.
// Используется пикером для дешёвой первой фазы.
// Клин поворачивается за камерой по четвертям и при w≠d может
// поменять оси подошвы местами, поэтому его горизонтальные
// полуразмеры раздуваются до max(w,d)/2.
func (b *Block) PickBounds() (min, max vec.Vec3Float) {
	w, h, d := b.Size()
	hw, hd := w/2, d/2
	if b.Shape == geom.ShapeWedgeX || b.Shape == geom.ShapeWedgeZ {
		half := math.Max(hw, hd)
		hw, hd = half, half
	}
	min = vec.V3(b.Pos.X-hw, b.Pos.Y, b.Pos.Z-hd)
	max = vec.V3(b.Pos.X+hw, b.Pos.Y+geom.HeightBound(b.Shape, w, h, d), b.Pos.Z+hd)
	return min, max
}

// Mesh строит точную треугольную сетку строения.
// Та же деформация используется рендерером: формулы живут в geom.
func (b *Block) Mesh(camYaw float64) []geom.Triangle {
	w, h, d := b.Size()
	return geom.BuildMesh(b.Shape, b.Pos, w, h, d, camYaw)
}

// Beacon представляет маркер статуса git-репозитория над строением.
// Пикается отдельным AABB-тестом, деформация не применяется.
type Beacon struct {
	ID      uint64        `json:"id"`       // совпадает с ID строения
	BlockID uint64        `json:"block_id"` // строение-владелец
	Min     vec.Vec3Float `json:"min"`
	Max     vec.Vec3Float `json:"max"`
	Clean   bool          `json:"clean"`
}
