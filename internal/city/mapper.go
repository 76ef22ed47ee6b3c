package city

import (
	"math"
	"sort"

	"github.com/annel0/codecity/internal/geom"
	"github.com/annel0/codecity/internal/scantree"
	"github.com/annel0/codecity/internal/vec"
)

// Количество корзин материалов и текстур. Рендерер маппит индексы
// на свои атласы; ядру важна только детерминированность.
const (
	MaterialCount = 8
	TextureCount  = 16
)

// buildingShapes — силуэты, назначаемые строениям по хешу
var buildingShapes = [...]geom.Shape{
	geom.ShapeCube,
	geom.ShapeTaper,
	geom.ShapePyramid,
	geom.ShapeWedgeX,
	geom.ShapeWedgeZ,
	geom.ShapeCylinder,
}

// candidate — промежуточное состояние кандидата на размещение
type candidate struct {
	node  *scantree.Node
	index int // позиция в исходном порядке детей
	pin   bool
	w, d  int // подошва в клетках
	h     int // высота
}

// Map раскладывает прямых детей корня в список строений города.
// Детерминировано: одно дерево + одни правила + один набор пинов
// всегда дают одинаковый список (позиции, формы, текстуры).
// Пустой корень даёт пустой список, это не ошибка.
func Map(root *scantree.Node, rules LayoutRules, pinned map[uint64]struct{}) ([]Block, []Beacon) {
	rules = rules.sanitized()
	if root == nil || len(root.Children) == 0 || rules.MaxNodes == 0 {
		return nil, nil
	}

	// 1. Кандидаты: один уровень. Глубже ходит сканер, а не маппер;
	// размер поддерева уже агрегирован в TotalSize.
	cands := make([]candidate, 0, len(root.Children))
	for i, child := range root.Children {
		_, pin := pinned[child.ID]
		c := candidate{node: child, index: i, pin: pin}
		c.w, c.d, c.h = dimensionsFor(child, rules)
		cands = append(cands, c)
	}

	// 2. Отсечение сверх лимита: пины, затем крупные, затем исходный
	// порядок. Лишние отбрасываются молча и воспроизводимо.
	if len(cands) > rules.MaxNodes {
		byPriority := make([]candidate, len(cands))
		copy(byPriority, cands)
		sort.SliceStable(byPriority, func(i, j int) bool {
			a, b := byPriority[i], byPriority[j]
			if a.pin != b.pin {
				return a.pin
			}
			if a.node.TotalSize != b.node.TotalSize {
				return a.node.TotalSize > b.node.TotalSize
			}
			return a.index < b.index
		})
		kept := make(map[int]struct{}, rules.MaxNodes)
		for _, c := range byPriority[:rules.MaxNodes] {
			kept[c.index] = struct{}{}
		}
		filtered := cands[:0]
		for _, c := range cands {
			if _, ok := kept[c.index]; ok {
				filtered = append(filtered, c)
			}
		}
		cands = filtered
	}

	// Пины размещаются отдельно (стеком), остальные — упаковщиком
	var normal, pins []candidate
	for _, c := range cands {
		if c.pin {
			pins = append(pins, c)
		} else {
			normal = append(normal, c)
		}
	}

	blocks := make([]Block, 0, len(cands))
	grid := newOccupancy()

	// 3. Полочная упаковка по целочисленной сетке: ни одна пара
	// подошв, раздутых дорогой, не пересекается по построению.
	rowLimit := int(math.Ceil(math.Sqrt(float64(len(normal)))))
	if rowLimit < 1 {
		rowLimit = 1
	}
	margin := rules.RoadWidth + rules.Padding*2

	cellX, cellZ, rowMaxD, inRow := 0, 0, 0, 0
	for _, c := range normal {
		if inRow == rowLimit {
			cellZ += rowMaxD + margin
			cellX, rowMaxD, inRow = 0, 0, 0
		}
		b := buildBlock(c, cellX, cellZ, 0, rules)
		grid.claim(cellX, cellZ, c.w, c.d, len(blocks))
		blocks = append(blocks, b)

		cellX += c.w + margin
		if c.d > rowMaxD {
			rowMaxD = c.d
		}
		inRow++
	}

	// 4. Пины: якорная клетка выводится из хеша пути, поэтому
	// закреплённое строение стоит на одном месте между ресканами.
	// Наземное размещение допустимо только если вся подошва пина,
	// раздутая дорожным отступом, свободна; иначе стек вверх от
	// крыши владельца первой занятой клетки.
	maxX, maxZ := grid.extent()
	if maxX < 1 {
		maxX = 1
	}
	if maxZ < 1 {
		maxZ = 1
	}
	stackTop := make(map[int]float64) // индекс блока -> текущая вершина стека
	for _, c := range pins {
		h := geom.HashString(c.node.Path)
		ax := geom.Bucket(h, maxX)
		az := geom.Bucket(mixPin(h), maxZ)

		if owner, ok := grid.ownerNear(ax, az, c.w, c.d, margin); ok {
			base := blocks[owner]
			top, seen := stackTop[owner]
			if !seen {
				top = base.TopY()
			}
			b := buildBlock(c, 0, 0, 0, rules)
			// Стек выравнивается по владельцу клетки
			b.Pos = vec.V3(base.Pos.X, top, base.Pos.Z)
			stackTop[owner] = top + float64(b.Height)
			blocks = append(blocks, b)
			continue
		}

		b := buildBlock(c, ax, az, 0, rules)
		grid.claim(ax, az, c.w, c.d, len(blocks))
		blocks = append(blocks, b)
	}

	return blocks, buildBeacons(blocks)
}

// mixPin вторичный хеш для оси Z якоря
func mixPin(h uint64) uint64 {
	return geom.Hash2(int64(h), 1, 2)
}

// buildBlock собирает Block по кандидату и клетке сетки
func buildBlock(c candidate, cellX, cellZ int, baseY float64, rules LayoutRules) Block {
	spacing := float64(rules.GridSpacing)
	n := c.node
	return Block{
		ID:        n.ID,
		NodeID:    n.ID,
		Path:      n.Path,
		Name:      n.Name,
		Kind:      n.Kind,
		Pos: vec.V3(
			(float64(cellX)+float64(c.w)/2)*spacing,
			baseY,
			(float64(cellZ)+float64(c.d)/2)*spacing,
		),
		Footprint: vec.Vec2{X: c.w * rules.GridSpacing, Y: c.d * rules.GridSpacing},
		Height:    c.h,
		Material:  geom.Bucket(geom.HashString("mat:"+n.Path), MaterialCount),
		Texture:   geom.Bucket(geom.HashString("tex:"+n.Name), TextureCount),
		Shape:     shapeFor(n),
		Pinned:    c.pin,
		GitRepo:   n.GitRepo,
		GitClean:  n.GitClean,
	}
}

// shapeFor назначает силуэт по расширению/типу узла.
// Хеш явный и стабильный: один и тот же файл всегда выглядит одинаково.
func shapeFor(n *scantree.Node) geom.Shape {
	var key string
	switch n.Kind {
	case scantree.KindDir:
		return geom.ShapeCube // каталоги всегда кубы
	case scantree.KindSymlink:
		key = "shape:symlink"
	default:
		key = "shape:" + n.Ext()
	}
	return buildingShapes[geom.Bucket(geom.HashString(key), len(buildingShapes))]
}

// dimensionsFor выводит подошву и высоту из метаданных узла.
// Отображение монотонно и насыщаемо: больший размер никогда не даёт
// меньшую подошву или высоту. Файл нулевого размера получает
// минимальную видимую высоту.
func dimensionsFor(n *scantree.Node, rules LayoutRules) (w, d, h int) {
	s := math.Log2(float64(n.TotalSize) + 1)

	if n.Kind == scantree.KindDir {
		// Каталоги шире по умолчанию
		side := clampInt(rules.MinFootprint+2+int(s/4), rules.MinFootprint+2, rules.MaxFootprint)
		if side > rules.MaxFootprint {
			side = rules.MaxFootprint
		}
		height := clampInt(2+int(s/2), 2, rules.MaxHeight)
		return side, side, height
	}

	side := clampInt(rules.MinFootprint+int(s/3), rules.MinFootprint, rules.MaxFootprint)
	height := clampInt(1+int(s*1.5), 1, rules.MaxHeight)
	return side, side, height
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// buildBeacons ставит маркер статуса над каждым git-строением
func buildBeacons(blocks []Block) []Beacon {
	var beacons []Beacon
	for i := range blocks {
		b := &blocks[i]
		if !b.GitRepo {
			continue
		}
		const half = 0.4
		const hover = 1.0
		cy := b.TopY() + hover + half
		beacons = append(beacons, Beacon{
			ID:      b.ID,
			BlockID: b.ID,
			Min:     vec.V3(b.Pos.X-half, cy-half, b.Pos.Z-half),
			Max:     vec.V3(b.Pos.X+half, cy+half, b.Pos.Z+half),
			Clean:   b.GitClean,
		})
	}
	return beacons
}

// occupancy — карта занятых клеток для стекования пинов
type occupancy struct {
	cells      map[vec.Vec2]int
	maxX, maxZ int
}

func newOccupancy() *occupancy {
	return &occupancy{cells: make(map[vec.Vec2]int)}
}

func (o *occupancy) claim(x, z, w, d, blockIndex int) {
	for i := 0; i < w; i++ {
		for j := 0; j < d; j++ {
			o.cells[vec.Vec2{X: x + i, Y: z + j}] = blockIndex
		}
	}
	if x+w > o.maxX {
		o.maxX = x + w
	}
	if z+d > o.maxZ {
		o.maxZ = z + d
	}
}

// ownerNear ищет занятую клетку в подошве (x,z,w,d), раздутой margin
// со всех сторон. Порядок обхода фиксирован, поэтому выбор владельца
// при нескольких соседях детерминирован.
func (o *occupancy) ownerNear(x, z, w, d, margin int) (int, bool) {
	for i := -margin; i < w+margin; i++ {
		for j := -margin; j < d+margin; j++ {
			if idx, ok := o.cells[vec.Vec2{X: x + i, Y: z + j}]; ok {
				return idx, true
			}
		}
	}
	return 0, false
}

func (o *occupancy) extent() (int, int) {
	return o.maxX, o.maxZ
}
