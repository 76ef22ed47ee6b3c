// Package pick реализует точное пересечение луча с геометрией города.
// Первая фаза — дешёвый AABB-тест с консервативной границей шейпа,
// вторая — пересечение с той же деформированной сеткой, которую
// рисует рендерер. Любое расхождение с geom ломает соответствие
// клика и картинки.
package pick

import (
	"github.com/annel0/codecity/internal/city"
	"github.com/annel0/codecity/internal/geom"
)

// Hit описывает результат пикинга: идентификатор и расстояние вдоль луча
type Hit struct {
	ID       uint64  `json:"id"`
	Distance float64 `json:"distance"`
}

// Pick возвращает ближайшее строение, пересечённое лучом, либо nil.
// cameraYaw нужен для ориентации клиньев: их сетка поворачивается
// к наблюдателю так же, как при отрисовке.
func Pick(ray geom.Ray, blocks []city.Block, cameraYaw float64) *Hit {
	if !ray.IsValid() {
		return nil
	}

	var best *Hit
	for i := range blocks {
		b := &blocks[i]
		if !b.Shape.IsBuilding() {
			continue
		}

		// Фаза 1: ранний отказ по раздутому боксу. Если даже бокс
		// дальше текущего лучшего попадания — сетку не строим.
		min, max := b.PickBounds()
		boxT, ok := ray.IntersectAABB(min, max)
		if !ok {
			continue
		}
		if best != nil && boxT >= best.Distance {
			continue
		}

		// Фаза 2: точная сетка
		if t, ok := meshHit(ray, b, cameraYaw); ok {
			if best == nil || t < best.Distance {
				best = &Hit{ID: b.ID, Distance: t}
			}
		}
	}
	return best
}

// meshHit ищет ближайший треугольник сетки строения
func meshHit(ray geom.Ray, b *city.Block, cameraYaw float64) (float64, bool) {
	var (
		bestT float64
		found bool
	)
	for _, tri := range b.Mesh(cameraYaw) {
		t, ok := ray.IntersectTriangle(tri)
		if !ok {
			continue
		}
		if !found || t < bestT {
			bestT, found = t, true
		}
	}
	return bestT, found
}

// PickBeacon возвращает ближайший маркер, пересечённый лучом, либо nil.
// Маркеры маленькие и их немного, поэтому достаточно чистого AABB-теста.
func PickBeacon(ray geom.Ray, beacons []city.Beacon) *Hit {
	if !ray.IsValid() {
		return nil
	}

	var best *Hit
	for i := range beacons {
		bc := &beacons[i]
		t, ok := ray.IntersectAABB(bc.Min, bc.Max)
		if !ok {
			continue
		}
		if best == nil || t < best.Distance {
			best = &Hit{ID: bc.ID, Distance: t}
		}
	}
	return best
}
