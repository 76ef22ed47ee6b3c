package geom

import (
	"math"

	"github.com/annel0/codecity/internal/vec"
)

// Ray представляет луч в мировых координатах
type Ray struct {
	Origin vec.Vec3Float
	Dir    vec.Vec3Float // нормализован; нулевой вектор = невалидный луч
}

// NewRay создаёт луч, нормализуя направление
func NewRay(origin, dir vec.Vec3Float) Ray {
	return Ray{Origin: origin, Dir: dir.Normalized()}
}

// IsValid сообщает, пригоден ли луч для пересечений
func (r Ray) IsValid() bool {
	return r.Dir.Length() > 0.5 // нормализованный либо нулевой
}

// RayFromScreen строит луч из точки экрана для перспективной камеры.
// px/py в пикселях (начало в левом верхнем углу), fovY в радианах.
func RayFromScreen(px, py, screenW, screenH float64, camPos, forward, up vec.Vec3Float, fovY float64) Ray {
	if screenW <= 0 || screenH <= 0 {
		return Ray{Origin: camPos}
	}
	fwd := forward.Normalized()
	if fwd.Length() == 0 {
		return Ray{Origin: camPos}
	}
	right := fwd.Cross(up).Normalized()
	trueUp := right.Cross(fwd)

	ndcX := (px/screenW)*2 - 1
	ndcY := 1 - (py/screenH)*2
	tanHalf := math.Tan(fovY / 2)
	aspect := screenW / screenH

	dir := fwd.
		Add(right.Mul(ndcX * tanHalf * aspect)).
		Add(trueUp.Mul(ndcY * tanHalf))
	return NewRay(camPos, dir)
}

// IntersectAABB выполняет slab-тест с осевым боксом [min, max].
// Возвращает ближайшее неотрицательное расстояние вдоль луча.
func (r Ray) IntersectAABB(min, max vec.Vec3Float) (float64, bool) {
	if !r.IsValid() {
		return 0, false
	}

	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	axes := [3][3]float64{
		{r.Origin.X, r.Dir.X, 0},
		{r.Origin.Y, r.Dir.Y, 0},
		{r.Origin.Z, r.Dir.Z, 0},
	}
	lo := [3]float64{min.X, min.Y, min.Z}
	hi := [3]float64{max.X, max.Y, max.Z}

	for i := 0; i < 3; i++ {
		o, d := axes[i][0], axes[i][1]
		if math.Abs(d) < 1e-12 {
			// Луч параллелен слою: пересечения нет, если начало вне слоя
			if o < lo[i] || o > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - o) / d
		t2 := (hi[i] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return tMax, true // начало внутри бокса
	}
	return tMin, true
}

// IntersectSphere возвращает ближайшее пересечение со сферой
func (r Ray) IntersectSphere(center vec.Vec3Float, radius float64) (float64, bool) {
	if !r.IsValid() || radius <= 0 {
		return 0, false
	}
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectTriangle выполняет тест Мёллера—Трумбора (без отсечения задних граней)
func (r Ray) IntersectTriangle(tri Triangle) (float64, bool) {
	if !r.IsValid() {
		return 0, false
	}
	const eps = 1e-9

	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < eps {
		return 0, false // луч параллелен плоскости треугольника
	}
	inv := 1 / det
	s := r.Origin.Sub(tri.A)
	u := s.Dot(p) * inv
	if u < -eps || u > 1+eps {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * inv
	if v < -eps || u+v > 1+eps {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < eps {
		return 0, false
	}
	return t, true
}
