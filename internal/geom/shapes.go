package geom

import (
	"math"

	"github.com/annel0/codecity/internal/vec"
)

// Shape определяет силуэт строения
type Shape uint8

const (
	ShapeCube     Shape = iota // обычный параллелепипед
	ShapeTaper                 // шпиль: верхняя грань сжата и поднята
	ShapePyramid               // пирамида: верхняя грань схлопнута в вершину
	ShapeWedgeX                // клин вдоль оси X
	ShapeWedgeZ                // клин вдоль оси Z
	ShapeCylinder              // цилиндр: кольца зажаты в эллипс подошвы

	// Не-строения. Ядро обязано принимать их без паники,
	// но деформация к ним не применяется.
	ShapeBeacon
	ShapeGroundTile
	ShapeVehicle
)

// Константы деформации. Единственный источник истины для маппера,
// пикера и генератора мешей: расхождение здесь означает, что клики
// перестают совпадать с картинкой.
const (
	// TaperTopScale сжатие верхней грани шпиля к центру
	TaperTopScale = 0.4
	// TaperRaise подъём верхней грани шпиля в долях высоты
	TaperRaise = 0.5
	// PyramidRaise подъём вершины пирамиды в долях высоты
	PyramidRaise = 0.5
	// WedgeShear сдвиг верхних кромок клина в долях полуширины подошвы
	WedgeShear = 1.5
	// CylinderSegments число сегментов аппроксимации цилиндра
	CylinderSegments = 12
)

// Triangle представляет треугольник сетки в мировых координатах
type Triangle struct {
	A, B, C vec.Vec3Float
}

// IsBuilding сообщает, деформируется ли шейп как строение
func (s Shape) IsBuilding() bool {
	return s <= ShapeCylinder
}

// HeightBound возвращает консервативную верхнюю границу AABB шейпа.
// Для куба и цилиндра это сама высота, шпиль и пирамида поднимаются
// до 1.5*h, клин — до h + WedgeShear*полуширина вдоль своей оси.
func HeightBound(shape Shape, w, h, d float64) float64 {
	switch shape {
	case ShapeTaper:
		return h * (1 + TaperRaise)
	case ShapePyramid:
		return h * (1 + PyramidRaise)
	case ShapeWedgeX:
		return h + WedgeShear*w/2
	case ShapeWedgeZ:
		return h + WedgeShear*d/2
	default:
		return h
	}
}

// WedgeYawQuadrant возвращает число четвертьоборотов клина по углу камеры,
// чтобы скошенная грань всегда смотрела на наблюдателя.
func WedgeYawQuadrant(camYaw float64) int {
	yaw := math.Mod(camYaw, 2*math.Pi)
	if yaw < 0 {
		yaw += 2 * math.Pi
	}
	q := int(math.Floor((yaw + math.Pi/4) / (math.Pi / 2)))
	return q % 4
}

// rotateQuarter поворачивает точку вокруг вертикальной оси на q четвертьоборотов.
// Повороты точные (без тригонометрии), чтобы меши были бит-в-бит повторяемы.
func rotateQuarter(p vec.Vec3Float, q int) vec.Vec3Float {
	switch q & 3 {
	case 1:
		return vec.V3(p.Z, p.Y, -p.X)
	case 2:
		return vec.V3(-p.X, p.Y, -p.Z)
	case 3:
		return vec.V3(-p.Z, p.Y, p.X)
	default:
		return p
	}
}

// BuildMesh строит треугольную сетку шейпа в мировых координатах.
// base — центр подошвы строения, w/h/d — габариты. camYaw влияет только
// на ориентацию клиньев. Не-строения дают обычный параллелепипед.
func BuildMesh(shape Shape, base vec.Vec3Float, w, h, d, camYaw float64) []Triangle {
	if w <= 0 || h <= 0 || d <= 0 {
		return nil
	}
	if shape == ShapeCylinder {
		return buildCylinder(base, w, h, d)
	}

	hw, hd := w/2, d/2
	// Подошва и крыша в локальных координатах (центр подошвы в нуле)
	verts := [8]vec.Vec3Float{
		{X: -hw, Y: 0, Z: -hd},
		{X: hw, Y: 0, Z: -hd},
		{X: hw, Y: 0, Z: hd},
		{X: -hw, Y: 0, Z: hd},
		{X: -hw, Y: h, Z: -hd},
		{X: hw, Y: h, Z: -hd},
		{X: hw, Y: h, Z: hd},
		{X: -hw, Y: h, Z: hd},
	}

	apex := false
	switch shape {
	case ShapeTaper:
		for i := 4; i < 8; i++ {
			verts[i].X *= TaperTopScale
			verts[i].Z *= TaperTopScale
			verts[i].Y = h * (1 + TaperRaise)
		}
	case ShapePyramid:
		tip := vec.V3(0, h*(1+PyramidRaise), 0)
		for i := 4; i < 8; i++ {
			verts[i] = tip
		}
		apex = true
	case ShapeWedgeX:
		raise := WedgeShear * hw
		lower := h - raise
		if lower < 0 {
			lower = 0
		}
		for i := 4; i < 8; i++ {
			if verts[i].X > 0 {
				verts[i].Y = h + raise
			} else {
				verts[i].Y = lower
			}
		}
	case ShapeWedgeZ:
		raise := WedgeShear * hd
		lower := h - raise
		if lower < 0 {
			lower = 0
		}
		for i := 4; i < 8; i++ {
			if verts[i].Z > 0 {
				verts[i].Y = h + raise
			} else {
				verts[i].Y = lower
			}
		}
	}

	if shape == ShapeWedgeX || shape == ShapeWedgeZ {
		q := WedgeYawQuadrant(camYaw)
		for i := range verts {
			verts[i] = rotateQuarter(verts[i], q)
		}
	}

	for i := range verts {
		verts[i] = verts[i].Add(base)
	}

	tris := make([]Triangle, 0, 12)
	quad := func(a, b, c, d int) {
		tris = append(tris,
			Triangle{A: verts[a], B: verts[b], C: verts[c]},
			Triangle{A: verts[a], B: verts[c], C: verts[d]},
		)
	}
	// Подошва
	quad(0, 1, 2, 3)
	// Стены
	quad(0, 4, 5, 1)
	quad(1, 5, 6, 2)
	quad(2, 6, 7, 3)
	quad(3, 7, 4, 0)
	// Крыша (у пирамиды вырождена в точку — пропускаем)
	if !apex {
		quad(4, 7, 6, 5)
	}
	return tris
}

// buildCylinder строит призму с кольцами, зажатыми в эллипс подошвы
func buildCylinder(base vec.Vec3Float, w, h, d float64) []Triangle {
	rx, rz := w/2, d/2
	n := CylinderSegments

	bottom := make([]vec.Vec3Float, n)
	top := make([]vec.Vec3Float, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		x := rx * math.Cos(theta)
		z := rz * math.Sin(theta)
		bottom[i] = base.Add(vec.V3(x, 0, z))
		top[i] = base.Add(vec.V3(x, h, z))
	}

	centerB := base
	centerT := base.Add(vec.V3(0, h, 0))

	tris := make([]Triangle, 0, n*4)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		// Боковая стенка
		tris = append(tris,
			Triangle{A: bottom[i], B: top[i], C: top[j]},
			Triangle{A: bottom[i], B: top[j], C: bottom[j]},
		)
		// Крышки веером
		tris = append(tris,
			Triangle{A: centerT, B: top[i], C: top[j]},
			Triangle{A: centerB, B: bottom[j], C: bottom[i]},
		)
	}
	return tris
}
