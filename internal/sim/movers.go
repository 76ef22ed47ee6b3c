package sim

import (
	"math"

	"github.com/annel0/codecity/internal/geom"
	"github.com/annel0/codecity/internal/vec"
)

// MoverKind различает подвижные объекты города
type MoverKind uint8

const (
	MoverVehicle   MoverKind = iota // наземный транспорт на дорогах
	MoverAircraft                   // патрульный самолёт над городом
	MoverSatellite                  // спутник на большой высоте
)

// Mover — параметрическое описание траектории подвижного объекта.
// Позиция — чистая функция времени: объекты детерминированы и не
// требуют состояния между тиками.
type Mover struct {
	Kind  MoverKind
	axisX bool    // транспорт едет вдоль X, иначе вдоль Z
	lane  float64 // фиксированная координата дороги
	span  float64 // длина пробега
	speed float64
	phase float64
	alt   float64 // высота полёта
	rad   float64 // радиус орбиты
	cx    float64 // центр орбиты
	cz    float64
}

// PosAt возвращает позицию объекта в момент времени t
func (m *Mover) PosAt(t float64) vec.Vec3Float {
	switch m.Kind {
	case MoverVehicle:
		// Пинг-понг по отрезку дороги
		u := math.Mod(m.phase+m.speed*t, 2*m.span)
		if u < 0 {
			u += 2 * m.span
		}
		if u > m.span {
			u = 2*m.span - u
		}
		if m.axisX {
			return vec.V3(u, 0, m.lane)
		}
		return vec.V3(m.lane, 0, u)

	default:
		// Круговая орбита вокруг центра города
		a := m.phase + m.speed*t/m.rad
		return vec.V3(
			m.cx+m.rad*math.Cos(a),
			m.alt,
			m.cz+m.rad*math.Sin(a),
		)
	}
}

// Aerial сообщает, воздушный ли объект
func (m *Mover) Aerial() bool {
	return m.Kind != MoverVehicle
}

// GenerateMovers детерминированно раскладывает подвижные объекты
// по городу размером extentX на extentZ. Один и тот же seed даёт
// одинаковый трафик на любой машине.
func GenerateMovers(extentX, extentZ float64, seed uint64) []Mover {
	if extentX < 4 {
		extentX = 4
	}
	if extentZ < 4 {
		extentZ = 4
	}

	rng := geom.NewRand(seed)
	cx, cz := extentX/2, extentZ/2

	nVehicles := clampInt(int(extentX+extentZ)/8, 2, 16)
	nAircraft := clampInt(int(extentX+extentZ)/40, 1, 4)

	movers := make([]Mover, 0, nVehicles+nAircraft+1)

	for i := 0; i < nVehicles; i++ {
		axisX := rng.IntN(2) == 0
		span := extentX
		laneMax := extentZ
		if !axisX {
			span = extentZ
			laneMax = extentX
		}
		movers = append(movers, Mover{
			Kind:  MoverVehicle,
			axisX: axisX,
			lane:  float64(rng.IntN(int(laneMax) + 1)),
			span:  span,
			speed: 3 + rng.Float64()*4,
			phase: rng.Float64() * 2 * span,
		})
	}

	for i := 0; i < nAircraft; i++ {
		movers = append(movers, Mover{
			Kind:  MoverAircraft,
			alt:   25 + rng.Float64()*15,
			rad:   math.Max(extentX, extentZ)*0.4 + rng.Float64()*10,
			speed: 10 + rng.Float64()*8,
			phase: rng.Float64() * 2 * math.Pi,
			cx:    cx,
			cz:    cz,
		})
	}

	movers = append(movers, Mover{
		Kind:  MoverSatellite,
		alt:   120,
		rad:   math.Max(extentX, extentZ) * 0.8,
		speed: 30,
		phase: rng.Float64() * 2 * math.Pi,
		cx:    cx,
		cz:    cz,
	})

	return movers
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
