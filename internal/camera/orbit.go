package camera

import (
	"math"

	"github.com/annel0/codecity/internal/vec"
)

// tickOrbit применяет панорамирование и зум орбитальной камеры.
// Физика здесь не нужна: вид выводится аналитически из цели,
// фиксированного наклона, рыскания и дистанции.
func (s *State) tickOrbit(dt float64) {
	if s.input.PanDX != 0 || s.input.PanDY != 0 {
		// Панорамирование в горизонтальных осях камеры
		cosY := math.Cos(s.OrbitYaw)
		sinY := math.Sin(s.OrbitYaw)
		scale := s.OrbitDist * 0.002
		dx, dy := s.input.PanDX, s.input.PanDY
		s.OrbitTarget.X += (dx*cosY + dy*sinY) * scale
		s.OrbitTarget.Z += (-dx*sinY + dy*cosY) * scale
	}

	if s.input.Scroll != 0 {
		s.OrbitDist *= 1 - s.input.Scroll*0.1
		s.OrbitDist = clamp(s.OrbitDist, OrbitMinDist, OrbitMaxDist)
	}

	// Дельта мыши в орбите крутит рыскание вокруг цели
	if s.input.MouseDX != 0 {
		s.OrbitYaw += s.input.MouseDX * MouseSens
	}
	_ = dt
}

// orbitEye возвращает позицию глаза орбитальной камеры
func (s *State) orbitEye() vec.Vec3Float {
	cp := math.Cos(OrbitPitch)
	return vec.V3(
		s.OrbitTarget.X+s.OrbitDist*math.Sin(s.OrbitYaw)*cp,
		s.OrbitTarget.Y+s.OrbitDist*math.Sin(OrbitPitch),
		s.OrbitTarget.Z+s.OrbitDist*math.Cos(s.OrbitYaw)*cp,
	)
}
