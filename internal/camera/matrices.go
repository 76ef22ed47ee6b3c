package camera

import (
	"math"

	"github.com/annel0/codecity/internal/geom"
	"github.com/annel0/codecity/internal/vec"
)

// Eye возвращает мировую позицию глаза с учётом режима.
// В кабине камера висит чуть позади и выше самолёта (третье лицо).
func (s *State) Eye() vec.Vec3Float {
	switch {
	case s.Mode == ModeOrbit:
		return s.orbitEye()
	case s.Piloting:
		back := s.viewForward().Mul(-8)
		return s.Plane.Pos.Add(back).Add(vec.V3(0, 2.5, 0))
	default:
		return s.Pos
	}
}

// viewForward возвращает направление взгляда с учётом режима
// и свободного обзора в кабине.
func (s *State) viewForward() vec.Vec3Float {
	if s.Mode == ModeOrbit {
		return s.OrbitTarget.Sub(s.orbitEye()).Normalized()
	}
	yaw, pitch := s.Yaw, s.Pitch
	if s.Piloting {
		yaw = s.Plane.Yaw + s.Plane.LookYaw
		pitch = clamp(s.Plane.Pitch+s.Plane.LookPitch, -PitchLimit, PitchLimit)
	}
	cp := math.Cos(pitch)
	return vec.V3(cp*math.Sin(yaw), math.Sin(pitch), -cp*math.Cos(yaw))
}

// View строит видовую матрицу текущего режима
func (s *State) View() geom.Mat4 {
	eye := s.Eye()
	var center vec.Vec3Float
	if s.Mode == ModeOrbit {
		center = s.OrbitTarget
	} else {
		center = eye.Add(s.viewForward())
	}
	return geom.Mat4LookAt(eye, center, vec.V3(0, 1, 0))
}

// Proj строит проекционную матрицу под заданное соотношение сторон
func (s *State) Proj(aspect float64) geom.Mat4 {
	if aspect <= 0 || math.IsNaN(aspect) {
		aspect = 1
	}
	return geom.Mat4Perspective(FovY, aspect, NearZ, FarZ)
}

// ViewRay строит луч пикинга из экранной точки.
// Координаты в пикселях, начало в левом верхнем углу.
func (s *State) ViewRay(px, py, screenW, screenH float64) geom.Ray {
	return geom.RayFromScreen(px, py, screenW, screenH,
		s.Eye(), s.viewForward(), vec.V3(0, 1, 0), FovY)
}

// CenterRay строит луч из центра экрана (прицел от первого лица)
func (s *State) CenterRay() geom.Ray {
	return geom.NewRay(s.Eye(), s.viewForward())
}
