package camera

import (
	"github.com/annel0/codecity/internal/vec"
)

// BeginGrapple запускает полёт к точке попадания луча.
// blockID != 0 означает попадание в строение, moverIndex >= 0 —
// в подвижный объект; оба нуля дают полёт к точке в пространстве.
// Работает только от первого лица вне пилотирования.
func (s *State) BeginGrapple(point vec.Vec3Float, blockID uint64, moverIndex int) {
	if s.Mode != ModeFirstPerson || s.Piloting {
		return
	}
	s.Grapple = GrappleFlying
	s.GrapplePoint = point
	s.GrappleBlockID = blockID
	s.GrappleMover = moverIndex
	s.VelY = 0
}

// detachGrapple отцепляет грэппл, сохраняя текущую позицию.
// Вертикальная скорость обнуляется: дальше работает обычная гравитация.
func (s *State) detachGrapple() {
	s.Grapple = GrappleNone
	s.GrappleBlockID = 0
	s.GrappleMover = -1
	s.VelY = 0
}

// tickGrapple продвигает полёт к цели либо удерживает прилипание.
// Цель перепроверяется каждый тик: строение или объект могли исчезнуть
// после рескана, тогда грэппл отцепляется и камера падает.
func (s *State) tickGrapple(dt float64, w World) {
	switch s.Grapple {
	case GrappleFlying:
		target := s.grappleTarget(w)
		to := target.Sub(s.Pos)
		dist := to.Length()
		if dist <= GrappleArrive {
			s.arrive()
			return
		}
		step := GrappleSpeed * dt
		if step >= dist {
			s.Pos = target
			s.arrive()
			return
		}
		s.Pos = s.Pos.Add(to.Mul(step / dist))

	case GrappleBlock:
		if w == nil {
			s.detachGrapple()
			return
		}
		if _, ok := w.BlockByID(s.GrappleBlockID); !ok {
			s.detachGrapple()
			return
		}
		// Зависание над точкой прилипания на строении
		s.Pos = vec.V3(s.GrapplePoint.X, s.GrapplePoint.Y+GrappleOffsetGround, s.GrapplePoint.Z)

	case GrappleMover:
		if w == nil {
			s.detachGrapple()
			return
		}
		pos, ok := w.MoverPos(s.GrappleMover)
		if !ok {
			s.detachGrapple()
			return
		}
		off := GrappleOffsetGround
		if w.MoverAerial(s.GrappleMover) {
			off = GrappleOffsetAerial
		}
		s.Pos = vec.V3(pos.X, pos.Y+off, pos.Z)
	}
}

// grappleTarget возвращает актуальную точку полёта.
// Для подвижной цели точка следует за объектом.
func (s *State) grappleTarget(w World) vec.Vec3Float {
	if s.GrappleMover >= 0 && w != nil {
		if pos, ok := w.MoverPos(s.GrappleMover); ok {
			return pos
		}
	}
	return s.GrapplePoint
}

// arrive завершает полёт: с зажатым модификатором прилипаем к цели,
// иначе отцепляемся и отдаёмся гравитации.
func (s *State) arrive() {
	if !s.input.Modifier {
		s.detachGrapple()
		return
	}
	switch {
	case s.GrappleMover >= 0:
		s.Grapple = GrappleMover
	case s.GrappleBlockID != 0:
		s.Grapple = GrappleBlock
	default:
		s.detachGrapple()
	}
}
