package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/codecity/internal/vec"
)

// TestBeginGrappleModeGuards проверяет, что грэппл доступен только
// от первого лица вне кабины.
func TestBeginGrappleModeGuards(t *testing.T) {
	s := NewState(vec.V3(0, 0, 0))
	s.BeginGrapple(vec.V3(10, 10, 10), 1, -1)
	assert.Equal(t, GrappleNone, s.Grapple, "Грэппл из орбиты должен игнорироваться")

	s = walker()
	s.Piloting = true
	s.BeginGrapple(vec.V3(10, 10, 10), 1, -1)
	assert.Equal(t, GrappleNone, s.Grapple, "Грэппл из кабины должен игнорироваться")

	s.Piloting = false
	s.BeginGrapple(vec.V3(10, 10, 10), 1, -1)
	assert.Equal(t, GrappleFlying, s.Grapple)
	assert.Zero(t, s.VelY)
}

// TestGrappleFliesToPoint проверяет полёт к точке с постоянной скоростью
func TestGrappleFliesToPoint(t *testing.T) {
	w := worldWithCube(1, 0, 0, 4, 10)
	s := walker()
	target := vec.V3(0, 10, 0) // крыша строения

	s.BeginGrapple(target, 1, -1)
	start := s.Pos
	s.Tick(dt, w)

	moved := s.Pos.Sub(start).Length()
	assert.InDelta(t, GrappleSpeed*dt, moved, 1e-9, "Скорость полёта не совпадает")

	// Направление строго на цель
	toTarget := target.Sub(start).Normalized()
	dir := s.Pos.Sub(start).Normalized()
	assert.InDelta(t, 0, dir.Sub(toTarget).Length(), 1e-9)
}

// TestGrappleArriveWithoutModifier проверяет отцепление в точке прибытия
func TestGrappleArriveWithoutModifier(t *testing.T) {
	w := worldWithCube(1, 0, 0, 4, 10)
	s := walker()
	s.BeginGrapple(vec.V3(0, 10, 0), 1, -1)

	for i := 0; i < 120 && s.Grapple != GrappleNone; i++ {
		s.Tick(dt, w)
	}
	assert.Equal(t, GrappleNone, s.Grapple, "Без модификатора грэппл должен отцепиться")
	assert.LessOrEqual(t, s.Pos.Sub(vec.V3(0, 10, 0)).Length(), GrappleArrive+1e-6,
		"Камера должна оказаться у цели")
}

// TestGrappleAttachWithModifier проверяет прилипание к строению
func TestGrappleAttachWithModifier(t *testing.T) {
	w := worldWithCube(1, 0, 0, 4, 10)
	s := walker()
	s.SetAction(ActModifier, true)
	point := vec.V3(0, 10, 0)
	s.BeginGrapple(point, 1, -1)

	for i := 0; i < 120; i++ {
		s.Tick(dt, w)
	}
	require.Equal(t, GrappleBlock, s.Grapple, "С модификатором грэппл должен прилипнуть")
	assert.InDelta(t, point.Y+GrappleOffsetGround, s.Pos.Y, 1e-9,
		"Зависание должно быть над точкой прилипания")

	// Отпускание модификатора отцепляет в том же тике
	s.SetAction(ActModifier, false)
	assert.Equal(t, GrappleNone, s.Grapple)
}

// TestGrappleDetachOnVanishedBlock проверяет отцепление после рескана,
// убравшего строение-цель.
func TestGrappleDetachOnVanishedBlock(t *testing.T) {
	w := worldWithCube(1, 0, 0, 4, 10)
	s := walker()
	s.SetAction(ActModifier, true)
	s.BeginGrapple(vec.V3(0, 10, 0), 1, -1)
	for i := 0; i < 120; i++ {
		s.Tick(dt, w)
	}
	require.Equal(t, GrappleBlock, s.Grapple)

	// Город пересобран без этого строения
	w.blocks = nil
	s.Tick(dt, w)
	assert.Equal(t, GrappleNone, s.Grapple, "Исчезновение цели должно отцеплять грэппл")
}

// TestGrappleFollowsMover проверяет прилипание к подвижному объекту
func TestGrappleFollowsMover(t *testing.T) {
	w := &fakeWorld{
		movers: map[int]vec.Vec3Float{0: {X: 5, Y: 20, Z: 0}},
		aerial: map[int]bool{0: true},
	}
	s := walker()
	s.SetAction(ActModifier, true)
	s.BeginGrapple(vec.V3(5, 20, 0), 0, 0)

	for i := 0; i < 120; i++ {
		s.Tick(dt, w)
	}
	require.Equal(t, GrappleMover, s.Grapple)

	// Объект сдвинулся: камера следует с воздушным смещением
	w.movers[0] = vec.V3(8, 22, 3)
	s.Tick(dt, w)
	assert.Equal(t, vec.V3(8, 22+GrappleOffsetAerial, 3), s.Pos,
		"Камера должна висеть под воздушной целью")

	// Объект исчез: отцепление
	delete(w.movers, 0)
	s.Tick(dt, w)
	assert.Equal(t, GrappleNone, s.Grapple)
}

// TestGrappleTargetTracksMoverInFlight проверяет, что точка полёта
// следует за движущейся целью ещё до прилипания.
func TestGrappleTargetTracksMoverInFlight(t *testing.T) {
	w := &fakeWorld{
		movers: map[int]vec.Vec3Float{0: {X: 100, Y: 20, Z: 0}},
		aerial: map[int]bool{0: true},
	}
	s := walker()
	s.BeginGrapple(vec.V3(100, 20, 0), 0, 0)
	s.Tick(dt, w)

	// Цель ушла в сторону: следующий шаг направлен к новой позиции
	w.movers[0] = vec.V3(0, 20, 100)
	before := s.Pos
	s.Tick(dt, w)
	step := s.Pos.Sub(before).Normalized()
	want := vec.V3(0, 20, 100).Sub(before).Normalized()
	assert.InDelta(t, 0, step.Sub(want).Length(), 1e-9, "Полёт не следует за целью")
}
