package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/codecity/internal/vec"
)

func aerialWorld() *fakeWorld {
	return &fakeWorld{
		movers: map[int]vec.Vec3Float{
			0: {X: 0, Y: 40, Z: 0},  // самолёт
			1: {X: 10, Y: 0, Z: 10}, // наземный транспорт
		},
		aerial: map[int]bool{0: true, 1: false},
	}
}

// TestBoardAircraftGuards проверяет условия посадки в кабину
func TestBoardAircraftGuards(t *testing.T) {
	w := aerialWorld()

	s := NewState(vec.V3(0, 0, 0))
	assert.False(t, s.BoardAircraft(0, w), "Посадка из орбиты запрещена")

	s = walker()
	assert.False(t, s.BoardAircraft(1, w), "Посадка в наземный объект запрещена")
	assert.False(t, s.BoardAircraft(99, w), "Посадка в несуществующий объект запрещена")
	assert.False(t, s.BoardAircraft(0, nil), "Посадка без мира запрещена")

	require.True(t, s.BoardAircraft(0, w))
	assert.True(t, s.Piloting)
	assert.Equal(t, vec.V3(0, 40, 0), s.Plane.Pos)
	assert.InDelta(t, StallSpeed, s.Plane.Vel.Length(), 1e-9, "Старт с минимальной скоростью")
	assert.Equal(t, 0, s.Plane.Mover)
}

// TestBoardDropsGrapple проверяет, что посадка сбрасывает грэппл
func TestBoardDropsGrapple(t *testing.T) {
	w := aerialWorld()
	s := walker()
	s.Grapple = GrappleBlock
	s.GrappleBlockID = 7

	require.True(t, s.BoardAircraft(0, w))
	assert.Equal(t, GrappleNone, s.Grapple)
	assert.Zero(t, s.GrappleBlockID)
}

// TestPilotKeepsFlying проверяет, что самолёт без ввода летит ровно
// и не сваливается ниже минимальной скорости.
func TestPilotKeepsFlying(t *testing.T) {
	w := aerialWorld()
	s := walker()
	require.True(t, s.BoardAircraft(0, w))

	for i := 0; i < 600; i++ {
		s.Tick(dt, w)
	}
	speed := s.Plane.Vel.Length()
	assert.GreaterOrEqual(t, speed, StallSpeed-1e-6, "Скорость упала ниже сваливания")
	assert.LessOrEqual(t, speed, MaxSpeed+1e-6, "Скорость выше максимума без форсажа")
	assert.GreaterOrEqual(t, s.Plane.Pos.Y, MinAltitude-1e-9, "Самолёт ушёл под минимальную высоту")
	assert.False(t, math.IsNaN(s.Plane.Pos.X), "Полётная модель дала NaN")
}

// TestPilotAltitudeFloor проверяет принудительный набор высоты у земли
func TestPilotAltitudeFloor(t *testing.T) {
	w := aerialWorld()
	s := walker()
	require.True(t, s.BoardAircraft(0, w))

	// Пикируем в землю
	s.SetPilotAxes(-1, 0)
	for i := 0; i < 600; i++ {
		s.Tick(dt, w)
	}
	assert.GreaterOrEqual(t, s.Plane.Pos.Y, MinAltitude-1e-9,
		"Пикирование должно упереться в минимальную высоту")
}

// TestPilotBankTurns проверяет разворот через крен
func TestPilotBankTurns(t *testing.T) {
	w := aerialWorld()
	s := walker()
	s.Yaw = 0
	require.True(t, s.BoardAircraft(0, w))

	s.SetPilotAxes(0, 1) // крен вправо
	for i := 0; i < 120; i++ {
		s.Tick(dt, w)
	}
	assert.Greater(t, s.Plane.Roll, 0.0)
	assert.LessOrEqual(t, s.Plane.Roll, MaxRoll+1e-9, "Крен должен зажиматься")
	assert.NotEqual(t, 0.0, s.Plane.Yaw, "Крен должен давать разворот")
}

// TestPilotBoostRaisesSpeedCap проверяет форсаж
func TestPilotBoostRaisesSpeedCap(t *testing.T) {
	w := aerialWorld()
	s := walker()
	require.True(t, s.BoardAircraft(0, w))

	for i := 0; i < 600; i++ {
		s.Tick(dt, w)
	}
	cruise := s.Plane.Vel.Length()

	s.SetAction(ActBoost, true)
	for i := 0; i < 600; i++ {
		s.Tick(dt, w)
	}
	boosted := s.Plane.Vel.Length()
	assert.Greater(t, boosted, cruise, "Форсаж не ускоряет")
	assert.LessOrEqual(t, boosted, MaxBoost+1e-6)
}

// TestPilotLookDecay проверяет затухание свободного обзора к носу
func TestPilotLookDecay(t *testing.T) {
	w := aerialWorld()
	s := walker()
	require.True(t, s.BoardAircraft(0, w))

	s.AddMouseDelta(300, 0)
	s.Tick(dt, w)
	require.NotZero(t, s.Plane.LookYaw, "Мышь в кабине должна крутить обзор")

	for i := 0; i < 300; i++ {
		s.Tick(dt, w)
	}
	assert.InDelta(t, 0, s.Plane.LookYaw, 1e-3, "Свободный обзор должен затухать к нулю")
}

// TestPilotMouseDoesNotSteer проверяет, что мышь не управляет самолётом
func TestPilotMouseDoesNotSteer(t *testing.T) {
	w := aerialWorld()
	s := walker()
	require.True(t, s.BoardAircraft(0, w))
	yaw := s.Plane.Yaw

	s.AddMouseDelta(500, 200)
	s.Tick(dt, w)
	assert.Equal(t, yaw, s.Plane.Yaw, "Мышь не должна менять курс самолёта")
}

// TestExitPilot проверяет высадку: камера забирает позицию и курс
func TestExitPilot(t *testing.T) {
	w := aerialWorld()
	s := walker()
	require.True(t, s.BoardAircraft(0, w))
	for i := 0; i < 60; i++ {
		s.Tick(dt, w)
	}

	planePos := s.Plane.Pos
	planeYaw := s.Plane.Yaw
	s.ExitPilot()

	assert.False(t, s.Piloting)
	assert.Equal(t, planePos, s.Pos)
	assert.Equal(t, planeYaw, s.Yaw)
	assert.Zero(t, s.Pitch)
	assert.Zero(t, s.VelY)
	assert.Equal(t, -1, s.Plane.Mover)

	// После высадки действует обычная гравитация
	s.Tick(dt, w)
	assert.Less(t, s.VelY, 0.0)
}

// TestExitPilotNoop проверяет, что высадка вне кабины ничего не трогает
func TestExitPilotNoop(t *testing.T) {
	s := walker()
	pos := s.Pos
	s.ExitPilot()
	assert.Equal(t, pos, s.Pos)
}
