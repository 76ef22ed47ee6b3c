package camera

import (
	"math"

	"github.com/annel0/codecity/internal/vec"
)

// Константы полётной модели. Скорости в метрах в секунду,
// углы в радианах, темпы в радианах в секунду.
const (
	PitchRate = 1.2
	RollRate  = 1.8
	MaxPitch  = 1.0
	MaxRoll   = 1.2

	// Крен переводится в рыскание: yaw' = -sin(roll) * BankYawRate
	BankYawRate = 0.9

	Thrust      = 28.0
	ThrustBoost = 55.0
	LiftCoef    = 0.08
	DragCoef    = 0.015
	StallSpeed  = 8.0
	MaxSpeed    = 45.0
	MaxBoost    = 70.0

	// Ниже MinAltitude тангаж принудительно тянется вверх
	MinAltitude   = 2.0
	RecoveryPitch = 0.35

	// Свободный обзор в кабине затухает к нулю
	LookDecay = 5.0
)

// BoardAircraft садит камеру в подвижный воздушный объект.
// Самолёт стартует с позиции объекта с минимальной скоростью сваливания.
func (s *State) BoardAircraft(moverIndex int, w World) bool {
	if s.Mode != ModeFirstPerson || w == nil {
		return false
	}
	pos, ok := w.MoverPos(moverIndex)
	if !ok || !w.MoverAerial(moverIndex) {
		return false
	}
	s.detachAll()
	s.Piloting = true
	s.Plane = PlaneState{
		Pos:   pos,
		Vel:   vec.V3(math.Sin(s.Yaw), 0, -math.Cos(s.Yaw)).Mul(StallSpeed),
		Yaw:   s.Yaw,
		Mover: moverIndex,
	}
	return true
}

// ExitPilot высаживает пилота: камера остаётся в точке самолёта
// и дальше падает или летит обычной физикой первого лица.
func (s *State) ExitPilot() {
	if !s.Piloting {
		return
	}
	s.Pos = s.Plane.Pos
	s.Yaw = s.Plane.Yaw
	s.Pitch = 0
	s.VelY = 0
	s.Piloting = false
	s.Plane.Mover = -1
}

// tickPilot интегрирует полётную модель: тяга вдоль носа, подъёмная
// сила от скорости и крена, квадратичное сопротивление, крен даёт
// разворот. Модель аркадная, но без вырожденных состояний.
func (s *State) tickPilot(dt float64) {
	p := &s.Plane

	// Управление ориентацией
	p.Pitch += s.input.PitchAxis * PitchRate * dt
	p.Roll += s.input.RollAxis * RollRate * dt
	p.Pitch = clamp(p.Pitch, -MaxPitch, MaxPitch)
	p.Roll = clamp(p.Roll, -MaxRoll, MaxRoll)

	// Принудительный набор высоты у земли
	if p.Pos.Y < MinAltitude && p.Pitch < RecoveryPitch {
		p.Pitch = RecoveryPitch
	}

	// Крен в разворот
	p.Yaw += -math.Sin(p.Roll) * BankYawRate * dt

	// Нос самолёта
	cp := math.Cos(p.Pitch)
	nose := vec.V3(cp*math.Sin(p.Yaw), math.Sin(p.Pitch), -cp*math.Cos(p.Yaw))

	thrust := Thrust
	maxSpeed := MaxSpeed
	if p.Boost {
		thrust = ThrustBoost
		maxSpeed = MaxBoost
	}

	speed := p.Vel.Length()
	lift := LiftCoef * speed * math.Cos(p.Roll)

	acc := nose.Mul(thrust)
	acc.Y += Gravity + lift
	acc = acc.Sub(p.Vel.Mul(DragCoef * speed))

	p.Vel = p.Vel.Add(acc.Mul(dt))

	// Скорость зажата сверху и не даёт свалиться ниже минимума
	speed = p.Vel.Length()
	if speed > maxSpeed {
		p.Vel = p.Vel.Mul(maxSpeed / speed)
	} else if speed < StallSpeed && speed > 0 {
		p.Vel = p.Vel.Mul(StallSpeed / speed)
	} else if speed == 0 {
		p.Vel = nose.Mul(StallSpeed)
	}

	p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	if p.Pos.Y < MinAltitude {
		p.Pos.Y = MinAltitude
		if p.Vel.Y < 0 {
			p.Vel.Y = 0
		}
	}

	// Свободный обзор возвращается к носу
	decay := math.Exp(-LookDecay * dt)
	p.LookYaw *= decay
	p.LookPitch *= decay

	// Камера следует за самолётом
	s.Pos = p.Pos
	s.Yaw = p.Yaw
	s.Pitch = p.Pitch
}
