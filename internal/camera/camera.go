// Package camera владеет состоянием камеры и физикой передвижения.
// Два взаимоисключающих режима: орбитальный (изометрия) и от первого
// лица; внутри первого лица — ходьба/полёт, грэппл и пилотирование.
// Состояние мутирует только Tick и обработчики ввода, всегда в одной
// симуляционной горутине.
package camera

import (
	"math"

	"github.com/annel0/codecity/internal/city"
	"github.com/annel0/codecity/internal/vec"
)

// Mode определяет режим камеры
type Mode uint8

const (
	ModeOrbit Mode = iota
	ModeFirstPerson
)

// GrappleMode определяет подсостояние грэппла
type GrappleMode uint8

const (
	GrappleNone   GrappleMode = iota
	GrappleFlying             // летим к точке попадания
	GrappleBlock              // прилипли к строению
	GrappleMover              // прилипли к подвижному объекту
)

// Константы движения. Подобраны под сетку города (1 клетка = 1 метр).
const (
	EyeHeight    = 1.7
	PlayerRadius = 0.35
	GroundY      = 0.0

	Gravity    = -18.0
	JumpSpeed  = 6.5
	WalkSpeed  = 6.0
	SprintMult = 1.8
	FlySpeed   = 12.0

	MouseSens  = 0.003
	PitchLimit = math.Pi / 3

	OrbitPitch   = 35.264 * math.Pi / 180 // фиксированный изометрический наклон
	OrbitMinDist = 5.0
	OrbitMaxDist = 400.0

	GrappleSpeed  = 40.0
	GrappleArrive = 1.5
	// Смещение прилипания: под воздушной целью, над наземной
	GrappleOffsetAerial = -2.0
	GrappleOffsetGround = 2.5

	FovY    = 60.0 * math.Pi / 180
	NearZ   = 0.1
	FarZ    = 1000.0
	MaxTick = 0.1 // защита от скачка dt после паузы процесса
)

// World даёт физике доступ к текущему снимку города.
// Снимок может смениться между тиками: все ссылки на блоки и
// подвижные объекты перепроверяются каждый тик.
type World interface {
	// Blocks возвращает текущий список строений
	Blocks() []city.Block
	// BlockByID ищет строение по стабильному идентификатору
	BlockByID(id uint64) (*city.Block, bool)
	// MoverPos возвращает позицию подвижного объекта
	MoverPos(index int) (vec.Vec3Float, bool)
	// MoverAerial сообщает, воздушный ли объект (для смещения грэппла)
	MoverAerial(index int) bool
}

// State — полное состояние камеры.
// Позиция от первого лица — позиция глаз; ступни на EyeHeight ниже.
type State struct {
	Mode Mode

	// Орбитальный режим
	OrbitTarget vec.Vec3Float
	OrbitDist   float64
	OrbitYaw    float64

	// От первого лица
	Pos    vec.Vec3Float
	Yaw    float64
	Pitch  float64
	VelY   float64
	Flying bool

	// Грэппл
	Grapple        GrappleMode
	GrapplePoint   vec.Vec3Float
	GrappleBlockID uint64
	GrappleMover   int

	// Пилотирование
	Piloting bool
	Plane    PlaneState

	input Input
}

// PlaneState — состояние пилотируемого самолёта
type PlaneState struct {
	Pos   vec.Vec3Float
	Vel   vec.Vec3Float
	Pitch float64
	Roll  float64
	Yaw   float64
	Boost bool
	Mover int // индекс объекта-носителя в снимке

	// Свободный обзор, независимый от ориентации самолёта;
	// затухает к нулю каждый тик
	LookYaw   float64
	LookPitch float64
}

// NewState создаёт камеру в орбитальном режиме над центром города
func NewState(target vec.Vec3Float) *State {
	return &State{
		Mode:         ModeOrbit,
		OrbitTarget:  target,
		OrbitDist:    60,
		OrbitYaw:     math.Pi / 4,
		GrappleMover: -1,
		Plane:        PlaneState{Mover: -1},
	}
}

// ToggleFirstPerson переключает режимы, конвертируя позицию глаза
// орбитальной камеры в стоячую позицию и обратно.
func (s *State) ToggleFirstPerson() {
	if s.Mode == ModeOrbit {
		eye := s.orbitEye()
		s.Mode = ModeFirstPerson
		s.Pos = vec.V3(eye.X, GroundY+EyeHeight, eye.Z)
		s.Yaw = s.OrbitYaw
		s.Pitch = 0
		s.VelY = 0
		s.Flying = false
		return
	}
	s.detachAll()
	s.Mode = ModeOrbit
	s.OrbitTarget = s.Pos.Horizontal()
	s.OrbitYaw = s.Yaw
	if s.OrbitDist < OrbitMinDist {
		s.OrbitDist = OrbitMinDist
	}
}

// detachAll сбрасывает грэппл и пилотирование
func (s *State) detachAll() {
	s.Grapple = GrappleNone
	s.GrappleBlockID = 0
	s.GrappleMover = -1
	s.Piloting = false
	s.Plane.Mover = -1
}

// Tick продвигает физику камеры на dt секунд.
// Тотальная функция: вырожденный ввод даёт «нет движения», не NaN.
func (s *State) Tick(dt float64, w World) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		s.consumeOneShots()
		return
	}
	if dt > MaxTick {
		dt = MaxTick
	}

	switch s.Mode {
	case ModeOrbit:
		s.tickOrbit(dt)
	case ModeFirstPerson:
		s.applyLook()
		switch {
		case s.Piloting:
			s.tickPilot(dt)
		case s.Grapple != GrappleNone:
			s.tickGrapple(dt, w)
		default:
			s.tickWalk(dt, w)
		}
	}

	s.consumeOneShots()
}

// applyLook применяет накопленную дельту мыши к углам взгляда
func (s *State) applyLook() {
	if s.Piloting {
		// В кабине мышь крутит свободный обзор, не самолёт
		s.Plane.LookYaw += s.input.MouseDX * MouseSens
		s.Plane.LookPitch += s.input.MouseDY * MouseSens
		s.Plane.LookYaw = clamp(s.Plane.LookYaw, -math.Pi/2, math.Pi/2)
		s.Plane.LookPitch = clamp(s.Plane.LookPitch, -PitchLimit, PitchLimit)
		return
	}
	s.Yaw += s.input.MouseDX * MouseSens
	s.Pitch -= s.input.MouseDY * MouseSens
	s.Pitch = clamp(s.Pitch, -PitchLimit, PitchLimit)
}

// forward возвращает единичный вектор взгляда от первого лица
func (s *State) forward() vec.Vec3Float {
	cp := math.Cos(s.Pitch)
	return vec.V3(
		cp*math.Sin(s.Yaw),
		math.Sin(s.Pitch),
		-cp*math.Cos(s.Yaw),
	)
}

// forwardFlat возвращает горизонтальный вектор движения по рысканию
func (s *State) forwardFlat() vec.Vec3Float {
	return vec.V3(math.Sin(s.Yaw), 0, -math.Cos(s.Yaw))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
