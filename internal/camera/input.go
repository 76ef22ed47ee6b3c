package camera

// Action — семантическое действие ввода. Раскладку клавиш в действия
// выполняет слой UI/API; камера потребляет только действия.
type Action string

const (
	ActForward  Action = "forward"
	ActBack     Action = "back"
	ActLeft     Action = "left"
	ActRight    Action = "right"
	ActJump     Action = "jump"
	ActDescend  Action = "descend"
	ActSprint   Action = "sprint"
	ActModifier Action = "modifier" // удержание = прилипание грэппла
	ActBoost    Action = "boost"
	ActFlyMode  Action = "fly" // переключение ходьба/полёт
)

// Input хранит непрерывное состояние ввода между тиками.
// Одноразовые поля (прыжок, дельты мыши) сбрасываются в конце тика;
// скорость при этом продолжает интегрироваться — падение не требует
// зажатых клавиш.
type Input struct {
	Forward, Back, Left, Right bool
	Jump                       bool // фронт нажатия, одноразовый
	JumpHeld                   bool // удержание (подъём в полёте)
	Descend                    bool
	Sprint                     bool
	Modifier                   bool
	Boost                      bool

	PitchAxis float64 // ось тангажа при пилотировании, -1..1
	RollAxis  float64 // ось крена при пилотировании, -1..1

	MouseDX, MouseDY float64 // накопленная дельта мыши за тик
	Scroll           float64 // накопленный скролл за тик
	PanDX, PanDY     float64 // накопленная дельта панорамирования
}

// SetAction применяет дискретное событие клавиши
func (s *State) SetAction(a Action, down bool) {
	switch a {
	case ActForward:
		s.input.Forward = down
	case ActBack:
		s.input.Back = down
	case ActLeft:
		s.input.Left = down
	case ActRight:
		s.input.Right = down
	case ActJump:
		s.input.JumpHeld = down
		if down {
			s.input.Jump = true
		}
	case ActDescend:
		s.input.Descend = down
	case ActSprint:
		s.input.Sprint = down
	case ActModifier:
		s.input.Modifier = down
		// Отпускание модификатора отцепляет прилипший грэппл в этом же тике
		if !down && (s.Grapple == GrappleBlock || s.Grapple == GrappleMover) {
			s.detachGrapple()
		}
	case ActBoost:
		s.input.Boost = down
		s.Plane.Boost = down
	case ActFlyMode:
		if down && s.Mode == ModeFirstPerson && !s.Piloting {
			s.Flying = !s.Flying
			s.VelY = 0
		}
	}
}

// AddMouseDelta накапливает движение захваченной мыши
func (s *State) AddMouseDelta(dx, dy float64) {
	s.input.MouseDX += dx
	s.input.MouseDY += dy
}

// AddScroll накапливает прокрутку (зум орбиты)
func (s *State) AddScroll(delta float64) {
	s.input.Scroll += delta
}

// AddPan накапливает панорамирование орбитальной камеры
func (s *State) AddPan(dx, dy float64) {
	s.input.PanDX += dx
	s.input.PanDY += dy
}

// SetPilotAxes задаёт оси тангажа/крена (-1..1, зажимаются)
func (s *State) SetPilotAxes(pitch, roll float64) {
	s.input.PitchAxis = clamp(pitch, -1, 1)
	s.input.RollAxis = clamp(roll, -1, 1)
}

// consumeOneShots сбрасывает одноразовые поля ввода в конце тика
func (s *State) consumeOneShots() {
	s.input.Jump = false
	s.input.MouseDX = 0
	s.input.MouseDY = 0
	s.input.Scroll = 0
	s.input.PanDX = 0
	s.input.PanDY = 0
}
