package camera

import (
	"math"

	"github.com/annel0/codecity/internal/city"
	"github.com/annel0/codecity/internal/vec"
)

// tickWalk обрабатывает ходьбу, прыжки и свободный полёт от первого лица.
// Коллизии считаются по недеформированным боксам строений: стены
// скользкие (зажим по осям X и Z независимо), крыши — опора.
func (s *State) tickWalk(dt float64, w World) {
	// Горизонтальное желание движения
	fwd := s.forwardFlat()
	right := vec.V3(-fwd.Z, 0, fwd.X)

	var wish vec.Vec3Float
	if s.input.Forward {
		wish = wish.Add(fwd)
	}
	if s.input.Back {
		wish = wish.Sub(fwd)
	}
	if s.input.Right {
		wish = wish.Add(right)
	}
	if s.input.Left {
		wish = wish.Sub(right)
	}
	wish = wish.Normalized()

	speed := WalkSpeed
	if s.Flying {
		speed = FlySpeed
	}
	if s.input.Sprint {
		speed *= SprintMult
	}

	blocks := worldBlocks(w)
	feet := s.Pos.Y - EyeHeight

	if s.Flying {
		// В полёте гравитации нет, вертикаль управляется напрямую
		if s.input.JumpHeld {
			s.Pos.Y += speed * dt
		}
		if s.input.Descend {
			s.Pos.Y -= speed * dt
		}
		if s.Pos.Y < GroundY+EyeHeight {
			s.Pos.Y = GroundY + EyeHeight
		}
		s.VelY = 0
	} else {
		grounded := s.isGrounded(blocks, feet)
		if s.input.Jump && grounded {
			s.VelY = JumpSpeed
			grounded = false
		}
		if !grounded {
			s.VelY += Gravity * dt
		}

		prevFeet := feet
		feet += s.VelY * dt

		// Приземление: ступни пересекли опору сверху вниз
		if s.VelY <= 0 {
			if top, ok := supportTop(blocks, s.Pos.X, s.Pos.Z, prevFeet, feet); ok {
				feet = top
				s.VelY = 0
			}
		}
		s.Pos.Y = feet + EyeHeight
	}

	// Горизонталь: сначала X, потом Z. Независимый зажим по осям
	// даёт скольжение вдоль стены без отдельного солвера.
	step := wish.Mul(speed * dt)
	s.Pos.X = resolveAxisX(blocks, s.Pos, step.X)
	s.Pos.Z = resolveAxisZ(blocks, s.Pos, step.Z)
}

// isGrounded проверяет опору под ступнями: земля или крыша строения
func (s *State) isGrounded(blocks []city.Block, feet float64) bool {
	const snap = 0.05
	if feet <= GroundY+snap && s.VelY <= 0 {
		return true
	}
	for i := range blocks {
		b := &blocks[i]
		if !insideFootprint(b, s.Pos.X, s.Pos.Z) {
			continue
		}
		if math.Abs(feet-b.TopY()) <= snap && s.VelY <= 0 {
			return true
		}
	}
	return false
}

// supportTop ищет крышу или землю, которую ступни пересекли при падении
func supportTop(blocks []city.Block, x, z, prevFeet, feet float64) (float64, bool) {
	best := math.Inf(-1)
	found := false
	if prevFeet >= GroundY && feet < GroundY {
		best, found = GroundY, true
	}
	for i := range blocks {
		b := &blocks[i]
		if !insideFootprint(b, x, z) {
			continue
		}
		top := b.TopY()
		if prevFeet >= top && feet < top && top > best {
			best, found = top, true
		}
	}
	return best, found
}

func insideFootprint(b *city.Block, x, z float64) bool {
	min, max := b.Bounds()
	return x >= min.X-PlayerRadius && x <= max.X+PlayerRadius &&
		z >= min.Z-PlayerRadius && z <= max.Z+PlayerRadius
}

// resolveAxisX двигает камеру по X, зажимая у граней строений.
// Вертикальное перекрытие проверяется по всему росту игрока.
func resolveAxisX(blocks []city.Block, pos vec.Vec3Float, dx float64) float64 {
	x := pos.X + dx
	if dx == 0 {
		return x
	}
	feet := pos.Y - EyeHeight
	head := pos.Y
	for i := range blocks {
		b := &blocks[i]
		min, max := b.Bounds()
		if head <= min.Y || feet >= max.Y-0.01 {
			continue
		}
		if pos.Z <= min.Z-PlayerRadius || pos.Z >= max.Z+PlayerRadius {
			continue
		}
		if dx > 0 && pos.X <= min.X-PlayerRadius && x > min.X-PlayerRadius {
			x = min.X - PlayerRadius
		} else if dx < 0 && pos.X >= max.X+PlayerRadius && x < max.X+PlayerRadius {
			x = max.X + PlayerRadius
		}
	}
	return x
}

// resolveAxisZ — зеркальный зажим по оси Z, после шага по X
func resolveAxisZ(blocks []city.Block, pos vec.Vec3Float, dz float64) float64 {
	z := pos.Z + dz
	if dz == 0 {
		return z
	}
	feet := pos.Y - EyeHeight
	head := pos.Y
	for i := range blocks {
		b := &blocks[i]
		min, max := b.Bounds()
		if head <= min.Y || feet >= max.Y-0.01 {
			continue
		}
		if pos.X <= min.X-PlayerRadius || pos.X >= max.X+PlayerRadius {
			continue
		}
		if dz > 0 && pos.Z <= min.Z-PlayerRadius && z > min.Z-PlayerRadius {
			z = min.Z - PlayerRadius
		} else if dz < 0 && pos.Z >= max.Z+PlayerRadius && z < max.Z+PlayerRadius {
			z = max.Z + PlayerRadius
		}
	}
	return z
}

// worldBlocks безопасно достаёт строения даже при nil-мире (тесты)
func worldBlocks(w World) []city.Block {
	if w == nil {
		return nil
	}
	return w.Blocks()
}
