package geom

import (
	"math"
	"testing"

	"github.com/annel0/codecity/internal/vec"
)

func approxV3(t *testing.T, got, want vec.Vec3Float, eps float64, msg string) {
	t.Helper()
	if got.Sub(want).Length() > eps {
		t.Errorf("%s: получено %v, ожидалось %v", msg, got, want)
	}
}

// TestMat4Identity проверяет единичную матрицу
func TestMat4Identity(t *testing.T) {
	p := vec.V3(3, -2, 7)
	approxV3(t, Mat4Identity().TransformPoint(p), p, 1e-12, "Единичная матрица изменила точку")
}

// TestMat4Mul проверяет ассоциативность с единичной матрицей
func TestMat4Mul(t *testing.T) {
	m := Mat4Perspective(1, 1.5, 0.1, 100)
	if m.Mul(Mat4Identity()) != m {
		t.Error("m * I != m")
	}
	if Mat4Identity().Mul(m) != m {
		t.Error("I * m != m")
	}
}

// TestMat4LookAt проверяет, что view-матрица переводит центр взгляда на -Z
func TestMat4LookAt(t *testing.T) {
	eye := vec.V3(10, 5, 10)
	center := vec.V3(0, 0, 0)
	view := Mat4LookAt(eye, center, vec.V3(0, 1, 0))

	// Глаз переходит в начало координат
	approxV3(t, view.TransformPoint(eye), vec.V3(0, 0, 0), 1e-9, "Глаз не в начале координат")

	// Центр взгляда лежит на отрицательной оси Z
	p := view.TransformPoint(center)
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("Центр взгляда смещён с оси: %v", p)
	}
	if p.Z >= 0 {
		t.Errorf("Центр взгляда не на -Z: %f", p.Z)
	}
}

// TestMat4Invert проверяет обратную матрицу
func TestMat4Invert(t *testing.T) {
	view := Mat4LookAt(vec.V3(3, 4, 5), vec.V3(0, 1, 0), vec.V3(0, 1, 0))
	inv := view.Invert()

	p := vec.V3(1, 2, 3)
	approxV3(t, inv.TransformPoint(view.TransformPoint(p)), p, 1e-9, "Обратная матрица не восстанавливает точку")

	// Вырожденная матрица не паникует
	var zero Mat4
	if zero.Invert() != Mat4Identity() {
		t.Error("Инверсия вырожденной матрицы должна давать единичную")
	}
}

// TestMat4Perspective проверяет знаки глубины перспективной проекции
func TestMat4Perspective(t *testing.T) {
	proj := Mat4Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000)

	near := proj.TransformPoint(vec.V3(0, 0, -0.1))
	far := proj.TransformPoint(vec.V3(0, 0, -1000))
	if math.Abs(near.Z+1) > 1e-6 {
		t.Errorf("Ближняя плоскость даёт Z=%f, ожидалось -1", near.Z)
	}
	if math.Abs(far.Z-1) > 1e-6 {
		t.Errorf("Дальняя плоскость даёт Z=%f, ожидалось 1", far.Z)
	}

	// Вырожденные параметры дают единичную матрицу, не панику
	if Mat4Perspective(0, 1, 0.1, 100) != Mat4Identity() {
		t.Error("Нулевой fov должен давать единичную матрицу")
	}
	if Mat4Perspective(1, 0, 0.1, 100) != Mat4Identity() {
		t.Error("Нулевой aspect должен давать единичную матрицу")
	}
}

// TestMat4Ortho проверяет ортографическую проекцию
func TestMat4Ortho(t *testing.T) {
	proj := Mat4Ortho(-10, 10, -5, 5, 0.1, 100)
	p := proj.TransformPoint(vec.V3(10, 5, -0.1))
	if math.Abs(p.X-1) > 1e-9 || math.Abs(p.Y-1) > 1e-9 {
		t.Errorf("Угол объёма не переходит в (1,1): %v", p)
	}
	if Mat4Ortho(1, 1, -5, 5, 0.1, 100) != Mat4Identity() {
		t.Error("Вырожденный объём должен давать единичную матрицу")
	}
}
