package vec

import "math"

// Vec3Float представляет трехмерный вектор с плавающими координатами.
// Соглашение осей: X — восток, Y — вверх, Z — юг.
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// V3 сокращённый конструктор
func V3(x, y, z float64) Vec3Float {
	return Vec3Float{X: x, Y: y, Z: z}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Dot возвращает скалярное произведение
func (v Vec3Float) Dot(other Vec3Float) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross возвращает векторное произведение
func (v Vec3Float) Cross(other Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized возвращает нормализованный вектор.
// Для нулевого вектора возвращает нулевой вектор (без NaN).
func (v Vec3Float) Normalized() Vec3Float {
	length := v.Length()
	if length == 0 {
		return Vec3Float{}
	}
	return Vec3Float{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return v.Sub(other).Length()
}

// Lerp линейно интерполирует к other с коэффициентом t (0..1)
func (v Vec3Float) Lerp(other Vec3Float, t float64) Vec3Float {
	return v.Add(other.Sub(v).Mul(t))
}

// Horizontal обнуляет вертикальную составляющую
func (v Vec3Float) Horizontal() Vec3Float {
	return Vec3Float{X: v.X, Y: 0, Z: v.Z}
}
