package vec

import "math"

// Vec2Float представляет 2D координаты с плавающей точкой (мировые координаты)
type Vec2Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero нулевой вектор
var Zero = Vec2Float{}

// UnitX единичный вектор вдоль оси X
var UnitX = Vec2Float{X: 1}

// FromVec2 создает Vec2Float из Vec2
func FromVec2(v Vec2) Vec2Float {
	return Vec2Float{X: float64(v.X), Y: float64(v.Y)}
}

// FloorDiv возвращает целочисленные координаты клетки размером size, покрывающей точку.
// В отличие от int(v.X/size) округляет вниз и для отрицательных координат.
func (v Vec2Float) FloorDiv(size float64) Vec2 {
	return Vec2{
		X: int(math.Floor(v.X / size)),
		Y: int(math.Floor(v.Y / size)),
	}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2Float) Sub(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot скалярное произведение
func (v Vec2Float) Dot(other Vec2Float) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Normalized возвращает нормализованный вектор (нулевой для нулевого)
func (v Vec2Float) Normalized() Vec2Float {
	length := v.Length()
	if length == 0 {
		return Vec2Float{X: 0, Y: 0}
	}
	return Vec2Float{X: v.X / length, Y: v.Y / length}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSquared возвращает квадрат длины вектора
func (v Vec2Float) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2Float) DistanceTo(other Vec2Float) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Angle возвращает угол вектора относительно оси X в радианах
func (v Vec2Float) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Rotate поворачивает вектор на угол в радианах
func (v Vec2Float) Rotate(angle float64) Vec2Float {
	sin, cos := math.Sincos(angle)
	return Vec2Float{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// Lerp линейная интерполяция между v и other
func (v Vec2Float) Lerp(other Vec2Float, t float64) Vec2Float {
	return v.Add(other.Sub(v).Mul(t))
}
