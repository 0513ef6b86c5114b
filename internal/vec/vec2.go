package vec

import "math"

// Vec2 представляет 2D целочисленные координаты (координаты тайлов сетки)
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Mul умножает вектор на целый скаляр
func (v Vec2) Mul(scalar int) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Neighbors возвращает 8 соседей клетки (окрестность Мура) в фиксированном порядке
func (v Vec2) Neighbors() [8]Vec2 {
	var out [8]Vec2
	i := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			out[i] = Vec2{X: v.X + dx, Y: v.Y + dy}
			i++
		}
	}
	return out
}

// Length возвращает евклидову длину вектора
func (v Vec2) Length() float64 {
	return math.Hypot(float64(v.X), float64(v.Y))
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
