package physics

import (
	"math"

	"github.com/annel0/frozen-forest/internal/vec"
)

// ShapeKind тип формы коллайдера
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCircle
	ShapeCapsule
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeCircle:
		return "circle"
	case ShapeCapsule:
		return "capsule"
	default:
		return "unknown"
	}
}

// Shape форма коллайдера. Позиция тела всегда центр формы.
//
// Box выровнен по осям и содержит точки полуоткрыто: [min, max).
// Capsule: отрезок длиной 2*HalfHeight вдоль локальной оси Y, повёрнутый на Rotation.
type Shape struct {
	Kind       ShapeKind
	HalfExtent vec.Vec2Float // Box
	Radius     float64       // Circle, Capsule
	HalfHeight float64       // Capsule
	Rotation   float64       // Capsule, радианы
}

// Box создаёт прямоугольник по полному размеру
func Box(width, height float64) Shape {
	return Shape{Kind: ShapeBox, HalfExtent: vec.Vec2Float{X: width / 2, Y: height / 2}}
}

// BoxAt возвращает центр и форму прямоугольника, заданного нижним левым углом
func BoxAt(min vec.Vec2Float, width, height float64) (vec.Vec2Float, Shape) {
	center := vec.Vec2Float{X: min.X + width/2, Y: min.Y + height/2}
	return center, Box(width, height)
}

// Circle создаёт круг
func Circle(radius float64) Shape {
	return Shape{Kind: ShapeCircle, Radius: radius}
}

// Capsule создаёт капсулу с длиной отрезка height и радиусом radius
func Capsule(height, radius, rotation float64) Shape {
	return Shape{Kind: ShapeCapsule, HalfHeight: height / 2, Radius: radius, Rotation: rotation}
}

// AABB возвращает ограничивающий прямоугольник формы в позиции pos
func (s Shape) AABB(pos vec.Vec2Float) (min, max vec.Vec2Float) {
	switch s.Kind {
	case ShapeBox:
		return pos.Sub(s.HalfExtent), pos.Add(s.HalfExtent)
	case ShapeCircle:
		r := vec.Vec2Float{X: s.Radius, Y: s.Radius}
		return pos.Sub(r), pos.Add(r)
	case ShapeCapsule:
		a, b := s.segment(pos)
		r := s.Radius
		return vec.Vec2Float{X: math.Min(a.X, b.X) - r, Y: math.Min(a.Y, b.Y) - r},
			vec.Vec2Float{X: math.Max(a.X, b.X) + r, Y: math.Max(a.Y, b.Y) + r}
	}
	return pos, pos
}

// Contains проверяет, находится ли точка внутри формы
func (s Shape) Contains(pos, point vec.Vec2Float) bool {
	switch s.Kind {
	case ShapeBox:
		min, max := s.AABB(pos)
		return point.X >= min.X && point.X < max.X &&
			point.Y >= min.Y && point.Y < max.Y
	case ShapeCircle:
		return point.DistanceTo(pos) <= s.Radius
	case ShapeCapsule:
		a, b := s.segment(pos)
		return pointSegmentDistance(point, a, b) <= s.Radius
	}
	return false
}

// segment концы оси капсулы в мировых координатах
func (s Shape) segment(pos vec.Vec2Float) (vec.Vec2Float, vec.Vec2Float) {
	axis := vec.Vec2Float{Y: s.HalfHeight}.Rotate(s.Rotation)
	return pos.Sub(axis), pos.Add(axis)
}
