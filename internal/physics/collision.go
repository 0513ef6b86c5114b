package physics

import (
	"math"

	"github.com/annel0/frozen-forest/internal/vec"
)

// Overlaps проверяет пересечение двух форм в позициях posA и posB
func Overlaps(a Shape, posA vec.Vec2Float, b Shape, posB vec.Vec2Float) bool {
	// Упорядочиваем пару, чтобы разбирать меньше комбинаций
	if a.Kind > b.Kind {
		a, b = b, a
		posA, posB = posB, posA
	}

	switch {
	case a.Kind == ShapeBox && b.Kind == ShapeBox:
		return CheckBoxCollision(posA, a, posB, b)
	case a.Kind == ShapeBox && b.Kind == ShapeCircle:
		closest := closestPointOnBox(posB, posA, a.HalfExtent)
		return closest.DistanceTo(posB) < b.Radius
	case a.Kind == ShapeBox && b.Kind == ShapeCapsule:
		s0, s1 := b.segment(posB)
		return segmentBoxDistance(s0, s1, posA, a.HalfExtent) < b.Radius
	case a.Kind == ShapeCircle && b.Kind == ShapeCircle:
		return posA.DistanceTo(posB) < a.Radius+b.Radius
	case a.Kind == ShapeCircle && b.Kind == ShapeCapsule:
		s0, s1 := b.segment(posB)
		return pointSegmentDistance(posA, s0, s1) < a.Radius+b.Radius
	case a.Kind == ShapeCapsule && b.Kind == ShapeCapsule:
		a0, a1 := a.segment(posA)
		b0, b1 := b.segment(posB)
		return segmentSegmentDistance(a0, a1, b0, b1) < a.Radius+b.Radius
	}
	return false
}

// CheckBoxCollision проверяет пересечение двух прямоугольников
func CheckBoxCollision(pos1 vec.Vec2Float, box1 Shape, pos2 vec.Vec2Float, box2 Shape) bool {
	return pos1.X+box1.HalfExtent.X > pos2.X-box2.HalfExtent.X &&
		pos1.X-box1.HalfExtent.X < pos2.X+box2.HalfExtent.X &&
		pos1.Y+box1.HalfExtent.Y > pos2.Y-box2.HalfExtent.Y &&
		pos1.Y-box1.HalfExtent.Y < pos2.Y+box2.HalfExtent.Y
}

// Penetration возвращает вектор, на который нужно сдвинуть a, чтобы вытолкнуть его из b.
// Капсулы не разрешаются (используются только сенсорами), для них ok == false.
func Penetration(a Shape, posA vec.Vec2Float, b Shape, posB vec.Vec2Float) (vec.Vec2Float, bool) {
	switch {
	case a.Kind == ShapeCircle && b.Kind == ShapeCircle:
		delta := posA.Sub(posB)
		dist := delta.Length()
		depth := a.Radius + b.Radius - dist
		if depth <= 0 {
			return vec.Zero, false
		}
		if dist == 0 {
			return vec.Vec2Float{X: depth}, true
		}
		return delta.Mul(depth / dist), true

	case a.Kind == ShapeCircle && b.Kind == ShapeBox:
		return circleBoxPenetration(posA, a.Radius, posB, b.HalfExtent)

	case a.Kind == ShapeBox && b.Kind == ShapeCircle:
		push, ok := circleBoxPenetration(posB, b.Radius, posA, a.HalfExtent)
		return push.Mul(-1), ok

	case a.Kind == ShapeBox && b.Kind == ShapeBox:
		dx := posA.X - posB.X
		dy := posA.Y - posB.Y
		overlapX := a.HalfExtent.X + b.HalfExtent.X - math.Abs(dx)
		overlapY := a.HalfExtent.Y + b.HalfExtent.Y - math.Abs(dy)
		if overlapX <= 0 || overlapY <= 0 {
			return vec.Zero, false
		}
		// Выталкиваем по оси наименьшего проникновения
		if overlapX < overlapY {
			return vec.Vec2Float{X: math.Copysign(overlapX, dx)}, true
		}
		return vec.Vec2Float{Y: math.Copysign(overlapY, dy)}, true
	}
	return vec.Zero, false
}

func circleBoxPenetration(center vec.Vec2Float, radius float64, boxPos, half vec.Vec2Float) (vec.Vec2Float, bool) {
	closest := closestPointOnBox(center, boxPos, half)
	delta := center.Sub(closest)
	dist := delta.Length()

	if dist > 0 {
		if dist >= radius {
			return vec.Zero, false
		}
		return delta.Mul((radius - dist) / dist), true
	}

	// Центр круга внутри прямоугольника: выталкиваем к ближайшей грани
	local := center.Sub(boxPos)
	toX := half.X - math.Abs(local.X)
	toY := half.Y - math.Abs(local.Y)
	if toX < toY {
		return vec.Vec2Float{X: math.Copysign(toX+radius, local.X)}, true
	}
	return vec.Vec2Float{Y: math.Copysign(toY+radius, local.Y)}, true
}

func closestPointOnBox(p, boxPos, half vec.Vec2Float) vec.Vec2Float {
	return vec.Vec2Float{
		X: clamp(p.X, boxPos.X-half.X, boxPos.X+half.X),
		Y: clamp(p.Y, boxPos.Y-half.Y, boxPos.Y+half.Y),
	}
}

func pointSegmentDistance(p, a, b vec.Vec2Float) float64 {
	ab := b.Sub(a)
	lenSq := ab.LengthSquared()
	if lenSq == 0 {
		return p.DistanceTo(a)
	}
	t := clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return p.DistanceTo(a.Add(ab.Mul(t)))
}

// segmentSegmentDistance: в 2D для непересекающихся отрезков минимум достигается на конце одного из них
func segmentSegmentDistance(a0, a1, b0, b1 vec.Vec2Float) float64 {
	if segmentsIntersect(a0, a1, b0, b1) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(a0, b0, b1), pointSegmentDistance(a1, b0, b1)),
		math.Min(pointSegmentDistance(b0, a0, a1), pointSegmentDistance(b1, a0, a1)),
	)
}

func segmentBoxDistance(s0, s1, boxPos, half vec.Vec2Float) float64 {
	min := boxPos.Sub(half)
	max := boxPos.Add(half)
	if segmentHitsBox(s0, s1, min, max) {
		return 0
	}

	best := math.Min(
		closestPointOnBox(s0, boxPos, half).DistanceTo(s0),
		closestPointOnBox(s1, boxPos, half).DistanceTo(s1),
	)
	corners := [4]vec.Vec2Float{
		{X: min.X, Y: min.Y},
		{X: max.X, Y: min.Y},
		{X: min.X, Y: max.Y},
		{X: max.X, Y: max.Y},
	}
	for _, c := range corners {
		best = math.Min(best, pointSegmentDistance(c, s0, s1))
	}
	return best
}

// segmentHitsBox отсечение отрезка прямоугольником (Лианг-Барски)
func segmentHitsBox(s0, s1, min, max vec.Vec2Float) bool {
	d := s1.Sub(s0)
	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}
	return clip(-d.X, s0.X-min.X) && clip(d.X, max.X-s0.X) &&
		clip(-d.Y, s0.Y-min.Y) && clip(d.Y, max.Y-s0.Y)
}

func segmentsIntersect(a0, a1, b0, b1 vec.Vec2Float) bool {
	d1 := cross(b1.Sub(b0), a0.Sub(b0))
	d2 := cross(b1.Sub(b0), a1.Sub(b0))
	d3 := cross(a1.Sub(a0), b0.Sub(a0))
	d4 := cross(a1.Sub(a0), b1.Sub(a0))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(a, b vec.Vec2Float) float64 {
	return a.X*b.Y - a.Y*b.X
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
