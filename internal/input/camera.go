package input

import (
	"github.com/annel0/frozen-forest/internal/vec"
)

// followLookAhead на сколько секунд вперёд камера предсказывает движение игрока
const followLookAhead = 1.3

// Camera камера, центрированная в Position. Окно: ось Y вниз, начало в левом верхнем углу.
type Camera struct {
	Position vec.Vec2Float `json:"position"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
}

// NewCamera создаёт камеру в начале координат
func NewCamera(width, height float64) *Camera {
	return &Camera{Width: width, Height: height}
}

// ViewportToWorld переводит позицию в окне в мировые координаты
func (c *Camera) ViewportToWorld(p vec.Vec2Float) vec.Vec2Float {
	return vec.Vec2Float{
		X: c.Position.X + p.X - c.Width/2,
		Y: c.Position.Y + c.Height/2 - p.Y,
	}
}

// Follow плавно ведёт камеру к предсказанной позиции игрока
func (c *Camera) Follow(target, velocity vec.Vec2Float, dt float64) {
	predicted := target.Add(velocity.Mul(followLookAhead))
	c.Position = c.Position.Lerp(predicted, dt)
}
