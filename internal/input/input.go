// Package input описывает ввод одного кадра и перевод координат экрана в мир.
package input

import (
	"github.com/annel0/frozen-forest/internal/vec"
)

// Key код клавиши (совпадает с KeyboardEvent.code браузера)
type Key string

const (
	KeyW          Key = "KeyW"
	KeyA          Key = "KeyA"
	KeyS          Key = "KeyS"
	KeyD          Key = "KeyD"
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyDigit1     Key = "Digit1"
	KeyDigit2     Key = "Digit2"
	KeyDigit3     Key = "Digit3"
	KeyDigit4     Key = "Digit4"
	KeyDigit5     Key = "Digit5"
)

// DigitKeys клавиши выбора слотов по порядку
var DigitKeys = []Key{KeyDigit1, KeyDigit2, KeyDigit3, KeyDigit4, KeyDigit5}

// MouseButton кнопка мыши
type MouseButton string

const (
	MouseLeft  MouseButton = "left"
	MouseRight MouseButton = "right"
)

// Frame состояние ввода на один кадр
type Frame struct {
	Pressed     []Key          `json:"pressed,omitempty"`
	JustPressed []Key          `json:"just_pressed,omitempty"`
	Buttons     []MouseButton  `json:"buttons,omitempty"`
	JustClicked []MouseButton  `json:"just_clicked,omitempty"`
	Pointer     *vec.Vec2Float `json:"pointer,omitempty"` // позиция в окне, nil если курсора нет
	PointerLeft bool           `json:"pointer_left,omitempty"` // курсор покинул окно
	Wheel       float64        `json:"wheel,omitempty"`
}

// IsPressed клавиша удерживается
func (f Frame) IsPressed(k Key) bool {
	return containsKey(f.Pressed, k) || containsKey(f.JustPressed, k)
}

// AnyPressed любая из клавиш удерживается
func (f Frame) AnyPressed(keys ...Key) bool {
	for _, k := range keys {
		if f.IsPressed(k) {
			return true
		}
	}
	return false
}

// IsJustPressed клавиша нажата именно в этом кадре
func (f Frame) IsJustPressed(k Key) bool {
	return containsKey(f.JustPressed, k)
}

// IsJustClicked кнопка мыши нажата именно в этом кадре
func (f Frame) IsJustClicked(b MouseButton) bool {
	for _, x := range f.JustClicked {
		if x == b {
			return true
		}
	}
	return false
}

// MoveDirection направление движения по WASD и стрелкам (не нормализовано). Y вверх.
func (f Frame) MoveDirection() vec.Vec2Float {
	var dir vec.Vec2Float
	if f.AnyPressed(KeyA, KeyArrowLeft) {
		dir.X -= 1
	}
	if f.AnyPressed(KeyD, KeyArrowRight) {
		dir.X += 1
	}
	if f.AnyPressed(KeyW, KeyArrowUp) {
		dir.Y += 1
	}
	if f.AnyPressed(KeyS, KeyArrowDown) {
		dir.Y -= 1
	}
	return dir
}

// Merge объединяет ввод, накопленный между кадрами: нажатия суммируются,
// указатель берётся последний, прокрутка складывается.
// Кадр без указателя не сбрасывает прежний, сбрасывает только PointerLeft.
func (f Frame) Merge(next Frame) Frame {
	out := Frame{
		Pressed:     next.Pressed,
		JustPressed: unionKeys(f.JustPressed, next.JustPressed),
		Buttons:     next.Buttons,
		JustClicked: append(append([]MouseButton(nil), f.JustClicked...), next.JustClicked...),
		Pointer:     f.Pointer,
		Wheel:       f.Wheel + next.Wheel,
	}
	switch {
	case next.PointerLeft:
		out.Pointer = nil
	case next.Pointer != nil:
		out.Pointer = next.Pointer
	}
	return out
}

func containsKey(keys []Key, k Key) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}

func unionKeys(a, b []Key) []Key {
	out := append([]Key(nil), a...)
	for _, k := range b {
		if !containsKey(out, k) {
			out = append(out, k)
		}
	}
	return out
}
