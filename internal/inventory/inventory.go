// Package inventory хранит слоты атак игрока и выбранный слот.
package inventory

import (
	"errors"
	"fmt"
)

// SlotCount количество слотов инвентаря
const SlotCount = 5

var ErrInvalidSlot = errors.New("invalid inventory slot")

// AttackType тип атаки в слоте
type AttackType uint8

const (
	AttackNone AttackType = iota
	AttackMelee
	AttackFireball
)

func (a AttackType) String() string {
	switch a {
	case AttackMelee:
		return "melee"
	case AttackFireball:
		return "fireball"
	default:
		return "none"
	}
}

// Slot слот инвентаря
type Slot struct {
	Index  int        `json:"index"`
	Attack AttackType `json:"attack"`
}

// Inventory пять слотов: 0 удар, 1 огненный шар, остальные пустые
type Inventory struct {
	slots    [SlotCount]Slot
	selected int
}

// New создаёт инвентарь по умолчанию с выбранным первым слотом
func New() *Inventory {
	inv := &Inventory{}
	for i := range inv.slots {
		inv.slots[i] = Slot{Index: i, Attack: AttackNone}
	}
	inv.slots[0].Attack = AttackMelee
	inv.slots[1].Attack = AttackFireball
	return inv
}

// Selected индекс выбранного слота
func (inv *Inventory) Selected() int {
	return inv.selected
}

// SelectedAttack тип атаки выбранного слота
func (inv *Inventory) SelectedAttack() AttackType {
	return inv.slots[inv.selected].Attack
}

// Slots копия всех слотов
func (inv *Inventory) Slots() []Slot {
	out := make([]Slot, SlotCount)
	copy(out, inv.slots[:])
	return out
}

// Select выбирает слот i. Вне диапазона возвращает ErrInvalidSlot и ничего не меняет.
func (inv *Inventory) Select(i int) error {
	if i < 0 || i >= SlotCount {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, i)
	}
	inv.selected = i
	return nil
}

// Scroll смещает выбор колесом: вверх +1, вниз -1 по модулю SlotCount.
// Возвращает true, если выбор изменился.
func (inv *Inventory) Scroll(delta float64) bool {
	switch {
	case delta > 0:
		inv.selected = (inv.selected + 1) % SlotCount
	case delta < 0:
		inv.selected = (inv.selected + SlotCount - 1) % SlotCount
	default:
		return false
	}
	return true
}
