package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSlots(t *testing.T) {
	inv := New()
	assert.Equal(t, 0, inv.Selected())
	assert.Equal(t, AttackMelee, inv.SelectedAttack())

	slots := inv.Slots()
	assert.Len(t, slots, SlotCount)
	assert.Equal(t, AttackFireball, slots[1].Attack)
	for _, s := range slots[2:] {
		assert.Equal(t, AttackNone, s.Attack)
	}
}

func TestSelect(t *testing.T) {
	inv := New()
	assert.NoError(t, inv.Select(1))
	assert.Equal(t, AttackFireball, inv.SelectedAttack())

	assert.ErrorIs(t, inv.Select(5), ErrInvalidSlot)
	assert.ErrorIs(t, inv.Select(-1), ErrInvalidSlot)
	assert.Equal(t, 1, inv.Selected(), "неверный выбор ничего не меняет")
}

func TestScrollWraps(t *testing.T) {
	inv := New()

	inv.Scroll(-1)
	assert.Equal(t, 4, inv.Selected(), "вниз с 0 даёт 4")

	inv.Scroll(1)
	assert.Equal(t, 0, inv.Selected(), "вверх с 4 даёт 0")

	assert.False(t, inv.Scroll(0))
	assert.Equal(t, 0, inv.Selected())
}
