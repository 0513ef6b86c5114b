package physics

import (
	"math"
	"sort"
	"sync"

	"github.com/annel0/frozen-forest/internal/vec"
)

// SpatialIndex равномерная сетка для быстрого поиска тел по области
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey]map[uint64]struct{}
	bodies   map[uint64][]cellKey
	mu       sync.RWMutex
}

// cellKey ключ ячейки сетки
type cellKey struct {
	x, y int
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 240.0 // Размер тайла по умолчанию
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[uint64]struct{}),
		bodies:   make(map[uint64][]cellKey),
	}
}

// Insert добавляет или переиндексирует тело с границами [min, max]
func (si *SpatialIndex) Insert(id uint64, min, max vec.Vec2Float) {
	si.mu.Lock()
	defer si.mu.Unlock()

	newCells := si.getCellsForBounds(min, max)
	oldCells, exists := si.bodies[id]

	// Если набор ячеек не изменился, ничего не делаем
	if exists && sameCells(oldCells, newCells) {
		return
	}

	si.removeLocked(id)
	for _, key := range newCells {
		cell, ok := si.cells[key]
		if !ok {
			cell = make(map[uint64]struct{})
			si.cells[key] = cell
		}
		cell[id] = struct{}{}
	}
	si.bodies[id] = newCells
}

// Remove удаляет тело из индекса
func (si *SpatialIndex) Remove(id uint64) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.removeLocked(id)
}

func (si *SpatialIndex) removeLocked(id uint64) {
	cells, exists := si.bodies[id]
	if !exists {
		return
	}
	for _, key := range cells {
		if cell, ok := si.cells[key]; ok {
			delete(cell, id)
			if len(cell) == 0 {
				delete(si.cells, key)
			}
		}
	}
	delete(si.bodies, id)
}

// QueryRect возвращает id тел, чьи ячейки пересекаются с прямоугольником.
// Это кандидаты: точную проверку формы делает вызывающий. Результат отсортирован.
func (si *SpatialIndex) QueryRect(min, max vec.Vec2Float) []uint64 {
	si.mu.RLock()
	defer si.mu.RUnlock()

	seen := make(map[uint64]struct{})
	result := make([]uint64, 0)

	for _, key := range si.getCellsForBounds(min, max) {
		for id := range si.cells[key] {
			if _, wasSeen := seen[id]; wasSeen {
				continue
			}
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// QueryPoint возвращает кандидатов в ячейке точки
func (si *SpatialIndex) QueryPoint(p vec.Vec2Float) []uint64 {
	return si.QueryRect(p, p)
}

// GetCellCount возвращает количество активных ячеек
func (si *SpatialIndex) GetCellCount() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.cells)
}

// GetBodyCount возвращает количество индексированных тел
func (si *SpatialIndex) GetBodyCount() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.bodies)
}

// IndexStats заполненность сетки индекса
type IndexStats struct {
	Bodies     int     `json:"bodies"`
	Cells      int     `json:"cells"`
	AvgPerCell float64 `json:"avg_per_cell"`
	MaxPerCell int     `json:"max_per_cell"`
}

// Stats возвращает статистику индекса
func (si *SpatialIndex) Stats() IndexStats {
	si.mu.RLock()
	defer si.mu.RUnlock()

	st := IndexStats{Bodies: len(si.bodies), Cells: len(si.cells)}
	total := 0
	for _, cell := range si.cells {
		total += len(cell)
		if len(cell) > st.MaxPerCell {
			st.MaxPerCell = len(cell)
		}
	}
	if st.Cells > 0 {
		st.AvgPerCell = float64(total) / float64(st.Cells)
	}
	return st
}

// getCellsForBounds возвращает ключи ячеек, которые пересекаются с границами
func (si *SpatialIndex) getCellsForBounds(min, max vec.Vec2Float) []cellKey {
	// math.Floor корректно обрабатывает отрицательные координаты
	minCellX := int(math.Floor(min.X / si.cellSize))
	minCellY := int(math.Floor(min.Y / si.cellSize))
	maxCellX := int(math.Floor(max.X / si.cellSize))
	maxCellY := int(math.Floor(max.Y / si.cellSize))

	cells := make([]cellKey, 0, (maxCellX-minCellX+1)*(maxCellY-minCellY+1))
	for x := minCellX; x <= maxCellX; x++ {
		for y := minCellY; y <= maxCellY; y++ {
			cells = append(cells, cellKey{x: x, y: y})
		}
	}
	return cells
}

func sameCells(a, b []cellKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
