package spatial

import (
	"math"
	"sort"

	"github.com/Drew-source/isometric-rpg/internal/domain"
)

// cellCoord - координаты ячейки сетки.
type cellCoord struct {
	X, Y int
}

// point - последняя известная позиция сущности в мировых координатах.
type point struct {
	X, Y float64
}

// RayHit - попадание луча: сущность и дистанция вдоль луча.
type RayHit struct {
	ID       domain.EntityID
	Distance float64
}

// Stats - срез внутреннего состояния сетки для отладки.
type Stats struct {
	CellSize        float64 `json:"cell_size"`
	Cells           int     `json:"cells"`
	Entities        int     `json:"entities"`
	BucketMutations uint64  `json:"bucket_mutations"`
}

// Grid - пространственная хеш-сетка над динамичным множеством точек.
// Ячейка = floor(позиция / cell_size). Пустые ячейки удаляются сразу,
// сетка не накапливает мусор при миграции сущностей по карте.
type Grid struct {
	cellSize  float64
	cells     map[cellCoord]map[domain.EntityID]struct{}
	positions map[domain.EntityID]point

	// Счетчик вставок/удалений в ячейки. Перемещение внутри одной
	// ячейки обязано его не трогать, тесты на это опираются.
	bucketMutations uint64
}

// DefaultCellSize подобран под дистанции восприятия и боя.
const DefaultCellSize = 4.0

// NewGrid создает сетку. Неположительный размер ячейки заменяется
// дефолтным.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize:  cellSize,
		cells:     make(map[cellCoord]map[domain.EntityID]struct{}),
		positions: make(map[domain.EntityID]point),
	}
}

// CellSize возвращает размер ячейки.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Len возвращает число отслеживаемых сущностей.
func (g *Grid) Len() int { return len(g.positions) }

// BucketMutations возвращает счетчик мутаций ячеек.
func (g *Grid) BucketMutations() uint64 { return g.bucketMutations }

func (g *Grid) cellAt(x, y float64) cellCoord {
	return cellCoord{
		X: int(math.Floor(x / g.cellSize)),
		Y: int(math.Floor(y / g.cellSize)),
	}
}

// Add помещает сущность в сетку. Повторный Add той же сущности
// эквивалентен перемещению.
func (g *Grid) Add(id domain.EntityID, x, y float64) {
	g.Remove(id)
	g.insert(id, g.cellAt(x, y))
	g.positions[id] = point{X: x, Y: y}
}

// Remove убирает сущность из сетки. Неизвестная сущность - no-op.
func (g *Grid) Remove(id domain.EntityID) bool {
	pos, ok := g.positions[id]
	if !ok {
		return false
	}
	g.erase(id, g.cellAt(pos.X, pos.Y))
	delete(g.positions, id)
	return true
}

// Move обновляет позицию сущности. Перемещение внутри прежней ячейки -
// быстрый путь без мутации ячеек. Возвращает false для неизвестной
// сущности.
func (g *Grid) Move(id domain.EntityID, x, y float64) bool {
	pos, ok := g.positions[id]
	if !ok {
		return false
	}
	oldCell := g.cellAt(pos.X, pos.Y)
	newCell := g.cellAt(x, y)
	if oldCell != newCell {
		g.erase(id, oldCell)
		g.insert(id, newCell)
	}
	g.positions[id] = point{X: x, Y: y}
	return true
}

// Position возвращает последнюю известную позицию сущности.
func (g *Grid) Position(id domain.EntityID) (x, y float64, ok bool) {
	pos, found := g.positions[id]
	return pos.X, pos.Y, found
}

// --- ЗАПРОСЫ ---

// QueryRange возвращает сущности в радиусе от точки, отсортированные
// по ID. Кандидаты берутся из ячеек охватывающего прямоугольника,
// финальный фильтр - честная евклидова дистанция без sqrt.
func (g *Grid) QueryRange(x, y, radius float64) []domain.EntityID {
	if radius < 0 {
		return nil
	}
	minCell := g.cellAt(x-radius, y-radius)
	maxCell := g.cellAt(x+radius, y+radius)

	radiusSq := radius * radius
	var result []domain.EntityID
	g.forEachCandidate(minCell, maxCell, func(id domain.EntityID, pos point) {
		dx := pos.X - x
		dy := pos.Y - y
		if dx*dx+dy*dy <= radiusSq {
			result = append(result, id)
		}
	})
	sortIDs(result)
	return result
}

// QueryRect возвращает сущности внутри прямоугольника (границы
// включительно), отсортированные по ID.
func (g *Grid) QueryRect(minX, minY, maxX, maxY float64) []domain.EntityID {
	minCell := g.cellAt(minX, minY)
	maxCell := g.cellAt(maxX, maxY)

	var result []domain.EntityID
	g.forEachCandidate(minCell, maxCell, func(id domain.EntityID, pos point) {
		if pos.X >= minX && pos.X <= maxX && pos.Y >= minY && pos.Y <= maxY {
			result = append(result, id)
		}
	})
	sortIDs(result)
	return result
}

// QueryCell возвращает содержимое одной ячейки, отсортированное по ID.
func (g *Grid) QueryCell(cellX, cellY int) []domain.EntityID {
	set := g.cells[cellCoord{X: cellX, Y: cellY}]
	if len(set) == 0 {
		return nil
	}
	result := make([]domain.EntityID, 0, len(set))
	for id := range set {
		result = append(result, id)
	}
	sortIDs(result)
	return result
}

// QueryNearest ищет ближайшую сущность расширяющимися кольцами:
// стартовый радиус - одна ячейка, затем удвоение; последнее кольцо
// подрезается к maxRadius, чтобы не проскочить дальний край. filter
// может быть nil.
func (g *Grid) QueryNearest(x, y, maxRadius float64, filter func(domain.EntityID) bool) (domain.EntityID, float64, bool) {
	if maxRadius <= 0 || len(g.positions) == 0 {
		return domain.NoEntity, math.Inf(1), false
	}

	searchRadius := math.Min(g.cellSize, maxRadius)
	for {
		best := domain.NoEntity
		bestDist := math.Inf(1)
		for _, id := range g.QueryRange(x, y, searchRadius) {
			if filter != nil && !filter(id) {
				continue
			}
			pos := g.positions[id]
			dx := pos.X - x
			dy := pos.Y - y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < bestDist {
				best = id
				bestDist = dist
			}
		}
		if best != domain.NoEntity {
			return best, bestDist, true
		}
		if searchRadius >= maxRadius {
			return domain.NoEntity, math.Inf(1), false
		}
		searchRadius = math.Min(searchRadius*2, maxRadius)
	}
}

// QueryRay возвращает сущности вдоль отрезка, отсортированные по
// дистанции вдоль луча. Кандидат принимается, если его перпендикулярное
// отклонение от луча не превышает половины ячейки.
func (g *Grid) QueryRay(startX, startY, endX, endY, maxDistance float64) []RayHit {
	dx := endX - startX
	dy := endY - startY
	length := math.Sqrt(dx*dx + dy*dy)
	if length > 0 {
		dx /= length
		dy /= length
	}
	travel := math.Min(length, maxDistance)

	actualEndX := startX + dx*travel
	actualEndY := startY + dy*travel

	buffer := g.cellSize * 0.5
	minX := math.Min(startX, actualEndX) - buffer
	maxX := math.Max(startX, actualEndX) + buffer
	minY := math.Min(startY, actualEndY) - buffer
	maxY := math.Max(startY, actualEndY) + buffer

	var hits []RayHit
	for _, id := range g.QueryRect(minX, minY, maxX, maxY) {
		pos := g.positions[id]

		// Проекция на луч, зажатая в [0, travel]
		projection := (pos.X-startX)*dx + (pos.Y-startY)*dy
		projection = math.Max(0, math.Min(travel, projection))

		nearestX := startX + dx*projection
		nearestY := startY + dy*projection
		offX := pos.X - nearestX
		offY := pos.Y - nearestY

		if math.Sqrt(offX*offX+offY*offY) <= buffer {
			hits = append(hits, RayHit{ID: id, Distance: projection})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

// Clear сбрасывает сетку.
func (g *Grid) Clear() {
	g.cells = make(map[cellCoord]map[domain.EntityID]struct{})
	g.positions = make(map[domain.EntityID]point)
}

// GridStats возвращает отладочную статистику.
func (g *Grid) GridStats() Stats {
	return Stats{
		CellSize:        g.cellSize,
		Cells:           len(g.cells),
		Entities:        len(g.positions),
		BucketMutations: g.bucketMutations,
	}
}

// --- ВНУТРЕННЕЕ ---

func (g *Grid) insert(id domain.EntityID, cell cellCoord) {
	set, ok := g.cells[cell]
	if !ok {
		set = make(map[domain.EntityID]struct{})
		g.cells[cell] = set
	}
	set[id] = struct{}{}
	g.bucketMutations++
}

func (g *Grid) erase(id domain.EntityID, cell cellCoord) {
	set, ok := g.cells[cell]
	if !ok {
		return
	}
	if _, present := set[id]; !present {
		return
	}
	delete(set, id)
	g.bucketMutations++
	if len(set) == 0 {
		delete(g.cells, cell)
	}
}

// forEachCandidate обходит все сущности в прямоугольнике ячеек.
func (g *Grid) forEachCandidate(minCell, maxCell cellCoord, fn func(domain.EntityID, point)) {
	for cx := minCell.X; cx <= maxCell.X; cx++ {
		for cy := minCell.Y; cy <= maxCell.Y; cy++ {
			for id := range g.cells[cellCoord{X: cx, Y: cy}] {
				fn(id, g.positions[id])
			}
		}
	}
}

func sortIDs(ids []domain.EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
