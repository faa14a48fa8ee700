package tilemap

// TileKind - тип местности клетки.
type TileKind int

const (
	TileGrass TileKind = iota
	TileSand
	TileForest
	TileWater
	TileRock
)

func (k TileKind) String() string {
	switch k {
	case TileGrass:
		return "grass"
	case TileSand:
		return "sand"
	case TileForest:
		return "forest"
	case TileWater:
		return "water"
	case TileRock:
		return "rock"
	default:
		return "unknown"
	}
}

// Tile - одна клетка карты.
type Tile struct {
	Kind      TileKind `json:"kind"`
	Elevation float64  `json:"elevation"`
}

// Walkable сообщает, можно ли ходить по клетке.
func (t Tile) Walkable() bool {
	return t.Kind != TileWater && t.Kind != TileRock
}

// Opaque сообщает, перекрывает ли клетка линию видимости.
func (t Tile) Opaque() bool {
	return t.Kind == TileRock
}

// MoveCost - стоимость входа в клетку для поиска пути.
func (t Tile) MoveCost() float64 {
	switch t.Kind {
	case TileSand:
		return 1.2
	case TileForest:
		return 1.5
	default:
		return 1.0
	}
}

// TileMap - прямоугольная карта клеток. Хранение плоское, построчное.
type TileMap struct {
	Width  int
	Height int
	tiles  []Tile
}

// NewTileMap создает карту, заполненную травой.
func NewTileMap(width, height int) *TileMap {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &TileMap{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
	}
}

// InBounds проверяет попадание координат в карту.
func (m *TileMap) InBounds(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// TileAt возвращает клетку. Вне границ - false.
func (m *TileMap) TileAt(x, y int) (Tile, bool) {
	if !m.InBounds(x, y) {
		return Tile{}, false
	}
	return m.tiles[y*m.Width+x], true
}

// SetTile записывает клетку. Вне границ - no-op.
func (m *TileMap) SetTile(x, y int, t Tile) {
	if !m.InBounds(x, y) {
		return
	}
	m.tiles[y*m.Width+x] = t
}

// IsWalkable проверяет проходимость. Все за границами непроходимо.
func (m *TileMap) IsWalkable(x, y int) bool {
	t, ok := m.TileAt(x, y)
	return ok && t.Walkable()
}

// Counts возвращает распределение типов местности.
func (m *TileMap) Counts() map[TileKind]int {
	counts := make(map[TileKind]int)
	for _, t := range m.tiles {
		counts[t.Kind]++
	}
	return counts
}
