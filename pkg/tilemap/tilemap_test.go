package tilemap

import "testing"

func TestTileProperties(t *testing.T) {
	tests := []struct {
		kind     TileKind
		walkable bool
		opaque   bool
	}{
		{TileGrass, true, false},
		{TileSand, true, false},
		{TileForest, true, false},
		{TileWater, false, false},
		{TileRock, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			tile := Tile{Kind: tt.kind}
			if tile.Walkable() != tt.walkable {
				t.Fatalf("Walkable() = %v, ожидалось %v", tile.Walkable(), tt.walkable)
			}
			if tile.Opaque() != tt.opaque {
				t.Fatalf("Opaque() = %v, ожидалось %v", tile.Opaque(), tt.opaque)
			}
		})
	}
}

func TestTileMapBounds(t *testing.T) {
	m := NewTileMap(4, 3)

	if _, ok := m.TileAt(4, 0); ok {
		t.Fatal("клетка за правой границей не должна существовать")
	}
	if _, ok := m.TileAt(0, -1); ok {
		t.Fatal("клетка за верхней границей не должна существовать")
	}
	if m.IsWalkable(-1, 0) {
		t.Fatal("все за границами непроходимо")
	}

	// Запись вне границ молча игнорируется
	m.SetTile(10, 10, Tile{Kind: TileRock})

	m.SetTile(2, 1, Tile{Kind: TileWater})
	if m.IsWalkable(2, 1) {
		t.Fatal("вода должна быть непроходимой")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	opts := DefaultGenOptions(42)
	opts.Width, opts.Height = 32, 32

	a := Generate(opts)
	b := Generate(opts)

	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			ta, _ := a.TileAt(x, y)
			tb, _ := b.TileAt(x, y)
			if ta != tb {
				t.Fatalf("одно зерно дало разные карты в (%d,%d)", x, y)
			}
		}
	}
}

func TestGenerateIslandEdges(t *testing.T) {
	opts := DefaultGenOptions(7)
	opts.Width, opts.Height = 24, 24
	m := Generate(opts)

	// Краевой спад прижимает высоту к нулю: весь периметр - вода
	for x := 0; x < opts.Width; x++ {
		for _, y := range []int{0, opts.Height - 1} {
			tile, _ := m.TileAt(x, y)
			if tile.Kind != TileWater {
				t.Fatalf("край (%d,%d) = %v, ожидалась вода", x, y, tile.Kind)
			}
		}
	}
	for y := 0; y < opts.Height; y++ {
		for _, x := range []int{0, opts.Width - 1} {
			tile, _ := m.TileAt(x, y)
			if tile.Kind != TileWater {
				t.Fatalf("край (%d,%d) = %v, ожидалась вода", x, y, tile.Kind)
			}
		}
	}
}

func openMap(w, h int) *TileMap {
	return NewTileMap(w, h) // нулевое значение Tile - трава
}

func TestLineOfSight(t *testing.T) {
	m := openMap(5, 5)
	m.SetTile(2, 2, Tile{Kind: TileRock})

	if !m.HasLineOfSight(0, 0, 0, 0) {
		t.Fatal("точка видит сама себя")
	}
	if !m.HasLineOfSight(0, 0, 4, 0) {
		t.Fatal("чистая линия должна быть видимой")
	}
	if m.HasLineOfSight(0, 2, 4, 2) {
		t.Fatal("скала обязана перекрывать линию")
	}
	// Крайние точки не считаются препятствиями
	if !m.HasLineOfSight(2, 2, 0, 2) {
		t.Fatal("из непрозрачной клетки наружу видно")
	}
	// Линия через границу карты блокируется
	if m.HasLineOfSight(0, 0, 6, 6) {
		t.Fatal("за границами карты видимости нет")
	}
}

func TestFindPathStraight(t *testing.T) {
	m := openMap(5, 5)
	path := m.FindPath(0, 0, 4, 0)
	if len(path) != 5 {
		t.Fatalf("длина пути = %d, ожидалось 5", len(path))
	}
	if path[0] != (Point{0, 0}) || path[4] != (Point{4, 0}) {
		t.Fatalf("путь %v не соединяет старт и цель", path)
	}
}

func TestFindPathDetour(t *testing.T) {
	m := openMap(5, 5)
	for y := 0; y < 4; y++ {
		m.SetTile(2, y, Tile{Kind: TileRock})
	}

	path := m.FindPath(0, 0, 4, 0)
	if path == nil {
		t.Fatal("обходной путь существует")
	}
	if path[0] != (Point{0, 0}) || path[len(path)-1] != (Point{4, 0}) {
		t.Fatalf("путь %v не соединяет старт и цель", path)
	}
	// Каждый шаг проходим и смежен с предыдущим
	for i, p := range path {
		if !m.IsWalkable(p.X, p.Y) {
			t.Fatalf("шаг %v непроходим", p)
		}
		if i > 0 {
			prev := path[i-1]
			dx, dy := p.X-prev.X, p.Y-prev.Y
			if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
				t.Fatalf("шаги %v -> %v не смежны", prev, p)
			}
		}
	}
}

func TestFindPathBlocked(t *testing.T) {
	m := openMap(5, 5)
	for y := 0; y < 5; y++ {
		m.SetTile(2, y, Tile{Kind: TileRock})
	}
	if path := m.FindPath(0, 0, 4, 0); path != nil {
		t.Fatalf("сквозь сплошную стену пути нет, получено %v", path)
	}
}

func TestFindPathNoCornerCutting(t *testing.T) {
	m := openMap(3, 3)
	m.SetTile(1, 0, Tile{Kind: TileRock})
	m.SetTile(0, 1, Tile{Kind: TileRock})

	// Единственный кандидат - диагональ сквозь угол, она запрещена
	if path := m.FindPath(0, 0, 1, 1); path != nil {
		t.Fatalf("диагональ не должна срезать угол, получено %v", path)
	}
}

func TestFindPathUnwalkableGoal(t *testing.T) {
	m := openMap(3, 3)
	m.SetTile(2, 2, Tile{Kind: TileWater})
	if path := m.FindPath(0, 0, 2, 2); path != nil {
		t.Fatalf("путь к непроходимой цели = %v, ожидался nil", path)
	}
}
