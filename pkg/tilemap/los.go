package tilemap

// HasLineOfSight проверяет прямую видимость между двумя клетками
// целочисленным алгоритмом Брезенхэма. Стартовая и конечная клетки
// препятствиями не считаются: стоящий в лесу видит наружу.
func (m *TileMap) HasLineOfSight(x0, y0, x1, y1 int) bool {
	if x0 == x1 && y0 == y1 {
		return true
	}

	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy < 0 {
		dy = -dy
	}

	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx - dy
	x, y := x0, y0

	for {
		isStart := x == x0 && y == y0
		isEnd := x == x1 && y == y1

		if !isStart && !isEnd {
			// За границами карты видимости нет
			t, ok := m.TileAt(x, y)
			if !ok {
				return false
			}
			if t.Opaque() {
				return false
			}
		}

		if x == x1 && y == y1 {
			return true
		}

		e2 := err * 2
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}
