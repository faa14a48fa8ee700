package tilemap

import (
	"container/heap"
	"math"
)

// Point - целочисленная координата клетки.
type Point struct{ X, Y int }

// FindPath ищет путь A* по восьми направлениям. Диагональ не срезает
// углы сквозь непроходимые клетки. Возвращает nil, если пути нет или
// цель непроходима.
func (m *TileMap) FindPath(sx, sy, gx, gy int) []Point {
	if !m.IsWalkable(gx, gy) || !m.IsWalkable(sx, sy) {
		return nil
	}

	start := Point{sx, sy}
	goal := Point{gx, gy}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{p: start, f: octile(start, goal)})

	came := make(map[Point]Point)
	gScore := map[Point]float64{start: 0}

	dirs := [8][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.p == goal {
			return reconstructPath(came, goal)
		}

		for _, d := range dirs {
			nx, ny := cur.p.X+d[0], cur.p.Y+d[1]
			if !m.IsWalkable(nx, ny) {
				continue
			}
			// Запрет среза углов по диагонали
			if d[0] != 0 && d[1] != 0 {
				if !m.IsWalkable(cur.p.X+d[0], cur.p.Y) || !m.IsWalkable(cur.p.X, cur.p.Y+d[1]) {
					continue
				}
			}
			np := Point{nx, ny}

			t, _ := m.TileAt(nx, ny)
			moveCost := t.MoveCost()
			if d[0] != 0 && d[1] != 0 {
				moveCost *= math.Sqrt2
			}
			tentG := gScore[cur.p] + moveCost
			if old, ok := gScore[np]; ok && tentG >= old {
				continue
			}
			gScore[np] = tentG
			came[np] = cur.p
			heap.Push(open, &pathNode{p: np, g: tentG, f: tentG + octile(np, goal)})
		}
	}
	return nil
}

// octile - допустимая эвристика для движения по восьми направлениям.
func octile(a, b Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
}

func reconstructPath(came map[Point]Point, goal Point) []Point {
	path := []Point{goal}
	cur := goal
	for {
		prev, ok := came[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// --- ОЧЕРЕДЬ С ПРИОРИТЕТОМ ---

type pathNode struct {
	p    Point
	g, f float64
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(*pathNode)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
