package domain

import "math"

// Vector3 - позиция/поворот/масштаб в мировых координатах.
// Z используется для высоты уровня, все дистанции считаются по XY.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo возвращает точное расстояние до другой точки по XY (float)
func (v Vector3) DistanceTo(other Vector3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquaredTo возвращает квадрат расстояния для сравнения без корней
func (v Vector3) DistanceSquaredTo(other Vector3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return dx*dx + dy*dy
}

// Shift возвращает новую позицию со смещением (не меняя текущую,
// т.к. Go передает структуры по значению, если не указатель)
func (v Vector3) Shift(dx, dy float64) Vector3 {
	return Vector3{X: v.X + dx, Y: v.Y + dy, Z: v.Z}
}

func (v Vector3) serialize() Record {
	return Record{"x": v.X, "y": v.Y, "z": v.Z}
}

func vectorFromRecord(data Record) Vector3 {
	return Vector3{
		X: recFloat(data, "x", 0),
		Y: recFloat(data, "y", 0),
		Z: recFloat(data, "z", 0),
	}
}

// TransformComponent - положение сущности в пространстве
type TransformComponent struct {
	Position Vector3
	Rotation Vector3
	Scale    Vector3

	// PrevPosition хранит позицию прошлого тика для детекта движения
	PrevPosition Vector3
}

// NewTransform создает трансформ в заданной точке с единичным масштабом.
func NewTransform(x, y float64) *TransformComponent {
	pos := Vector3{X: x, Y: y}
	return &TransformComponent{
		Position:     pos,
		PrevPosition: pos,
		Scale:        Vector3{X: 1, Y: 1, Z: 1},
	}
}

func (t *TransformComponent) Kind() ComponentKind { return KindTransform }

// SetPosition перемещает сущность, запоминая прошлую позицию.
func (t *TransformComponent) SetPosition(x, y float64) {
	t.PrevPosition = t.Position
	t.Position.X = x
	t.Position.Y = y
}

// HasMoved сообщает, сместилась ли сущность с прошлого тика.
func (t *TransformComponent) HasMoved() bool {
	return t.Position != t.PrevPosition
}

// MovementDelta возвращает смещение с прошлого тика.
func (t *TransformComponent) MovementDelta() (dx, dy float64) {
	return t.Position.X - t.PrevPosition.X, t.Position.Y - t.PrevPosition.Y
}

func (t *TransformComponent) Serialize() Record {
	return Record{
		"position": map[string]any(t.Position.serialize()),
		"rotation": map[string]any(t.Rotation.serialize()),
		"scale":    map[string]any(t.Scale.serialize()),
	}
}

// DeserializeTransform восстанавливает трансформ из записи снапшота.
func DeserializeTransform(data Record) *TransformComponent {
	t := &TransformComponent{
		Position: vectorFromRecord(recRecord(data, "position")),
		Rotation: vectorFromRecord(recRecord(data, "rotation")),
		Scale:    vectorFromRecord(recRecord(data, "scale")),
	}
	if t.Scale == (Vector3{}) {
		t.Scale = Vector3{X: 1, Y: 1, Z: 1}
	}
	t.PrevPosition = t.Position
	return t
}
