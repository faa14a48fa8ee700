package domain

import "fmt"

// ComponentKind - внутренний числовой идентификатор типа компонента.
// Используется как ключ индексов мира вместо рефлексии.
type ComponentKind uint8

const (
	KindUnknown ComponentKind = iota
	KindTransform
	KindCharacterStats
	KindCombat
	KindAI
)

// Маппинг для логов и сериализации Kind -> String
var kindToString = map[ComponentKind]string{
	KindTransform:      "transform",
	KindCharacterStats: "character_stats",
	KindCombat:         "combat",
	KindAI:             "ai",
}

var stringToKind = map[string]ComponentKind{
	"transform":       KindTransform,
	"character_stats": KindCharacterStats,
	"combat":          KindCombat,
	"ai":              KindAI,
}

// String реализует интерфейс Stringer (для fmt.Printf и сериализации)
func (k ComponentKind) String() string {
	if s, ok := kindToString[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind конвертирует строку из снапшота в ComponentKind
func ParseKind(s string) ComponentKind {
	if k, ok := stringToKind[s]; ok {
		return k
	}
	return KindUnknown
}

// Component - чистые данные без логики владения (кроме сериализации).
// Каждый вариант умеет выгружаться в плоскую запись (Record) и обратно.
type Component interface {
	Kind() ComponentKind
	Serialize() Record
}

// Record - обобщенная запись "ключ -> значение" для снапшотов.
// После прохода через JSON все числа становятся float64, поэтому
// геттеры ниже терпимы к типам.
type Record = map[string]any

// DeserializeComponent восстанавливает компонент нужного вида из записи.
// Явная схема на вариант, никакой рефлексии.
func DeserializeComponent(kind ComponentKind, data Record) (Component, error) {
	switch kind {
	case KindTransform:
		return DeserializeTransform(data), nil
	case KindCharacterStats:
		return DeserializeCharacterStats(data), nil
	case KindCombat:
		return DeserializeCombat(data), nil
	case KindAI:
		return DeserializeAI(data), nil
	default:
		return nil, fmt.Errorf("unknown component kind %d", kind)
	}
}

// --- ГЕТТЕРЫ ЗАПИСЕЙ ---

func recFloat(data Record, key string, def float64) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func recInt(data Record, key string, def int) int {
	return int(recFloat(data, key, float64(def)))
}

func recBool(data Record, key string, def bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return def
}

func recString(data Record, key, def string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return def
}

func recFloatMap(data Record, key string) map[string]float64 {
	out := make(map[string]float64)
	raw, ok := data[key].(map[string]any)
	if !ok {
		return out
	}
	for k := range raw {
		out[k] = recFloat(raw, k, 0)
	}
	return out
}

func recRecord(data Record, key string) Record {
	if v, ok := data[key].(map[string]any); ok {
		return v
	}
	return Record{}
}

// --- ОБЩИЕ УТИЛИТЫ ---

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0.0, 1.0)
}
