package engine

import "time"

// Config хранит параметры запуска симуляции
type Config struct {
	// Seed - мастер-зерно. Одинаковое зерно при одинаковой
	// последовательности (state, dt) дает идентичную симуляцию.
	Seed int64

	// Размер ячейки пространственной сетки в тайлах
	CellSize float64

	// Секунд без боевых действий до автоматического выхода из боя
	CombatExitTime float64

	// Радиус, в котором враги удерживают сущность в бою
	CombatDetectionRange float64

	// Длительность общего кулдауна после атаки
	GlobalCooldown float64

	// Фиксированный шаг симуляции, секунд
	TickInterval float64

	// Размеры карты в тайлах
	MapWidth  int
	MapHeight int

	// Адрес HTTP-сервера
	Addr string

	// Путь к базе снапшотов. Пустой - без сохранений
	SavePath string
}

// NewConfig создает конфиг по умолчанию (случайный сид)
func NewConfig() Config {
	return Config{
		Seed:                 time.Now().UnixNano(),
		CellSize:             5.0,
		CombatExitTime:       6.0,
		CombatDetectionRange: 10.0,
		GlobalCooldown:       1.0,
		TickInterval:         1.0 / 20.0,
		MapWidth:             64,
		MapHeight:            64,
		Addr:                 ":8080",
	}
}
