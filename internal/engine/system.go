package engine

// System - логический блок, обрабатывающий сущности с нужным набором
// компонентов. Между тиками состояния не хранит сверх собственных
// таймеров; каждый Update заново запрашивает мир.
type System interface {
	// Name - имя для логов и отладки
	Name() string

	// Priority - порядок вызова: больший приоритет обновляется раньше
	Priority() int

	// Update выполняет один шаг системы
	Update(w *World, dt float64)
}
