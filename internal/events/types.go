package events

import "github.com/Drew-source/isometric-rpg/internal/domain"

// EventType - тип события симуляции.
type EventType string

// Жизненный цикл сущностей
const (
	EntityCreated    EventType = "entity_created"
	EntityDestroyed  EventType = "entity_destroyed"
	ComponentAdded   EventType = "component_added"
	ComponentRemoved EventType = "component_removed"
	WorldClearing    EventType = "world_clearing"
	WorldCleared     EventType = "world_cleared"
)

// Движение
const (
	EntityMoved      EventType = "entity_moved"
	EntityTeleported EventType = "entity_teleported"
)

// Бой
const (
	AttackStarted         EventType = "attack_started"
	AttackLanded          EventType = "attack_landed"
	AttackMissed          EventType = "attack_missed"
	EntityDied            EventType = "entity_died"
	CombatEntered         EventType = "combat_entered"
	CombatExited          EventType = "combat_exited"
	CombatStanceChanged   EventType = "combat_stance_changed"
	OpportunityAttackUsed EventType = "opportunity_attack_used"
	HealthChanged         EventType = "health_changed"
	ManaChanged           EventType = "mana_changed"
	HealingPerformed      EventType = "healing_performed"
	ThreatChanged         EventType = "threat_changed"
	EffectApplied         EventType = "effect_applied"
	EffectRemoved         EventType = "effect_removed"
)

// Искусственный интеллект
const (
	AITargetAcquired EventType = "ai_target_acquired"
	AITargetLost     EventType = "ai_target_lost"
	AIActionChanged  EventType = "ai_action_changed"
)

// Event - плоская запись одного события. Поля заполняются по смыслу
// типа; незадействованные остаются нулевыми.
type Event struct {
	Type EventType

	// Главная сущность события (кто двигается, кого ударили, кто умер)
	Entity domain.EntityID

	// Вторая сторона: атакующий при уроне, убийца при смерти,
	// цель при нацеливании
	Source domain.EntityID

	// Компонент для component_added/component_removed
	Component domain.ComponentKind

	// Позиции для движения
	Position    domain.Vector3
	OldPosition domain.Vector3

	// Численные данные: урон, лечение, изменение угрозы
	Amount   float64
	Critical bool

	// Идентификатор атаки/действия/эффекта
	ActionID string

	// Смена стойки
	OldStance domain.CombatStance
	NewStance domain.CombatStance

	// Игровое время эмиссии
	Time float64
}
