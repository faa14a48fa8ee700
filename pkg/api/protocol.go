package api

import (
	"encoding/json"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// Типы исходящих сообщений
const (
	MessageSnapshot = "SNAPSHOT"
	MessageEvent    = "EVENT"
	MessageError    = "ERROR"
)

// ServerResponse - корневой объект всех сообщений сервера наблюдателю.
// SNAPSHOT несет полный слепок мира, EVENT - одно событие симуляции.
type ServerResponse struct {
	Type string `json:"type"`

	// Игровое время симуляции в секундах
	Time float64 `json:"time"`

	Snapshot *WorldSnapshot `json:"snapshot,omitempty"`
	Event    *EventView     `json:"event,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// WorldSnapshot - полный слепок мира для первой отрисовки.
type WorldSnapshot struct {
	Grid     *GridMeta    `json:"grid,omitempty"`
	Entities []EntityView `json:"entities"`
}

// GridMeta - размеры карты, чтобы клиент знал, какую сетку готовить.
type GridMeta struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

// EntityView - DTO одной сущности.
type EntityView struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags,omitempty"`

	Pos struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"pos"`

	// Stats может отсутствовать у сущностей без характеристик
	Stats  *StatsView  `json:"stats,omitempty"`
	Combat *CombatView `json:"combat,omitempty"`

	// Текущее действие ИИ (пусто у сущностей без ИИ)
	Action string `json:"action,omitempty"`
}

// StatsView - DTO характеристик.
type StatsView struct {
	Health    float64 `json:"hp"`
	MaxHealth float64 `json:"maxHp"`
	Mana      float64 `json:"mana"`
	MaxMana   float64 `json:"maxMana"`
	IsDead    bool    `json:"isDead"`
}

// CombatView - DTO боевого состояния.
type CombatView struct {
	InCombat bool   `json:"inCombat"`
	Stance   string `json:"stance"`
	Target   string `json:"target,omitempty"`
}

// EventView - DTO одного события симуляции.
type EventView struct {
	Type     string  `json:"type"`
	Entity   string  `json:"entity,omitempty"`
	Source   string  `json:"source,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Critical bool    `json:"critical,omitempty"`
	ActionID string  `json:"actionId,omitempty"`
	Time     float64 `json:"time"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// Действия клиента
const (
	ActionSnapshot = "SNAPSHOT"
	ActionSpawn    = "SPAWN"
	ActionAttack   = "ATTACK"
	ActionStance   = "STANCE"
)

// ClientCommand - корневой объект всех сообщений клиента.
type ClientCommand struct {
	// Session проставляется сервером при чтении из сокета
	Session string `json:"-"`

	Action string `json:"action"`

	// Payload зависит от Action
	Payload json.RawMessage `json:"payload"`
}

// --- Payloads ---

// SpawnPayload создает бойца в точке. Kind: "fighter" (с ИИ) или
// "dummy" (без ИИ, мишень).
type SpawnPayload struct {
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Kind string   `json:"kind"`
	Tags []string `json:"tags,omitempty"`
}

// AttackPayload - принудительная атака одной сущности по другой.
type AttackPayload struct {
	AttackerID string `json:"attackerId"`
	TargetID   string `json:"targetId"`
}

// StancePayload переключает боевую стойку сущности.
type StancePayload struct {
	EntityID string `json:"entityId"`
	Stance   string `json:"stance"` // neutral | aggressive | defensive
}
