package domain

import "math/rand"

// AIKind - вариант решателя. Полностью реализован только утилитарный,
// остальные - явные заглушки.
type AIKind int

const (
	AIUtility AIKind = iota
	AIStateMachine
	AIBehaviorTree
)

func (k AIKind) String() string {
	switch k {
	case AIStateMachine:
		return "state"
	case AIBehaviorTree:
		return "behavior_tree"
	default:
		return "utility"
	}
}

// ParseAIKind восстанавливает вариант из строки, по умолчанию utility.
func ParseAIKind(s string) AIKind {
	switch s {
	case "state":
		return AIStateMachine
	case "behavior_tree":
		return AIBehaviorTree
	default:
		return AIUtility
	}
}

// ActionType - тип действия в репертуаре ИИ.
type ActionType string

const (
	ActionAttack ActionType = "attack"
	ActionDefend ActionType = "defend"
	ActionHeal   ActionType = "heal"
	ActionFlee   ActionType = "flee"
	ActionIdle   ActionType = "idle"
	ActionPatrol ActionType = "patrol"
	ActionFollow ActionType = "follow"
)

// Черты личности
const (
	TraitBravery      = "bravery"
	TraitAggression   = "aggression"
	TraitCooperation  = "cooperation"
	TraitCuriosity    = "curiosity"
	TraitIntelligence = "intelligence"
)

var personalityTraits = []string{
	TraitBravery, TraitAggression, TraitCooperation, TraitCuriosity, TraitIntelligence,
}

// Дефолтные параметры ИИ
const (
	DefaultPerceptionRadius    = 10.0
	DefaultMemoryDuration      = 30.0
	DefaultActionThreshold     = 0.1
	DefaultFleeHealthThreshold = 0.2
)

// ActionSpec - статические параметры одного действия.
type ActionSpec struct {
	Type       ActionType
	Range      float64
	AttackType AttackType
	HealType   string // "self" или "other"
	HealAmount float64
	Cooldown   float64
}

// PerceivedEntity - одна замеченная сущность в снимке восприятия.
type PerceivedEntity struct {
	ID       EntityID
	Position Vector3
	Distance float64
}

// Perception - снимок восприятия, перестраивается каждый тик.
type Perception struct {
	Enemies  []PerceivedEntity
	Allies   []PerceivedEntity
	Neutrals []PerceivedEntity
	Items    []PerceivedEntity
	Hazards  []PerceivedEntity
}

// Clear сбрасывает все категории, сохраняя емкость срезов.
func (p *Perception) Clear() {
	p.Enemies = p.Enemies[:0]
	p.Allies = p.Allies[:0]
	p.Neutrals = p.Neutrals[:0]
	p.Items = p.Items[:0]
	p.Hazards = p.Hazards[:0]
}

// MemoryEntry - запись о ранее виденной сущности.
type MemoryEntry struct {
	Position Vector3
	LastSeen float64 // Игровое время
}

// AIComponent - данные для принятия решений ИИ.
type AIComponent struct {
	Variant AIKind
	Enabled bool

	PerceptionRadius float64
	Perception       Perception
	memory           map[EntityID]MemoryEntry
	MemoryDuration   float64

	// Утилитарный ИИ. Порядок actionOrder задает разрешение ничьих:
	// при равных оценках побеждает раньше добавленное действие.
	actions         map[string]ActionSpec
	actionOrder     []string
	UtilityScores   map[string]float64
	CurrentActionID string
	ActionThreshold float64

	// Конечный автомат (заглушка)
	CurrentStateID  string
	PreviousStateID string

	// Боевые настройки
	Target              EntityID
	FleeHealthThreshold float64
	AttackCooldown      float64
	abilityCooldowns    map[string]float64

	// Текущая точка патруля (не сохраняется)
	PatrolGoal    Vector3
	HasPatrolGoal bool

	personality map[string]float64
}

// NewAI создает компонент утилитарного ИИ с дефолтной личностью.
func NewAI(kind AIKind) *AIComponent {
	ai := &AIComponent{
		Variant:             kind,
		Enabled:             true,
		PerceptionRadius:    DefaultPerceptionRadius,
		memory:              make(map[EntityID]MemoryEntry),
		MemoryDuration:      DefaultMemoryDuration,
		actions:             make(map[string]ActionSpec),
		UtilityScores:       make(map[string]float64),
		ActionThreshold:     DefaultActionThreshold,
		Target:              NoEntity,
		FleeHealthThreshold: DefaultFleeHealthThreshold,
		abilityCooldowns:    make(map[string]float64),
		personality:         make(map[string]float64, len(personalityTraits)),
	}
	for _, trait := range personalityTraits {
		ai.personality[trait] = 0.5
	}
	return ai
}

func (ai *AIComponent) Kind() ComponentKind { return KindAI }

// --- ЛИЧНОСТЬ ---

// Personality возвращает значение черты или 0.5 для неизвестной.
func (ai *AIComponent) Personality(trait string) float64 {
	if v, ok := ai.personality[trait]; ok {
		return v
	}
	return 0.5
}

// SetPersonality устанавливает черту с клампом в [0,1].
// Неизвестная черта - false.
func (ai *AIComponent) SetPersonality(trait string, value float64) bool {
	if _, ok := ai.personality[trait]; !ok {
		return false
	}
	ai.personality[trait] = clamp01(value)
	return true
}

// RandomizePersonality сдвигает каждую черту в пределах variance,
// результат остается в [0,1].
func (ai *AIComponent) RandomizePersonality(rng *rand.Rand, variance float64) {
	for _, trait := range personalityTraits {
		base := ai.personality[trait]
		lo := clamp01(base - variance)
		hi := clamp01(base + variance)
		ai.personality[trait] = lo + rng.Float64()*(hi-lo)
	}
}

// --- РЕПЕРТУАР ДЕЙСТВИЙ ---

// AddAction регистрирует действие. Порядок добавления фиксируется
// и используется при разрешении ничьих.
func (ai *AIComponent) AddAction(actionID string, spec ActionSpec) {
	if _, exists := ai.actions[actionID]; !exists {
		ai.actionOrder = append(ai.actionOrder, actionID)
	}
	ai.actions[actionID] = spec
}

// RemoveAction удаляет действие. Возвращает false, если его не было.
func (ai *AIComponent) RemoveAction(actionID string) bool {
	if _, ok := ai.actions[actionID]; !ok {
		return false
	}
	delete(ai.actions, actionID)
	for i, id := range ai.actionOrder {
		if id == actionID {
			ai.actionOrder = append(ai.actionOrder[:i], ai.actionOrder[i+1:]...)
			break
		}
	}
	return true
}

// Action возвращает параметры действия.
func (ai *AIComponent) Action(actionID string) (ActionSpec, bool) {
	spec, ok := ai.actions[actionID]
	return spec, ok
}

// ActionIDs возвращает идентификаторы в порядке добавления.
func (ai *AIComponent) ActionIDs() []string { return ai.actionOrder }

// --- ВОСПРИЯТИЕ И ПАМЯТЬ ---

// RememberEntity запоминает позицию сущности с отметкой времени.
func (ai *AIComponent) RememberEntity(id EntityID, pos Vector3, now float64) {
	ai.memory[id] = MemoryEntry{Position: pos, LastSeen: now}
}

// Recall возвращает запись памяти о сущности.
func (ai *AIComponent) Recall(id EntityID) (MemoryEntry, bool) {
	entry, ok := ai.memory[id]
	return entry, ok
}

// ForgetOldEntities выбрасывает записи старше MemoryDuration.
func (ai *AIComponent) ForgetOldEntities(now float64) int {
	forgotten := 0
	for id, entry := range ai.memory {
		if now-entry.LastSeen > ai.MemoryDuration {
			delete(ai.memory, id)
			forgotten++
		}
	}
	return forgotten
}

// Forget удаляет одну запись памяти.
func (ai *AIComponent) Forget(id EntityID) { delete(ai.memory, id) }

// MemorySize возвращает число записей памяти.
func (ai *AIComponent) MemorySize() int { return len(ai.memory) }

// NearestEnemy возвращает ближайшего врага из снимка восприятия.
func (ai *AIComponent) NearestEnemy() (PerceivedEntity, bool) {
	return nearestPerceived(ai.Perception.Enemies)
}

// NearestAlly возвращает ближайшего союзника из снимка восприятия.
func (ai *AIComponent) NearestAlly() (PerceivedEntity, bool) {
	return nearestPerceived(ai.Perception.Allies)
}

func nearestPerceived(list []PerceivedEntity) (PerceivedEntity, bool) {
	if len(list) == 0 {
		return PerceivedEntity{}, false
	}
	best := list[0]
	for _, p := range list[1:] {
		if p.Distance < best.Distance {
			best = p
		}
	}
	return best, true
}

// --- КУЛДАУНЫ ---

// UpdateCooldowns уменьшает кулдауны действия и способностей на dt.
func (ai *AIComponent) UpdateCooldowns(dt float64) {
	if ai.AttackCooldown > 0 {
		ai.AttackCooldown -= dt
		if ai.AttackCooldown < 0 {
			ai.AttackCooldown = 0
		}
	}
	for abilityID, remaining := range ai.abilityCooldowns {
		remaining -= dt
		if remaining <= 0 {
			delete(ai.abilityCooldowns, abilityID)
		} else {
			ai.abilityCooldowns[abilityID] = remaining
		}
	}
}

// StartAbilityCooldown запускает кулдаун для действия/способности.
func (ai *AIComponent) StartAbilityCooldown(abilityID string, duration float64) {
	if duration > 0 {
		ai.abilityCooldowns[abilityID] = duration
	}
}

// IsAbilityOnCooldown проверяет кулдаун способности.
func (ai *AIComponent) IsAbilityOnCooldown(abilityID string) bool {
	_, ok := ai.abilityCooldowns[abilityID]
	return ok
}

// --- УТИЛИТАРНЫЕ ОЦЕНКИ ---

// ShouldFlee решает, пора ли бежать: порог масштабируется храбростью,
// трус бежит раньше, храбрец держится до последнего.
func (ai *AIComponent) ShouldFlee(healthRatio float64) bool {
	adjusted := ai.FleeHealthThreshold * (1.0 - ai.Personality(TraitBravery))
	return healthRatio <= adjusted
}

// CalculateUtility оценивает действие в [0,1].
// targetStats и distance опциональны (nil / отрицательная дистанция).
// Действие на кулдауне или неизвестного типа оценивается в 0.
func (ai *AIComponent) CalculateUtility(actionID string, own *CharacterStatsComponent, target *CharacterStatsComponent, distance float64, rng *rand.Rand) float64 {
	spec, ok := ai.actions[actionID]
	if !ok {
		return 0
	}
	if ai.IsAbilityOnCooldown(actionID) {
		return 0
	}

	utility := 0.5
	healthRatio := own.HealthRatio()

	switch spec.Type {
	case ActionAttack:
		utility += ai.Personality(TraitAggression) * 0.3
		if target != nil {
			utility += (1.0 - target.HealthRatio()) * 0.2
		}
		if distance >= 0 {
			if distance <= spec.Range {
				utility += 0.2
			} else {
				utility -= 0.3
			}
		}
	case ActionDefend:
		utility += (1.0 - ai.Personality(TraitAggression)) * 0.3
		utility += (1.0 - healthRatio) * 0.3
	case ActionHeal:
		utility += (1.0 - healthRatio) * 0.6
	case ActionFlee:
		utility += (1.0 - healthRatio) * 0.4
		utility += (1.0 - ai.Personality(TraitBravery)) * 0.3
	case ActionPatrol:
		utility += ai.Personality(TraitCuriosity) * 0.2
		if len(ai.Perception.Enemies) > 0 {
			utility -= 0.4
		}
	case ActionFollow:
		utility += ai.Personality(TraitCooperation) * 0.3
		if len(ai.Perception.Allies) == 0 {
			utility -= 0.5
		}
	case ActionIdle:
		// Базовая оценка без корректировок
	default:
		// Неизвестный тип действия игнорируется
		return 0
	}

	// Умный ИИ чаще находит лучший вариант
	utility += rng.Float64() * ai.Personality(TraitIntelligence) * 0.2

	return clamp01(utility)
}

// SelectBestAction выбирает действие с максимальной оценкой строго выше
// порога. При равенстве побеждает раньше добавленное. Пустая строка -
// ни одно действие не прошло порог.
func (ai *AIComponent) SelectBestAction(own *CharacterStatsComponent, target *CharacterStatsComponent, distance float64, rng *rand.Rand) string {
	bestID := ""
	bestUtility := ai.ActionThreshold
	for _, actionID := range ai.actionOrder {
		utility := ai.CalculateUtility(actionID, own, target, distance, rng)
		ai.UtilityScores[actionID] = utility
		if utility > bestUtility {
			bestUtility = utility
			bestID = actionID
		}
	}
	return bestID
}

// --- СЕРИАЛИЗАЦИЯ ---

func (ai *AIComponent) Serialize() Record {
	actions := make([]any, 0, len(ai.actionOrder))
	for _, actionID := range ai.actionOrder {
		spec := ai.actions[actionID]
		actions = append(actions, map[string]any{
			"id":          actionID,
			"type":        string(spec.Type),
			"range":       spec.Range,
			"attack_type": int(spec.AttackType),
			"heal_type":   spec.HealType,
			"heal_amount": spec.HealAmount,
			"cooldown":    spec.Cooldown,
		})
	}
	traits := make(Record, len(ai.personality))
	for trait, v := range ai.personality {
		traits[trait] = v
	}
	return Record{
		"ai_type":               ai.Variant.String(),
		"enabled":               ai.Enabled,
		"perception_radius":     ai.PerceptionRadius,
		"memory_duration":       ai.MemoryDuration,
		"actions":               actions,
		"current_action_id":     ai.CurrentActionID,
		"action_threshold":      ai.ActionThreshold,
		"current_state_id":      ai.CurrentStateID,
		"previous_state_id":     ai.PreviousStateID,
		"target":                ai.Target.Decimal(),
		"flee_health_threshold": ai.FleeHealthThreshold,
		"personality":           traits,
	}
}

// DeserializeAI восстанавливает компонент ИИ из записи.
// Восприятие, память и кулдауны не сохраняются: они перестраиваются
// живой симуляцией.
func DeserializeAI(data Record) *AIComponent {
	ai := NewAI(ParseAIKind(recString(data, "ai_type", "utility")))
	ai.Enabled = recBool(data, "enabled", true)
	ai.PerceptionRadius = recFloat(data, "perception_radius", DefaultPerceptionRadius)
	ai.MemoryDuration = recFloat(data, "memory_duration", DefaultMemoryDuration)
	if rawList, ok := data["actions"].([]any); ok {
		for _, raw := range rawList {
			rec, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			actionID := recString(rec, "id", "")
			if actionID == "" {
				continue
			}
			ai.AddAction(actionID, ActionSpec{
				Type:       ActionType(recString(rec, "type", string(ActionIdle))),
				Range:      recFloat(rec, "range", 1.0),
				AttackType: AttackType(recInt(rec, "attack_type", int(AttackMelee))),
				HealType:   recString(rec, "heal_type", "self"),
				HealAmount: recFloat(rec, "heal_amount", 0),
				Cooldown:   recFloat(rec, "cooldown", 0),
			})
		}
	}
	ai.CurrentActionID = recString(data, "current_action_id", "")
	ai.ActionThreshold = recFloat(data, "action_threshold", DefaultActionThreshold)
	ai.CurrentStateID = recString(data, "current_state_id", "")
	ai.PreviousStateID = recString(data, "previous_state_id", "")
	if id, err := ParseEntityID(recString(data, "target", "0")); err == nil {
		ai.Target = id
	}
	ai.FleeHealthThreshold = recFloat(data, "flee_health_threshold", DefaultFleeHealthThreshold)
	for trait, raw := range recRecord(data, "personality") {
		if v, ok := raw.(float64); ok {
			ai.SetPersonality(trait, v)
		}
	}
	return ai
}
