package domain

import "strconv"

// --- БОЕВЫЕ ПЕРЕЧИСЛЕНИЯ ---

// CombatStance - боевая стойка.
type CombatStance int

const (
	StanceNeutral CombatStance = iota
	StanceAggressive
	StanceDefensive
)

func (s CombatStance) String() string {
	switch s {
	case StanceAggressive:
		return "aggressive"
	case StanceDefensive:
		return "defensive"
	default:
		return "neutral"
	}
}

// StanceFromString - обратное преобразование для команд извне.
func StanceFromString(s string) (CombatStance, bool) {
	switch s {
	case "neutral":
		return StanceNeutral, true
	case "aggressive":
		return StanceAggressive, true
	case "defensive":
		return StanceDefensive, true
	default:
		return StanceNeutral, false
	}
}

// AttackType - тип атаки.
type AttackType int

const (
	AttackMelee AttackType = iota
	AttackRanged
	AttackSpell
)

func (t AttackType) String() string {
	switch t {
	case AttackRanged:
		return "ranged"
	case AttackSpell:
		return "spell"
	default:
		return "melee"
	}
}

// Дефолтные боевые параметры
const (
	DefaultMeleeRange         = 1.5
	DefaultRangedRange        = 10.0
	DefaultSpellRange         = 8.0
	DefaultGlobalCooldown     = 1.0
	DefaultAutoAttackInterval = 2.0
	DefaultOpportunityAttacks = 3
)

// CombatComponent - боевое состояние сущности.
// Все отметки времени - игровое время мира, не настенные часы.
type CombatComponent struct {
	// Состояние боя
	InCombat             bool
	CombatStartTime      float64
	LastCombatActionTime float64
	LastDamageTakenTime  float64
	LastDamageDealtTime  float64

	// Боевые свойства
	Stance                  CombatStance
	PreferredAttackType     AttackType
	attackCooldowns         map[string]float64
	GlobalCooldown          float64
	OpportunityAttacks      int
	OpportunityAttacksUsed  int

	// Цели и угроза
	CurrentTarget EntityID
	targetedBy    map[EntityID]struct{}
	threatTable   map[EntityID]float64

	// Статистика текущей сессии
	DamageDealt   float64
	DamageTaken   float64
	HealingDone   float64
	CriticalHits  int
	AttacksLanded int
	AttacksMissed int
	Kills         int

	// Временные боевые модификаторы
	DamageMultiplier   float64
	DefenseMultiplier  float64
	CritChanceBonus    float64
	DodgeChanceBonus   float64

	// Дистанции атак в тайлах
	MeleeRange  float64
	RangedRange float64
	SpellRange  float64

	// Автоатака
	AutoAttackEnabled  bool
	AutoAttackInterval float64
	LastAutoAttackTime float64
}

// NewCombat создает боевой компонент с дефолтными настройками.
func NewCombat() *CombatComponent {
	return &CombatComponent{
		Stance:              StanceNeutral,
		PreferredAttackType: AttackMelee,
		attackCooldowns:     make(map[string]float64),
		OpportunityAttacks:  DefaultOpportunityAttacks,
		CurrentTarget:       NoEntity,
		targetedBy:          make(map[EntityID]struct{}),
		threatTable:         make(map[EntityID]float64),
		DamageMultiplier:    1.0,
		DefenseMultiplier:   1.0,
		MeleeRange:          DefaultMeleeRange,
		RangedRange:         DefaultRangedRange,
		SpellRange:          DefaultSpellRange,
		AutoAttackInterval:  DefaultAutoAttackInterval,
	}
}

func (c *CombatComponent) Kind() ComponentKind { return KindCombat }

// --- СОСТОЯНИЕ БОЯ ---

// EnterCombat переводит сущность в бой. Возвращает false, если уже в бою.
func (c *CombatComponent) EnterCombat(now float64) bool {
	if c.InCombat {
		return false
	}
	c.InCombat = true
	c.CombatStartTime = now
	c.OpportunityAttacksUsed = 0
	return true
}

// ExitCombat выводит сущность из боя, очищая цель и таблицу угрозы.
func (c *CombatComponent) ExitCombat() bool {
	if !c.InCombat {
		return false
	}
	c.InCombat = false
	c.CurrentTarget = NoEntity
	c.ResetThreat()
	return true
}

// TimeSinceLastCombatAction возвращает время с последнего боевого действия.
func (c *CombatComponent) TimeSinceLastCombatAction(now float64) float64 {
	return now - c.LastCombatActionTime
}

// TimeInCombat возвращает длительность текущего боя или 0 вне боя.
func (c *CombatComponent) TimeInCombat(now float64) float64 {
	if !c.InCombat {
		return 0
	}
	return now - c.CombatStartTime
}

// --- ЦЕЛИ И УГРОЗА ---

// SetTarget устанавливает текущую цель.
func (c *CombatComponent) SetTarget(target EntityID) { c.CurrentTarget = target }

// ClearTarget сбрасывает текущую цель.
func (c *CombatComponent) ClearTarget() { c.CurrentTarget = NoEntity }

// AddTargetedBy отмечает, что сущность id целится в нас.
func (c *CombatComponent) AddTargetedBy(id EntityID) { c.targetedBy[id] = struct{}{} }

// RemoveTargetedBy снимает отметку о нацеливании.
func (c *CombatComponent) RemoveTargetedBy(id EntityID) { delete(c.targetedBy, id) }

// IsTargetedBy проверяет, целится ли в нас сущность id.
func (c *CombatComponent) IsTargetedBy(id EntityID) bool {
	_, ok := c.targetedBy[id]
	return ok
}

// TargetedByCount возвращает число сущностей, целящихся в нас.
func (c *CombatComponent) TargetedByCount() int { return len(c.targetedBy) }

// AddThreat накапливает угрозу от сущности. Отрицательные значения
// уменьшают угрозу, но итог никогда не уходит ниже нуля.
func (c *CombatComponent) AddThreat(id EntityID, amount float64) {
	total := c.threatTable[id] + amount
	if total <= 0 {
		delete(c.threatTable, id)
		return
	}
	c.threatTable[id] = total
}

// Threat возвращает накопленную угрозу от сущности.
func (c *CombatComponent) Threat(id EntityID) float64 { return c.threatTable[id] }

// HighestThreat возвращает сущность с максимальной угрозой.
// При пустой таблице - (NoEntity, 0).
func (c *CombatComponent) HighestThreat() (EntityID, float64) {
	best := NoEntity
	bestThreat := 0.0
	for id, threat := range c.threatTable {
		if threat > bestThreat || (threat == bestThreat && best != NoEntity && id < best) {
			best = id
			bestThreat = threat
		}
	}
	return best, bestThreat
}

// ResetThreat очищает таблицу угрозы.
func (c *CombatComponent) ResetThreat() {
	c.threatTable = make(map[EntityID]float64)
}

// --- КУЛДАУНЫ ---

// UpdateCooldowns уменьшает все кулдауны на dt. Истекшие удаляются.
func (c *CombatComponent) UpdateCooldowns(dt float64) {
	if c.GlobalCooldown > 0 {
		c.GlobalCooldown -= dt
		if c.GlobalCooldown < 0 {
			c.GlobalCooldown = 0
		}
	}
	for attackID, remaining := range c.attackCooldowns {
		remaining -= dt
		if remaining <= 0 {
			delete(c.attackCooldowns, attackID)
		} else {
			c.attackCooldowns[attackID] = remaining
		}
	}
}

// IsOnCooldown проверяет кулдаун атаки с учетом глобального кулдауна.
func (c *CombatComponent) IsOnCooldown(attackID string) bool {
	if c.GlobalCooldown > 0 {
		return true
	}
	_, ok := c.attackCooldowns[attackID]
	return ok
}

// StartCooldown запускает кулдаун для атаки.
func (c *CombatComponent) StartCooldown(attackID string, duration float64) {
	c.attackCooldowns[attackID] = duration
}

// StartGlobalCooldown запускает общий кулдаун.
func (c *CombatComponent) StartGlobalCooldown(duration float64) {
	c.GlobalCooldown = duration
}

// --- АТАКИ ПО ВОЗМОЖНОСТИ ---

// CanUseOpportunityAttack проверяет остаток атак по возможности.
func (c *CombatComponent) CanUseOpportunityAttack() bool {
	return c.OpportunityAttacksUsed < c.OpportunityAttacks
}

// UseOpportunityAttack тратит атаку по возможности.
// Возвращает false, если лимит исчерпан.
func (c *CombatComponent) UseOpportunityAttack() bool {
	if !c.CanUseOpportunityAttack() {
		return false
	}
	c.OpportunityAttacksUsed++
	return true
}

// --- СТАТИСТИКА ---

// RecordDamageDealt фиксирует нанесенный урон и попадание.
func (c *CombatComponent) RecordDamageDealt(amount float64, critical bool, now float64) {
	c.DamageDealt += amount
	c.AttacksLanded++
	c.LastDamageDealtTime = now
	if critical {
		c.CriticalHits++
	}
}

// RecordDamageTaken фиксирует полученный урон.
func (c *CombatComponent) RecordDamageTaken(amount, now float64) {
	c.DamageTaken += amount
	c.LastDamageTakenTime = now
}

// RecordHealingDone фиксирует выполненное лечение.
func (c *CombatComponent) RecordHealingDone(amount float64) {
	c.HealingDone += amount
}

// RecordAttackMissed фиксирует промах.
func (c *CombatComponent) RecordAttackMissed() { c.AttacksMissed++ }

// RecordKill фиксирует убийство.
func (c *CombatComponent) RecordKill() { c.Kills++ }

// --- АВТОАТАКА ---

// ShouldAutoAttack проверяет, пора ли выполнять автоатаку.
func (c *CombatComponent) ShouldAutoAttack(now float64) bool {
	if !c.AutoAttackEnabled || !c.InCombat || c.CurrentTarget == NoEntity {
		return false
	}
	return now-c.LastAutoAttackTime >= c.AutoAttackInterval
}

// --- ДИСТАНЦИИ ---

// AttackRange возвращает дистанцию для типа атаки.
func (c *CombatComponent) AttackRange(attackType AttackType) float64 {
	switch attackType {
	case AttackRanged:
		return c.RangedRange
	case AttackSpell:
		return c.SpellRange
	default:
		return c.MeleeRange
	}
}

// PreferredRange возвращает дистанцию предпочитаемого типа атаки.
func (c *CombatComponent) PreferredRange() float64 {
	return c.AttackRange(c.PreferredAttackType)
}

// --- СЕРИАЛИЗАЦИЯ ---

func (c *CombatComponent) Serialize() Record {
	cooldowns := make(Record, len(c.attackCooldowns))
	for attackID, remaining := range c.attackCooldowns {
		cooldowns[attackID] = remaining
	}
	// ID всегда в десятичных строках: float64 теряет точность выше 2^53
	targetedBy := make([]any, 0, len(c.targetedBy))
	for id := range c.targetedBy {
		targetedBy = append(targetedBy, id.Decimal())
	}
	threat := make(Record, len(c.threatTable))
	for id, value := range c.threatTable {
		threat[strconv.FormatUint(uint64(id), 10)] = value
	}
	return Record{
		"in_combat":                c.InCombat,
		"combat_start_time":        c.CombatStartTime,
		"last_combat_action_time":  c.LastCombatActionTime,
		"stance":                   int(c.Stance),
		"preferred_attack_type":    int(c.PreferredAttackType),
		"attack_cooldowns":         cooldowns,
		"global_cooldown":          c.GlobalCooldown,
		"opportunity_attacks":      c.OpportunityAttacks,
		"opportunity_attacks_used": c.OpportunityAttacksUsed,
		"current_target":           c.CurrentTarget.Decimal(),
		"targeted_by":              targetedBy,
		"threat_table":             threat,
		"damage_dealt":             c.DamageDealt,
		"damage_taken":             c.DamageTaken,
		"healing_done":             c.HealingDone,
		"critical_hits":            c.CriticalHits,
		"attacks_landed":           c.AttacksLanded,
		"attacks_missed":           c.AttacksMissed,
		"kills":                    c.Kills,
		"damage_multiplier":        c.DamageMultiplier,
		"defense_multiplier":       c.DefenseMultiplier,
		"crit_chance_bonus":        c.CritChanceBonus,
		"dodge_chance_bonus":       c.DodgeChanceBonus,
		"melee_range":              c.MeleeRange,
		"ranged_range":             c.RangedRange,
		"spell_range":              c.SpellRange,
		"auto_attack_enabled":      c.AutoAttackEnabled,
		"auto_attack_interval":     c.AutoAttackInterval,
	}
}

// DeserializeCombat восстанавливает боевой компонент из записи.
func DeserializeCombat(data Record) *CombatComponent {
	c := NewCombat()
	c.InCombat = recBool(data, "in_combat", false)
	c.CombatStartTime = recFloat(data, "combat_start_time", 0)
	c.LastCombatActionTime = recFloat(data, "last_combat_action_time", 0)
	c.Stance = CombatStance(recInt(data, "stance", int(StanceNeutral)))
	c.PreferredAttackType = AttackType(recInt(data, "preferred_attack_type", int(AttackMelee)))
	for attackID, raw := range recRecord(data, "attack_cooldowns") {
		if remaining, ok := raw.(float64); ok && remaining > 0 {
			c.attackCooldowns[attackID] = remaining
		}
	}
	c.GlobalCooldown = recFloat(data, "global_cooldown", 0)
	c.OpportunityAttacks = recInt(data, "opportunity_attacks", DefaultOpportunityAttacks)
	c.OpportunityAttacksUsed = recInt(data, "opportunity_attacks_used", 0)
	if id, err := ParseEntityID(recString(data, "current_target", "0")); err == nil {
		c.CurrentTarget = id
	}
	if rawList, ok := data["targeted_by"].([]any); ok {
		for _, raw := range rawList {
			s, ok := raw.(string)
			if !ok {
				continue
			}
			if id, err := ParseEntityID(s); err == nil && id.IsValid() {
				c.targetedBy[id] = struct{}{}
			}
		}
	}
	for key, raw := range recRecord(data, "threat_table") {
		value, ok := raw.(float64)
		if !ok || value <= 0 {
			continue
		}
		if id, err := ParseEntityID(key); err == nil {
			c.threatTable[id] = value
		}
	}
	c.DamageDealt = recFloat(data, "damage_dealt", 0)
	c.DamageTaken = recFloat(data, "damage_taken", 0)
	c.HealingDone = recFloat(data, "healing_done", 0)
	c.CriticalHits = recInt(data, "critical_hits", 0)
	c.AttacksLanded = recInt(data, "attacks_landed", 0)
	c.AttacksMissed = recInt(data, "attacks_missed", 0)
	c.Kills = recInt(data, "kills", 0)
	c.DamageMultiplier = recFloat(data, "damage_multiplier", 1.0)
	c.DefenseMultiplier = recFloat(data, "defense_multiplier", 1.0)
	c.CritChanceBonus = recFloat(data, "crit_chance_bonus", 0)
	c.DodgeChanceBonus = recFloat(data, "dodge_chance_bonus", 0)
	c.MeleeRange = recFloat(data, "melee_range", DefaultMeleeRange)
	c.RangedRange = recFloat(data, "ranged_range", DefaultRangedRange)
	c.SpellRange = recFloat(data, "spell_range", DefaultSpellRange)
	c.AutoAttackEnabled = recBool(data, "auto_attack_enabled", false)
	c.AutoAttackInterval = recFloat(data, "auto_attack_interval", DefaultAutoAttackInterval)
	return c
}
