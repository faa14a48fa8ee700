package domain

// Имена базовых характеристик
const (
	StatStrength      = "strength"
	StatDexterity     = "dexterity"
	StatConstitution  = "constitution"
	StatIntelligence  = "intelligence"
	StatWisdom        = "wisdom"
	StatCharisma      = "charisma"
	StatMaxHealth     = "max_health"
	StatMaxMana       = "max_mana"
	StatArmorClass    = "armor_class"
	StatAttackPower   = "attack_power"
	StatAttackSpeed   = "attack_speed"
	StatMovementSpeed = "movement_speed"
)

// StatModifier - временная правка одной характеристики.
// Duration < 0 означает постоянный модификатор.
type StatModifier struct {
	Stat      string
	Value     float64
	Duration  float64
	AppliedAt float64 // Игровое время применения
}

// StatusEffect - статусный эффект ("poison", "stun", ...).
// Duration < 0 означает постоянный эффект.
type StatusEffect struct {
	Type      string
	Strength  float64
	Duration  float64
	AppliedAt float64
}

// CharacterStatsComponent - характеристики и ресурсы персонажа.
// Инвариант: current всегда ПОЛНОСТЬЮ пересчитывается из base + активные
// модификаторы, никакого инкрементального дрейфа.
type CharacterStatsComponent struct {
	base    map[string]float64
	current map[string]float64

	modifiers     map[string]StatModifier
	statusEffects map[string]StatusEffect

	Health float64
	Mana   float64
}

// DefaultBaseStats возвращает стартовый набор характеристик.
func DefaultBaseStats() map[string]float64 {
	return map[string]float64{
		StatStrength:      10,
		StatDexterity:     10,
		StatConstitution:  10,
		StatIntelligence:  10,
		StatWisdom:        10,
		StatCharisma:      10,
		StatMaxHealth:     100,
		StatMaxMana:       100,
		StatArmorClass:    10,
		StatAttackPower:   10,
		StatAttackSpeed:   1.0,
		StatMovementSpeed: 3.0,
	}
}

// NewCharacterStats создает компонент. base == nil дает дефолтный набор.
func NewCharacterStats(base map[string]float64) *CharacterStatsComponent {
	if base == nil {
		base = DefaultBaseStats()
	}
	s := &CharacterStatsComponent{
		base:          base,
		modifiers:     make(map[string]StatModifier),
		statusEffects: make(map[string]StatusEffect),
	}
	s.recompute()
	s.Health = s.current[StatMaxHealth]
	s.Mana = s.current[StatMaxMana]
	return s
}

func (s *CharacterStatsComponent) Kind() ComponentKind { return KindCharacterStats }

// --- ХАРАКТЕРИСТИКИ ---

// Base возвращает базовое значение характеристики.
func (s *CharacterStatsComponent) Base(stat string) float64 {
	return s.base[stat]
}

// SetBase меняет базовое значение и пересчитывает current.
func (s *CharacterStatsComponent) SetBase(stat string, value float64) {
	s.base[stat] = value
	s.recompute()
	s.clampResources()
}

// Current возвращает текущее значение (base + модификаторы).
func (s *CharacterStatsComponent) Current(stat string) float64 {
	return s.current[stat]
}

// CurrentOr возвращает текущее значение или def, если характеристики нет.
func (s *CharacterStatsComponent) CurrentOr(stat string, def float64) float64 {
	if v, ok := s.current[stat]; ok {
		return v
	}
	return def
}

// recompute сбрасывает current к base и накатывает все модификаторы заново
func (s *CharacterStatsComponent) recompute() {
	s.current = make(map[string]float64, len(s.base))
	for stat, v := range s.base {
		s.current[stat] = v
	}
	for _, mod := range s.modifiers {
		if _, ok := s.current[mod.Stat]; ok {
			s.current[mod.Stat] += mod.Value
		}
	}
}

// clampResources удерживает ресурсы в [0, max] после любого пересчета
func (s *CharacterStatsComponent) clampResources() {
	s.Health = clamp(s.Health, 0, s.current[StatMaxHealth])
	s.Mana = clamp(s.Mana, 0, s.current[StatMaxMana])
}

// --- МОДИФИКАТОРЫ ---

// AddModifier добавляет модификатор характеристики и сразу применяет его.
// duration < 0 - постоянный. now - игровое время.
func (s *CharacterStatsComponent) AddModifier(id, stat string, value, duration, now float64) {
	s.modifiers[id] = StatModifier{Stat: stat, Value: value, Duration: duration, AppliedAt: now}
	s.recompute()
	s.clampResources()
}

// RemoveModifier убирает модификатор. Возвращает false, если его не было.
func (s *CharacterStatsComponent) RemoveModifier(id string) bool {
	if _, ok := s.modifiers[id]; !ok {
		return false
	}
	delete(s.modifiers, id)
	s.recompute()
	s.clampResources()
	return true
}

// ExpireModifiers удаляет модификаторы с истекшим сроком.
// Возвращает количество удаленных.
func (s *CharacterStatsComponent) ExpireModifiers(now float64) int {
	expired := 0
	for id, mod := range s.modifiers {
		if mod.Duration >= 0 && now-mod.AppliedAt >= mod.Duration {
			delete(s.modifiers, id)
			expired++
		}
	}
	if expired > 0 {
		s.recompute()
		s.clampResources()
	}
	return expired
}

// --- СТАТУСНЫЕ ЭФФЕКТЫ ---

// AddStatusEffect вешает эффект. duration < 0 - постоянный.
func (s *CharacterStatsComponent) AddStatusEffect(id, effectType string, strength, duration, now float64) {
	s.statusEffects[id] = StatusEffect{Type: effectType, Strength: strength, Duration: duration, AppliedAt: now}
}

// RemoveStatusEffect снимает эффект. Возвращает false, если его не было.
func (s *CharacterStatsComponent) RemoveStatusEffect(id string) bool {
	if _, ok := s.statusEffects[id]; !ok {
		return false
	}
	delete(s.statusEffects, id)
	return true
}

// ExpireStatusEffects удаляет эффекты с истекшим сроком.
func (s *CharacterStatsComponent) ExpireStatusEffects(now float64) int {
	expired := 0
	for id, eff := range s.statusEffects {
		if eff.Duration >= 0 && now-eff.AppliedAt >= eff.Duration {
			delete(s.statusEffects, id)
			expired++
		}
	}
	return expired
}

// HasStatusEffect проверяет наличие эффекта заданного типа.
func (s *CharacterStatsComponent) HasStatusEffect(effectType string) bool {
	for _, eff := range s.statusEffects {
		if eff.Type == effectType {
			return true
		}
	}
	return false
}

// StatusEffectStrength возвращает максимальную силу эффекта типа или 0.
func (s *CharacterStatsComponent) StatusEffectStrength(effectType string) float64 {
	max := 0.0
	for _, eff := range s.statusEffects {
		if eff.Type == effectType && eff.Strength > max {
			max = eff.Strength
		}
	}
	return max
}

// --- РЕСУРСЫ ---

// TakeDamage снимает здоровье. Возвращает фактически нанесенный урон.
func (s *CharacterStatsComponent) TakeDamage(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	before := s.Health
	s.Health = clamp(s.Health-amount, 0, s.current[StatMaxHealth])
	return before - s.Health
}

// Heal восстанавливает здоровье. Возвращает фактически восстановленное.
func (s *CharacterStatsComponent) Heal(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	before := s.Health
	s.Health = clamp(s.Health+amount, 0, s.current[StatMaxHealth])
	return s.Health - before
}

// UseMana тратит ману. Возвращает false, если не хватило.
func (s *CharacterStatsComponent) UseMana(amount float64) bool {
	if amount < 0 {
		amount = 0
	}
	if s.Mana < amount {
		return false
	}
	s.Mana -= amount
	return true
}

// RestoreMana восстанавливает ману. Возвращает фактически восстановленное.
func (s *CharacterStatsComponent) RestoreMana(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	before := s.Mana
	s.Mana = clamp(s.Mana+amount, 0, s.current[StatMaxMana])
	return s.Mana - before
}

// IsAlive проверяет, жив ли персонаж.
func (s *CharacterStatsComponent) IsAlive() bool {
	return s.Health > 0
}

// HealthRatio возвращает долю здоровья [0,1].
func (s *CharacterStatsComponent) HealthRatio() float64 {
	max := s.current[StatMaxHealth]
	if max <= 0 {
		return 0
	}
	return s.Health / max
}

// --- СЕРИАЛИЗАЦИЯ ---

func (s *CharacterStatsComponent) Serialize() Record {
	mods := make(Record, len(s.modifiers))
	for id, m := range s.modifiers {
		mods[id] = map[string]any{
			"stat":       m.Stat,
			"value":      m.Value,
			"duration":   m.Duration,
			"applied_at": m.AppliedAt,
		}
	}
	effects := make(Record, len(s.statusEffects))
	for id, e := range s.statusEffects {
		effects[id] = map[string]any{
			"type":       e.Type,
			"strength":   e.Strength,
			"duration":   e.Duration,
			"applied_at": e.AppliedAt,
		}
	}
	base := make(Record, len(s.base))
	for stat, v := range s.base {
		base[stat] = v
	}
	return Record{
		"base_stats":     base,
		"modifiers":      mods,
		"status_effects": effects,
		"health":         s.Health,
		"mana":           s.Mana,
	}
}

// DeserializeCharacterStats восстанавливает компонент из записи.
// current пересчитывается заново, в снапшоте он не хранится.
func DeserializeCharacterStats(data Record) *CharacterStatsComponent {
	base := recFloatMap(data, "base_stats")
	if len(base) == 0 {
		base = DefaultBaseStats()
	}
	s := NewCharacterStats(base)

	for id, raw := range recRecord(data, "modifiers") {
		rec, _ := raw.(map[string]any)
		s.modifiers[id] = StatModifier{
			Stat:      recString(rec, "stat", ""),
			Value:     recFloat(rec, "value", 0),
			Duration:  recFloat(rec, "duration", -1),
			AppliedAt: recFloat(rec, "applied_at", 0),
		}
	}
	for id, raw := range recRecord(data, "status_effects") {
		rec, _ := raw.(map[string]any)
		s.statusEffects[id] = StatusEffect{
			Type:      recString(rec, "type", ""),
			Strength:  recFloat(rec, "strength", 1),
			Duration:  recFloat(rec, "duration", -1),
			AppliedAt: recFloat(rec, "applied_at", 0),
		}
	}
	s.recompute()
	s.Health = recFloat(data, "health", s.current[StatMaxHealth])
	s.Mana = recFloat(data, "mana", s.current[StatMaxMana])
	s.clampResources()
	return s
}
