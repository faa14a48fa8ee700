package systems

import (
	"github.com/sirupsen/logrus"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/internal/events"
	"github.com/Drew-source/isometric-rpg/internal/spatial"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

// Базовые шансы боевой математики
const (
	baseHitChance      = 0.8
	baseDodgeChance    = 0.05
	baseCritChance     = 0.05
	baseCritMultiplier = 1.5

	// Кулдаун одиночной атаки
	DefaultAttackCooldown = 2.0
)

// AttackOutcome - результат разрешения одной атаки.
type AttackOutcome struct {
	Performed bool
	Hit       bool
	Critical  bool
	Damage    float64
	Killed    bool
}

// CombatSystem разрешает атаки и ведет боевое состояние сущностей.
type CombatSystem struct {
	grid *spatial.Grid
	cfg  engine.Config
}

// NewCombatSystem создает боевую систему поверх пространственной сетки.
func NewCombatSystem(grid *spatial.Grid, cfg engine.Config) *CombatSystem {
	return &CombatSystem{grid: grid, cfg: cfg}
}

func (s *CombatSystem) Name() string { return "combat" }

// Priority ниже пространственной системы: запросы окружения должны
// видеть свежую сетку.
func (s *CombatSystem) Priority() int { return 50 }

// Update ведет кулдауны, автоатаки и машину состояний бой/не-бой.
func (s *CombatSystem) Update(w *engine.World, dt float64) {
	now := w.GameTime()
	for _, id := range w.EntitiesWith(domain.KindCombat) {
		e := w.Entity(id)
		combat := e.Combat()

		combat.UpdateCooldowns(dt)

		// Автоатака: цель жива и в пределах дистанции предпочитаемого
		// типа атаки
		if combat.ShouldAutoAttack(now) {
			s.processAutoAttack(w, id, combat, now)
		}

		s.updateCombatState(w, id, e, combat, now)
	}
}

func (s *CombatSystem) processAutoAttack(w *engine.World, id domain.EntityID, combat *domain.CombatComponent, now float64) {
	target := combat.CurrentTarget
	if w.Entity(target) == nil {
		combat.ClearTarget()
		return
	}
	if !s.inAttackRange(w, id, target, combat.PreferredAttackType) {
		return
	}
	combat.LastAutoAttackTime = now
	s.PerformAttack(w, id, target, "auto_attack")
}

func (s *CombatSystem) updateCombatState(w *engine.World, id domain.EntityID, e *domain.Entity, combat *domain.CombatComponent, now float64) {
	// Цель есть, но сущность вне боя - входим
	if !combat.InCombat && combat.CurrentTarget != domain.NoEntity {
		s.enterCombat(w, id, combat)
		return
	}
	if !combat.InCombat {
		return
	}

	// Автовыход: долгое затишье И никого враждебного поблизости
	idle := combat.TimeSinceLastCombatAction(now) > s.cfg.CombatExitTime
	disengaged := combat.CurrentTarget == domain.NoEntity && combat.TargetedByCount() == 0

	if (idle || disengaged) && !s.hasNearbyCombatants(w, id, e) {
		s.ExitCombat(w, id)
	}
}

// hasNearbyCombatants проверяет живых боеспособных соседей в радиусе
// обнаружения.
func (s *CombatSystem) hasNearbyCombatants(w *engine.World, id domain.EntityID, e *domain.Entity) bool {
	t := e.Transform()
	if t == nil {
		return false
	}
	for _, other := range s.grid.QueryRange(t.Position.X, t.Position.Y, s.cfg.CombatDetectionRange) {
		if other == id {
			continue
		}
		oe := w.Entity(other)
		if oe == nil || !oe.HasComponent(domain.KindCombat) {
			continue
		}
		if stats := oe.Stats(); stats != nil && !stats.IsAlive() {
			continue
		}
		return true
	}
	return false
}

// PerformAttack разрешает атаку. Порядок побочных эффектов жесткий:
// вход в бой, нацеливание и кулдауны происходят ДО броска на попадание,
// промах все равно считается боевым действием.
func (s *CombatSystem) PerformAttack(w *engine.World, attackerID, targetID domain.EntityID, attackID string) AttackOutcome {
	return s.resolveAttack(w, attackerID, targetID, attackID, false)
}

// PerformOpportunityAttack тратит атаку по возможности и бьет в обход
// кулдаунов. Исчерпанный лимит - no-op.
func (s *CombatSystem) PerformOpportunityAttack(w *engine.World, attackerID, targetID domain.EntityID) AttackOutcome {
	attacker := w.Entity(attackerID)
	if attacker == nil {
		return AttackOutcome{}
	}
	combat := attacker.Combat()
	if combat == nil || !combat.UseOpportunityAttack() {
		return AttackOutcome{}
	}
	w.Bus().Emit(events.Event{
		Type:   events.OpportunityAttackUsed,
		Entity: attackerID,
		Source: targetID,
		Time:   w.GameTime(),
	})
	return s.resolveAttack(w, attackerID, targetID, "opportunity_attack", true)
}

func (s *CombatSystem) resolveAttack(w *engine.World, attackerID, targetID domain.EntityID, attackID string, ignoreCooldowns bool) AttackOutcome {
	combatLogger := logger.Log.WithFields(logrus.Fields{
		"module":   "combat",
		"attacker": attackerID,
		"target":   targetID,
		"attack":   attackID,
	})

	attacker := w.Entity(attackerID)
	target := w.Entity(targetID)
	if attacker == nil || target == nil {
		return AttackOutcome{}
	}
	attackerCombat := attacker.Combat()
	attackerStats := attacker.Stats()
	targetCombat := target.Combat()
	targetStats := target.Stats()
	if attackerCombat == nil || attackerStats == nil || targetCombat == nil || targetStats == nil {
		return AttackOutcome{}
	}

	// Предусловия: кулдаун и живая цель
	if !ignoreCooldowns && attackerCombat.IsOnCooldown(attackID) {
		combatLogger.Debug("Атака отклонена: кулдаун")
		return AttackOutcome{}
	}
	if !targetStats.IsAlive() {
		combatLogger.Debug("Атака отклонена: цель мертва")
		return AttackOutcome{}
	}

	now := w.GameTime()

	// Побочные эффекты до броска
	s.enterCombat(w, attackerID, attackerCombat)
	s.enterCombat(w, targetID, targetCombat)

	attackerCombat.SetTarget(targetID)
	targetCombat.AddTargetedBy(attackerID)
	attackerCombat.LastCombatActionTime = now

	if !ignoreCooldowns {
		attackerCombat.StartCooldown(attackID, DefaultAttackCooldown)
		attackerCombat.StartGlobalCooldown(s.cfg.GlobalCooldown)
	}

	w.Bus().Emit(events.Event{
		Type:     events.AttackStarted,
		Entity:   targetID,
		Source:   attackerID,
		ActionID: attackID,
		Time:     now,
	})

	// Бросок на попадание
	hitChance := HitChance(attackerStats, targetStats, attackerCombat, targetCombat)
	if w.RNG().Float64() > hitChance {
		attackerCombat.RecordAttackMissed()
		w.Bus().Emit(events.Event{
			Type:     events.AttackMissed,
			Entity:   targetID,
			Source:   attackerID,
			ActionID: attackID,
			Time:     now,
		})
		return AttackOutcome{Performed: true}
	}

	// Крит и урон
	critChance := CritChance(attackerStats, attackerCombat)
	isCritical := w.RNG().Float64() <= critChance

	damage := Damage(attackerStats, targetStats, attackerCombat, targetCombat, isCritical, w.RNG().Float64())
	actual := targetStats.TakeDamage(damage)

	attackerCombat.RecordDamageDealt(actual, isCritical, now)
	targetCombat.RecordDamageTaken(actual, now)
	targetCombat.AddThreat(attackerID, actual)

	w.Bus().Emit(events.Event{
		Type:   events.HealthChanged,
		Entity: targetID,
		Source: attackerID,
		Amount: -actual,
		Time:   now,
	})
	w.Bus().Emit(events.Event{
		Type:   events.ThreatChanged,
		Entity: targetID,
		Source: attackerID,
		Amount: actual,
		Time:   now,
	})
	w.Bus().Emit(events.Event{
		Type:     events.AttackLanded,
		Entity:   targetID,
		Source:   attackerID,
		ActionID: attackID,
		Amount:   actual,
		Critical: isCritical,
		Time:     now,
	})

	outcome := AttackOutcome{Performed: true, Hit: true, Critical: isCritical, Damage: actual}

	if !targetStats.IsAlive() {
		outcome.Killed = true
		s.handleDeath(w, targetID, attackerID)
	}
	return outcome
}

// handleDeath фиксирует убийство и вычищает боевые ссылки на мертвеца.
func (s *CombatSystem) handleDeath(w *engine.World, deadID, killerID domain.EntityID) {
	if killer := w.Entity(killerID); killer != nil {
		if kc := killer.Combat(); kc != nil {
			kc.RecordKill()
		}
	}

	for _, id := range w.EntitiesWith(domain.KindCombat) {
		if id == deadID {
			continue
		}
		c := w.Entity(id).Combat()
		c.RemoveTargetedBy(deadID)
		if c.CurrentTarget == deadID {
			c.ClearTarget()
		}
		if threat := c.Threat(deadID); threat > 0 {
			c.AddThreat(deadID, -threat)
		}
	}

	w.Bus().Emit(events.Event{
		Type:   events.EntityDied,
		Entity: deadID,
		Source: killerID,
		Time:   w.GameTime(),
	})
}

// PerformHeal лечит цель (или самого целителя) и фиксирует статистику.
func (s *CombatSystem) PerformHeal(w *engine.World, healerID, targetID domain.EntityID, amount float64) float64 {
	target := w.Entity(targetID)
	if target == nil {
		return 0
	}
	stats := target.Stats()
	if stats == nil || !stats.IsAlive() {
		return 0
	}
	actual := stats.Heal(amount)
	if actual <= 0 {
		return 0
	}
	if healer := w.Entity(healerID); healer != nil {
		if hc := healer.Combat(); hc != nil {
			hc.RecordHealingDone(actual)
		}
	}
	now := w.GameTime()
	w.Bus().Emit(events.Event{
		Type:   events.HealingPerformed,
		Entity: targetID,
		Source: healerID,
		Amount: actual,
		Time:   now,
	})
	w.Bus().Emit(events.Event{
		Type:   events.HealthChanged,
		Entity: targetID,
		Source: healerID,
		Amount: actual,
		Time:   now,
	})
	return actual
}

// ChangeStance переключает стойку немедленно и эмитит событие со
// старым и новым значениями.
func (s *CombatSystem) ChangeStance(w *engine.World, id domain.EntityID, stance domain.CombatStance) bool {
	e := w.Entity(id)
	if e == nil {
		return false
	}
	combat := e.Combat()
	if combat == nil {
		return false
	}
	old := combat.Stance
	combat.Stance = stance
	w.Bus().Emit(events.Event{
		Type:      events.CombatStanceChanged,
		Entity:    id,
		OldStance: old,
		NewStance: stance,
		Time:      w.GameTime(),
	})
	return true
}

// ExitCombat выводит сущность из боя с событием.
func (s *CombatSystem) ExitCombat(w *engine.World, id domain.EntityID) bool {
	e := w.Entity(id)
	if e == nil {
		return false
	}
	combat := e.Combat()
	if combat == nil || !combat.ExitCombat() {
		return false
	}
	w.Bus().Emit(events.Event{
		Type:   events.CombatExited,
		Entity: id,
		Time:   w.GameTime(),
	})
	return true
}

func (s *CombatSystem) enterCombat(w *engine.World, id domain.EntityID, combat *domain.CombatComponent) {
	now := w.GameTime()
	if !combat.EnterCombat(now) {
		return
	}
	combat.LastCombatActionTime = now
	w.Bus().Emit(events.Event{
		Type:   events.CombatEntered,
		Entity: id,
		Source: combat.CurrentTarget,
		Time:   now,
	})
}

// inAttackRange сверяет дистанцию между трансформами с дистанцией
// типа атаки.
func (s *CombatSystem) inAttackRange(w *engine.World, attackerID, targetID domain.EntityID, attackType domain.AttackType) bool {
	attacker := w.Entity(attackerID)
	target := w.Entity(targetID)
	if attacker == nil || target == nil {
		return false
	}
	at := attacker.Transform()
	tt := target.Transform()
	if at == nil || tt == nil {
		return false
	}
	combat := attacker.Combat()
	if combat == nil {
		return false
	}
	return at.Position.DistanceTo(tt.Position) <= combat.AttackRange(attackType)
}

// --- БОЕВЫЕ ФОРМУЛЫ ---

// HitChance считает шанс попадания: база, разница ловкости, стойки,
// минус уворот. Итог в [0, 0.95] - гарантированных попаданий нет.
func HitChance(attackerStats, targetStats *domain.CharacterStatsComponent, attackerCombat, targetCombat *domain.CombatComponent) float64 {
	hit := baseHitChance

	attackerDex := attackerStats.CurrentOr(domain.StatDexterity, 10)
	targetDex := targetStats.CurrentOr(domain.StatDexterity, 10)
	hit += (attackerDex - targetDex) * 0.01

	switch attackerCombat.Stance {
	case domain.StanceAggressive:
		hit += 0.10
	case domain.StanceDefensive:
		hit -= 0.05
	}
	if targetCombat.Stance == domain.StanceDefensive {
		hit -= 0.10
	}

	hit -= DodgeChance(targetStats, targetCombat)

	return clampRange(hit, 0, 0.95)
}

// DodgeChance считает шанс уворота цели, зажатый в [0, 0.75].
func DodgeChance(targetStats *domain.CharacterStatsComponent, targetCombat *domain.CombatComponent) float64 {
	dodge := baseDodgeChance
	dodge += targetStats.CurrentOr(domain.StatDexterity, 10) * 0.005
	if targetCombat.Stance == domain.StanceDefensive {
		dodge += 0.10
	}
	dodge += targetCombat.DodgeChanceBonus
	return clampRange(dodge, 0, 0.75)
}

// CritChance считает шанс крита, зажатый в [0.05, 0.5].
func CritChance(attackerStats *domain.CharacterStatsComponent, attackerCombat *domain.CombatComponent) float64 {
	crit := baseCritChance
	crit += attackerStats.CurrentOr(domain.StatDexterity, 10) * 0.003
	if attackerCombat.Stance == domain.StanceAggressive {
		crit += 0.05
	}
	crit += attackerCombat.CritChanceBonus
	return clampRange(crit, 0.05, 0.5)
}

// Damage считает урон. roll - равномерная случайность [0,1), дающая
// множитель разброса 0.9..1.1. Минимум урона - всегда 1.
func Damage(attackerStats, targetStats *domain.CharacterStatsComponent, attackerCombat, targetCombat *domain.CombatComponent, critical bool, roll float64) float64 {
	attackPower := attackerStats.CurrentOr(domain.StatAttackPower, 10)
	armor := targetStats.CurrentOr(domain.StatArmorClass, 10)

	strength := attackerStats.CurrentOr(domain.StatStrength, 10)
	attackPower += (strength - 10) * 0.5

	switch attackerCombat.Stance {
	case domain.StanceAggressive:
		attackPower *= 1.2
	case domain.StanceDefensive:
		attackPower *= 0.8
	}
	if targetCombat.Stance == domain.StanceDefensive {
		armor *= 1.2
	}

	damageReduction := armor / (armor + 50)
	damage := attackPower * (1.0 - damageReduction)

	if critical {
		damage *= baseCritMultiplier
	}
	damage *= attackerCombat.DamageMultiplier
	damage /= targetCombat.DefenseMultiplier

	// Разброс -10%..+10%
	damage *= 0.9 + roll*0.2

	if damage < 1 {
		return 1
	}
	return damage
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
