package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/internal/events"
	"github.com/Drew-source/isometric-rpg/internal/spatial"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

// Category - отношение замеченной сущности к наблюдателю.
type Category int

const (
	CategoryNeutral Category = iota
	CategoryEnemy
	CategoryAlly
	CategoryItem
	CategoryHazard
)

// Classifier решает, кем приходится other наблюдателю self.
// Подключается снаружи; дефолт - placeholder по составу компонентов.
type Classifier func(self, other *domain.Entity) Category

// DefaultClassifier - временная фракционная модель: сущность с ИИ -
// враг, с характеристиками без ИИ - союзник, остальное - нейтрал.
// Теги item/hazard имеют приоритет над компонентами.
func DefaultClassifier(self, other *domain.Entity) Category {
	switch {
	case other.HasTag("item"):
		return CategoryItem
	case other.HasTag("hazard"):
		return CategoryHazard
	case other.HasComponent(domain.KindAI):
		return CategoryEnemy
	case other.HasComponent(domain.KindCharacterStats):
		return CategoryAlly
	default:
		return CategoryNeutral
	}
}

// Скорости и дистанции поведения
const (
	fleeSpeedFactor   = 1.5
	followStopRange   = 2.0
	patrolSpeedHalf   = 0.5
	patrolGoalRadius  = 8.0
	patrolArrive      = 0.5
	defaultHealAmount = 10.0
)

// AISystem принимает решения для сущностей с компонентом ИИ.
// Решения пересчитываются каждый тик с нуля: никакой явной машины
// состояний, только кулдауны и память.
type AISystem struct {
	grid       *spatial.Grid
	combat     *CombatSystem
	classifier Classifier
}

// NewAISystem создает систему ИИ. classifier == nil дает дефолтную
// классификацию.
func NewAISystem(grid *spatial.Grid, combat *CombatSystem, classifier Classifier) *AISystem {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	return &AISystem{grid: grid, combat: combat, classifier: classifier}
}

func (s *AISystem) Name() string { return "ai" }

// Priority между сеткой и боем: восприятие видит свежую сетку,
// боевые приказы уходят в этот же тик.
func (s *AISystem) Priority() int { return 60 }

func (s *AISystem) Update(w *engine.World, dt float64) {
	now := w.GameTime()
	for _, id := range w.EntitiesWith(domain.KindAI) {
		e := w.Entity(id)
		ai := e.AI()
		if !ai.Enabled {
			continue
		}

		ai.UpdateCooldowns(dt)
		s.rebuildPerception(w, id, e, ai, now)
		ai.ForgetOldEntities(now)

		switch ai.Variant {
		case domain.AIUtility:
			s.processUtility(w, id, e, ai, dt)
		case domain.AIStateMachine, domain.AIBehaviorTree:
			// Явные заглушки: реализован только утилитарный вариант
		}
	}
}

// rebuildPerception перестраивает снимок восприятия запросом к сетке.
func (s *AISystem) rebuildPerception(w *engine.World, id domain.EntityID, e *domain.Entity, ai *domain.AIComponent, now float64) {
	ai.Perception.Clear()

	t := e.Transform()
	if t == nil {
		return
	}

	for _, otherID := range s.grid.QueryRange(t.Position.X, t.Position.Y, ai.PerceptionRadius) {
		if otherID == id {
			continue
		}
		other := w.Entity(otherID)
		if other == nil {
			continue
		}
		ot := other.Transform()
		if ot == nil {
			continue
		}
		// Трупы восприятие не интересуют
		if os := other.Stats(); os != nil && !os.IsAlive() {
			continue
		}
		perceived := domain.PerceivedEntity{
			ID:       otherID,
			Position: ot.Position,
			Distance: t.Position.DistanceTo(ot.Position),
		}
		switch s.classifier(e, other) {
		case CategoryEnemy:
			ai.Perception.Enemies = append(ai.Perception.Enemies, perceived)
			ai.RememberEntity(otherID, ot.Position, now)
		case CategoryAlly:
			ai.Perception.Allies = append(ai.Perception.Allies, perceived)
			ai.RememberEntity(otherID, ot.Position, now)
		case CategoryNeutral:
			ai.Perception.Neutrals = append(ai.Perception.Neutrals, perceived)
			ai.RememberEntity(otherID, ot.Position, now)
		case CategoryItem:
			ai.Perception.Items = append(ai.Perception.Items, perceived)
		case CategoryHazard:
			ai.Perception.Hazards = append(ai.Perception.Hazards, perceived)
		}
	}
}

func (s *AISystem) processUtility(w *engine.World, id domain.EntityID, e *domain.Entity, ai *domain.AIComponent, dt float64) {
	t := e.Transform()
	stats := e.Stats()
	if t == nil || stats == nil || !stats.IsAlive() {
		return
	}

	// Принудительное бегство при критическом здоровье перекрывает
	// любые утилитарные оценки
	if ai.ShouldFlee(stats.HealthRatio()) {
		s.handleFlee(w, id, e, ai, dt)
		return
	}

	s.maintainTarget(w, id, ai)

	// Данные цели для оценщика
	var targetStats *domain.CharacterStatsComponent
	distance := -1.0
	if ai.Target != domain.NoEntity {
		if target := w.Entity(ai.Target); target != nil {
			targetStats = target.Stats()
			if tt := target.Transform(); tt != nil {
				distance = t.Position.DistanceTo(tt.Position)
			}
		}
	}

	actionID := ai.SelectBestAction(stats, targetStats, distance, w.RNG())
	if actionID == "" {
		return
	}
	spec, _ := ai.Action(actionID)

	if ai.CurrentActionID != actionID {
		ai.CurrentActionID = actionID
		w.Bus().Emit(events.Event{
			Type:     events.AIActionChanged,
			Entity:   id,
			ActionID: actionID,
			Time:     w.GameTime(),
		})
	}

	switch spec.Type {
	case domain.ActionAttack:
		s.handleAttack(w, id, e, ai, actionID, spec, dt)
	case domain.ActionDefend:
		s.handleDefend(w, id)
	case domain.ActionHeal:
		s.handleHeal(w, id, ai, spec)
	case domain.ActionFlee:
		s.handleFlee(w, id, e, ai, dt)
	case domain.ActionPatrol:
		s.handlePatrol(w, id, e, ai, dt)
	case domain.ActionFollow:
		s.handleFollow(w, id, e, ai, dt)
	case domain.ActionIdle:
		// Сознательное бездействие
	}
}

// maintainTarget чистит мертвую/пропавшую цель и берет ближайшего
// врага, когда цели нет.
func (s *AISystem) maintainTarget(w *engine.World, id domain.EntityID, ai *domain.AIComponent) {
	if ai.Target != domain.NoEntity {
		target := w.Entity(ai.Target)
		alive := target != nil
		if alive {
			if ts := target.Stats(); ts != nil && !ts.IsAlive() {
				alive = false
			}
		}
		if !alive {
			lost := ai.Target
			ai.Target = domain.NoEntity
			w.Bus().Emit(events.Event{
				Type:   events.AITargetLost,
				Entity: id,
				Source: lost,
				Time:   w.GameTime(),
			})
		}
	}

	if ai.Target == domain.NoEntity {
		if enemy, ok := ai.NearestEnemy(); ok {
			ai.Target = enemy.ID
			w.Bus().Emit(events.Event{
				Type:   events.AITargetAcquired,
				Entity: id,
				Source: enemy.ID,
				Time:   w.GameTime(),
			})
		}
	}
}

// --- ОБРАБОТЧИКИ ДЕЙСТВИЙ ---

func (s *AISystem) handleAttack(w *engine.World, id domain.EntityID, e *domain.Entity, ai *domain.AIComponent, actionID string, spec domain.ActionSpec, dt float64) {
	if ai.Target == domain.NoEntity || ai.AttackCooldown > 0 {
		return
	}
	target := w.Entity(ai.Target)
	if target == nil {
		return
	}
	t := e.Transform()
	tt := target.Transform()
	if t == nil || tt == nil {
		return
	}

	distance := t.Position.DistanceTo(tt.Position)
	if distance > spec.Range {
		// Вне дистанции - сближаемся
		s.moveToward(w, id, e, tt.Position, 1.0, dt)
		return
	}

	stats := e.Stats()
	s.combat.PerformAttack(w, id, ai.Target, actionID)

	// Локальный кулдаун от скорости атаки
	attackSpeed := stats.CurrentOr(domain.StatAttackSpeed, 1.0)
	if attackSpeed <= 0 {
		attackSpeed = 1.0
	}
	ai.AttackCooldown = 1.0 / attackSpeed
	ai.StartAbilityCooldown(actionID, spec.Cooldown)
}

// handleDefend - хук без поведения: оборонительные баффы появятся
// вместе с системой способностей.
func (s *AISystem) handleDefend(w *engine.World, id domain.EntityID) {
	logger.Log.WithFields(logrus.Fields{
		"module": "ai",
		"entity": id,
	}).Debug("Действие defend: заглушка")
}

func (s *AISystem) handleHeal(w *engine.World, id domain.EntityID, ai *domain.AIComponent, spec domain.ActionSpec) {
	amount := spec.HealAmount
	if amount <= 0 {
		amount = defaultHealAmount
	}
	targetID := id
	if spec.HealType == "other" && ai.Target != domain.NoEntity {
		targetID = ai.Target
	}
	s.combat.PerformHeal(w, id, targetID, amount)
}

func (s *AISystem) handleFlee(w *engine.World, id domain.EntityID, e *domain.Entity, ai *domain.AIComponent, dt float64) {
	t := e.Transform()
	if t == nil {
		return
	}
	enemy, ok := ai.NearestEnemy()
	if !ok || enemy.Distance <= 0 {
		return
	}

	// Прочь от врага на повышенной скорости
	dir := domain.Vector3{
		X: (t.Position.X - enemy.Position.X) / enemy.Distance,
		Y: (t.Position.Y - enemy.Position.Y) / enemy.Distance,
	}
	s.moveBy(w, id, e, dir, fleeSpeedFactor, dt)

	if ai.Target != domain.NoEntity {
		lost := ai.Target
		ai.Target = domain.NoEntity
		w.Bus().Emit(events.Event{
			Type:   events.AITargetLost,
			Entity: id,
			Source: lost,
			Time:   w.GameTime(),
		})
	}
}

func (s *AISystem) handlePatrol(w *engine.World, id domain.EntityID, e *domain.Entity, ai *domain.AIComponent, dt float64) {
	t := e.Transform()
	if t == nil {
		return
	}

	// Новая точка маршрута, когда текущей нет или она достигнута
	if !ai.HasPatrolGoal || t.Position.DistanceTo(ai.PatrolGoal) <= patrolArrive {
		angle := w.RNG().Float64() * 2 * math.Pi
		radius := patrolGoalRadius * (0.3 + 0.7*w.RNG().Float64())
		ai.PatrolGoal = domain.Vector3{
			X: t.Position.X + radius*math.Cos(angle),
			Y: t.Position.Y + radius*math.Sin(angle),
		}
		ai.HasPatrolGoal = true
	}

	s.moveToward(w, id, e, ai.PatrolGoal, patrolSpeedHalf, dt)
}

func (s *AISystem) handleFollow(w *engine.World, id domain.EntityID, e *domain.Entity, ai *domain.AIComponent, dt float64) {
	ally, ok := ai.NearestAlly()
	if !ok || ally.Distance <= followStopRange {
		return
	}
	s.moveToward(w, id, e, ally.Position, 1.0, dt)
}

// --- ПЕРЕМЕЩЕНИЕ ---

// moveToward двигает сущность к точке со скоростью movement_speed,
// умноженной на factor, не проскакивая цель.
func (s *AISystem) moveToward(w *engine.World, id domain.EntityID, e *domain.Entity, goal domain.Vector3, factor, dt float64) {
	t := e.Transform()
	distance := t.Position.DistanceTo(goal)
	if distance <= 0 {
		return
	}
	dir := domain.Vector3{
		X: (goal.X - t.Position.X) / distance,
		Y: (goal.Y - t.Position.Y) / distance,
	}
	s.moveBy(w, id, e, dir, factor, dt)
}

func (s *AISystem) moveBy(w *engine.World, id domain.EntityID, e *domain.Entity, dir domain.Vector3, factor, dt float64) {
	t := e.Transform()
	stats := e.Stats()
	speed := 3.0
	if stats != nil {
		speed = stats.CurrentOr(domain.StatMovementSpeed, 3.0)
	}
	step := speed * factor * dt

	t.SetPosition(t.Position.X+dir.X*step, t.Position.Y+dir.Y*step)
	w.Bus().Emit(events.Event{
		Type:        events.EntityMoved,
		Entity:      id,
		Position:    t.Position,
		OldPosition: t.PrevPosition,
		Time:        w.GameTime(),
	})
}
