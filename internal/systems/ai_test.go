package systems

import (
	"testing"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/events"
)

// newAIRig добавляет к боевому стенду систему ИИ.
func newAIRig(t *testing.T) *testRig {
	t.Helper()
	rig := newTestRig(t)
	rig.world.AddSystem(NewAISystem(rig.grid, rig.combat, nil))
	return rig
}

// spawnAgent создает бойца с компонентом ИИ.
func (r *testRig) spawnAgent(t *testing.T, x, y float64, base map[string]float64, ai *domain.AIComponent) domain.EntityID {
	t.Helper()
	e := r.world.CreateEntity()
	e.SetComponent(domain.NewTransform(x, y))
	e.SetComponent(domain.NewCharacterStats(base))
	e.SetComponent(domain.NewCombat())
	e.SetComponent(ai)
	r.world.Update(0)
	return e.ID
}

// dummyEnemy - противник с выключенным ИИ: классифицируется как враг,
// но сам не действует.
func dummyEnemy() *domain.AIComponent {
	ai := domain.NewAI(domain.AIUtility)
	ai.Enabled = false
	return ai
}

func meleeAttackAI() *domain.AIComponent {
	ai := domain.NewAI(domain.AIUtility)
	ai.AddAction("strike", domain.ActionSpec{
		Type:       domain.ActionAttack,
		Range:      domain.DefaultMeleeRange,
		AttackType: domain.AttackMelee,
	})
	return ai
}

func TestDefaultClassifier(t *testing.T) {
	self := domain.NewEntity(domain.PackEntityID(0, 1))

	tests := []struct {
		name  string
		setup func(*domain.Entity)
		want  Category
	}{
		{"тег item", func(e *domain.Entity) { e.AddTag("item") }, CategoryItem},
		{"тег hazard", func(e *domain.Entity) { e.AddTag("hazard") }, CategoryHazard},
		{"с ИИ", func(e *domain.Entity) { e.SetComponent(domain.NewAI(domain.AIUtility)) }, CategoryEnemy},
		{"только статы", func(e *domain.Entity) { e.SetComponent(domain.NewCharacterStats(nil)) }, CategoryAlly},
		{"пустая", func(e *domain.Entity) {}, CategoryNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := domain.NewEntity(domain.PackEntityID(0, 2))
			tt.setup(other)
			if got := DefaultClassifier(self, other); got != tt.want {
				t.Fatalf("классификация = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestAITargetAcquisitionAndApproach(t *testing.T) {
	rig := newAIRig(t)
	hunter := rig.spawnAgent(t, 0, 0, nil, meleeAttackAI())
	enemy := rig.spawnAgent(t, 5, 0, nil, dummyEnemy())
	rig.resetCounts()

	rig.world.Update(0.1)

	ai := rig.world.Entity(hunter).AI()
	if ai.Target != enemy {
		t.Fatalf("цель = %v, ожидалось %v", ai.Target, enemy)
	}
	if rig.counts[events.AITargetAcquired] != 1 {
		t.Fatalf("ai_target_acquired = %d, ожидалось 1", rig.counts[events.AITargetAcquired])
	}

	// Вне дистанции атаки охотник сближается: скорость 3.0 за 0.1с
	pos := rig.world.Entity(hunter).Transform().Position
	approx(t, pos.X, 0.3, 1e-9, "сближение по X")
	if rig.counts[events.EntityMoved] == 0 {
		t.Fatal("движение должно эмитить entity_moved")
	}
	if rig.counts[events.AttackStarted] != 0 {
		t.Fatal("атаки вне дистанции быть не должно")
	}
}

func TestAIAttackInRange(t *testing.T) {
	rig := newAIRig(t)
	hunter := rig.spawnAgent(t, 0, 0, nil, meleeAttackAI())
	rig.spawnAgent(t, 1, 0, nil, dummyEnemy())
	rig.resetCounts()

	rig.world.Update(0.1)

	if rig.counts[events.AttackStarted] != 1 {
		t.Fatalf("attack_started = %d, ожидалось 1", rig.counts[events.AttackStarted])
	}
	ai := rig.world.Entity(hunter).AI()
	if ai.AttackCooldown <= 0 {
		t.Fatal("после атаки должен тикать локальный кулдаун")
	}

	// Пока кулдаун не вышел, вторая атака не уходит
	rig.world.Update(0.1)
	if rig.counts[events.AttackStarted] != 1 {
		t.Fatalf("attack_started после кулдауна = %d, ожидалось 1", rig.counts[events.AttackStarted])
	}
}

func TestAIFleeOverride(t *testing.T) {
	rig := newAIRig(t)

	coward := meleeAttackAI()
	coward.SetPersonality(domain.TraitBravery, 0)
	id := rig.spawnAgent(t, 0, 0, nil, coward)
	enemy := rig.spawnAgent(t, 3, 0, nil, dummyEnemy())

	// Здоровье ниже порога бегства: 0.1 <= 0.2 * (1 - 0)
	rig.world.Entity(id).Stats().TakeDamage(90)
	coward.Target = enemy
	rig.resetCounts()

	rig.world.Update(0.1)

	// Бегство прочь от врага на повышенной скорости: 3.0 * 1.5 * 0.1
	pos := rig.world.Entity(id).Transform().Position
	approx(t, pos.X, -0.45, 1e-9, "бегство по X")
	if coward.Target != domain.NoEntity {
		t.Fatal("бегство должно сбрасывать цель")
	}
	if rig.counts[events.AITargetLost] != 1 {
		t.Fatalf("ai_target_lost = %d, ожидалось 1", rig.counts[events.AITargetLost])
	}
	if rig.counts[events.AttackStarted] != 0 {
		t.Fatal("бегство перекрывает любые атаки")
	}
}

func TestAIHealSelf(t *testing.T) {
	rig := newAIRig(t)

	ai := domain.NewAI(domain.AIUtility)
	ai.AddAction("first_aid", domain.ActionSpec{
		Type:     domain.ActionHeal,
		HealType: "self",
	})
	id := rig.spawnAgent(t, 0, 0, nil, ai)
	stats := rig.world.Entity(id).Stats()
	stats.TakeDamage(50)
	rig.resetCounts()

	rig.world.Update(0.1)

	if stats.Health != 60 {
		t.Fatalf("здоровье = %v, ожидалось 60", stats.Health)
	}
	if rig.counts[events.HealingPerformed] != 1 {
		t.Fatalf("healing_performed = %d, ожидалось 1", rig.counts[events.HealingPerformed])
	}
	if ev := rig.last[events.AIActionChanged]; ev.ActionID != "first_aid" {
		t.Fatalf("ai_action_changed = %q, ожидалось first_aid", ev.ActionID)
	}
}

func TestAIFollowAlly(t *testing.T) {
	rig := newAIRig(t)

	ai := domain.NewAI(domain.AIUtility)
	ai.AddAction("escort", domain.ActionSpec{Type: domain.ActionFollow})
	id := rig.spawnAgent(t, 0, 0, nil, ai)
	rig.spawnFighter(t, 6, 0, nil) // статы без ИИ - союзник
	rig.resetCounts()

	rig.world.Update(0.1)

	pos := rig.world.Entity(id).Transform().Position
	approx(t, pos.X, 0.3, 1e-9, "следование по X")

	// Вплотную к союзнику движение останавливается
	rig.world.Entity(id).Transform().SetPosition(5, 0)
	rig.world.Update(0.1)
	if got := rig.world.Entity(id).Transform().Position.X; got != 5 {
		t.Fatalf("позиция = %v, ожидалось 5 (дистанция уже достаточная)", got)
	}
}

func TestAIPatrolPicksGoal(t *testing.T) {
	rig := newAIRig(t)

	ai := domain.NewAI(domain.AIUtility)
	ai.AddAction("rounds", domain.ActionSpec{Type: domain.ActionPatrol})
	id := rig.spawnAgent(t, 0, 0, nil, ai)
	rig.resetCounts()

	rig.world.Update(0.1)

	if !ai.HasPatrolGoal {
		t.Fatal("патруль должен выбрать точку маршрута")
	}
	pos := rig.world.Entity(id).Transform().Position
	if pos.X == 0 && pos.Y == 0 {
		t.Fatal("патрульный не сдвинулся")
	}
}

func TestAIDisabledDoesNothing(t *testing.T) {
	rig := newAIRig(t)

	ai := meleeAttackAI()
	ai.Enabled = false
	id := rig.spawnAgent(t, 0, 0, nil, ai)
	rig.spawnAgent(t, 1, 0, nil, dummyEnemy())
	rig.resetCounts()

	rig.world.Update(0.1)

	if rig.counts[events.AttackStarted] != 0 || rig.counts[events.EntityMoved] != 0 {
		t.Fatal("выключенный ИИ не должен действовать")
	}
	if got := rig.world.Entity(id).Transform().Position.X; got != 0 {
		t.Fatalf("позиция = %v, ожидалось 0", got)
	}
}

func TestAITargetLostOnDeath(t *testing.T) {
	rig := newAIRig(t)
	hunter := rig.spawnAgent(t, 0, 0, nil, meleeAttackAI())
	enemy := rig.spawnAgent(t, 5, 0, nil, dummyEnemy())

	rig.world.Update(0.1) // цель захвачена
	rig.world.Entity(enemy).Stats().TakeDamage(10000)
	rig.resetCounts()

	rig.world.Update(0.1)

	ai := rig.world.Entity(hunter).AI()
	if ai.Target == enemy {
		t.Fatal("мертвая цель должна сбрасываться")
	}
	if rig.counts[events.AITargetLost] != 1 {
		t.Fatalf("ai_target_lost = %d, ожидалось 1", rig.counts[events.AITargetLost])
	}
}
