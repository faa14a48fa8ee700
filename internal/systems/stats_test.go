package systems

import (
	"testing"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/events"
)

func newStatsRig(t *testing.T) *testRig {
	t.Helper()
	rig := newTestRig(t)
	rig.world.AddSystem(NewStatsSystem())
	return rig
}

func TestStatsSystemExpiresModifiers(t *testing.T) {
	rig := newStatsRig(t)
	id := rig.spawnFighter(t, 0, 0, nil)
	stats := rig.world.Entity(id).Stats()

	stats.AddModifier("battle_rage", domain.StatStrength, 5, 1.0, rig.world.GameTime())
	if stats.Current(domain.StatStrength) != 15 {
		t.Fatalf("сила с модификатором = %v, ожидалось 15", stats.Current(domain.StatStrength))
	}
	rig.resetCounts()

	rig.world.Update(2.0)

	if stats.Current(domain.StatStrength) != 10 {
		t.Fatalf("сила после истечения = %v, ожидалось 10", stats.Current(domain.StatStrength))
	}
	if rig.counts[events.EffectRemoved] != 1 {
		t.Fatalf("effect_removed = %d, ожидалось 1", rig.counts[events.EffectRemoved])
	}
}

func TestStatsSystemExpiresStatusEffects(t *testing.T) {
	rig := newStatsRig(t)
	id := rig.spawnFighter(t, 0, 0, nil)
	stats := rig.world.Entity(id).Stats()

	stats.AddStatusEffect("venom", "poison", 2, 1.0, rig.world.GameTime())
	stats.AddStatusEffect("blessing", "regen", 1, -1, rig.world.GameTime())
	rig.resetCounts()

	rig.world.Update(2.0)

	if stats.HasStatusEffect("poison") {
		t.Fatal("истекший эффект должен сниматься")
	}
	if !stats.HasStatusEffect("regen") {
		t.Fatal("постоянный эффект снялся по времени")
	}
}

func TestStatsSystemManaRegen(t *testing.T) {
	rig := newStatsRig(t)
	id := rig.spawnFighter(t, 0, 0, nil)
	stats := rig.world.Entity(id).Stats()
	stats.UseMana(50)
	rig.resetCounts()

	rig.world.Update(1.0)

	approx(t, stats.Mana, 51, 1e-9, "мана после регенерации")
	if rig.counts[events.ManaChanged] != 1 {
		t.Fatalf("mana_changed = %d, ожидалось 1", rig.counts[events.ManaChanged])
	}
}

func TestStatsSystemNoManaRegenInCombat(t *testing.T) {
	rig := newStatsRig(t)
	a := rig.spawnFighter(t, 0, 0, nil)
	b := rig.spawnFighter(t, 1, 0, nil)

	rig.combat.PerformAttack(rig.world, a, b, "strike")
	rig.world.Entity(a).Stats().UseMana(50)
	rig.resetCounts()

	rig.world.Update(1.0)

	if rig.counts[events.ManaChanged] != 0 {
		t.Fatal("в бою мана не регенерирует")
	}
	approx(t, rig.world.Entity(a).Stats().Mana, 50, 1e-9, "мана в бою")
}
