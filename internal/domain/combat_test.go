package domain

import (
	"encoding/json"
	"testing"
)

func TestCombat_EnterExit(t *testing.T) {
	c := NewCombat()

	if !c.EnterCombat(10) {
		t.Fatal("EnterCombat returned false on first entry")
	}
	if c.EnterCombat(11) {
		t.Error("EnterCombat returned true while already in combat")
	}
	if c.CombatStartTime != 10 {
		t.Errorf("combat start time = %v, want 10", c.CombatStartTime)
	}

	c.SetTarget(PackEntityID(0, 7))
	c.AddThreat(PackEntityID(0, 7), 15)

	if !c.ExitCombat() {
		t.Fatal("ExitCombat returned false while in combat")
	}
	if c.CurrentTarget != NoEntity {
		t.Error("target survived combat exit")
	}
	if id, _ := c.HighestThreat(); id != NoEntity {
		t.Error("threat table survived combat exit")
	}
	if c.ExitCombat() {
		t.Error("ExitCombat returned true while out of combat")
	}
}

func TestCombat_CooldownsMonotone(t *testing.T) {
	c := NewCombat()
	c.StartCooldown("slash", 1.5)
	c.StartGlobalCooldown(DefaultGlobalCooldown)

	if !c.IsOnCooldown("slash") {
		t.Fatal("slash not on cooldown after start")
	}
	if !c.IsOnCooldown("other") {
		t.Fatal("global cooldown does not gate unrelated attacks")
	}

	c.UpdateCooldowns(1.0)
	if c.GlobalCooldown != 0 {
		t.Errorf("global cooldown = %v after 1s, want 0", c.GlobalCooldown)
	}
	if c.IsOnCooldown("other") {
		t.Error("unrelated attack still gated after global cooldown expired")
	}
	if !c.IsOnCooldown("slash") {
		t.Error("slash cooldown expired early")
	}

	c.UpdateCooldowns(1.0)
	if c.IsOnCooldown("slash") {
		t.Error("slash still on cooldown after full duration")
	}
}

func TestCombat_ThreatNeverNegative(t *testing.T) {
	c := NewCombat()
	attacker := PackEntityID(1, 3)

	c.AddThreat(attacker, 10)
	c.AddThreat(attacker, -25)
	if got := c.Threat(attacker); got != 0 {
		t.Errorf("threat after over-reduction = %v, want 0", got)
	}

	c.AddThreat(attacker, 5)
	other := PackEntityID(1, 4)
	c.AddThreat(other, 20)

	id, value := c.HighestThreat()
	if id != other || value != 20 {
		t.Errorf("highest threat = %v/%v, want %v/20", id, value, other)
	}
}

func TestCombat_OpportunityAttacks(t *testing.T) {
	c := NewCombat()
	for i := 0; i < DefaultOpportunityAttacks; i++ {
		if !c.UseOpportunityAttack() {
			t.Fatalf("opportunity attack %d unavailable", i+1)
		}
	}
	if c.UseOpportunityAttack() {
		t.Error("opportunity attack available past the limit")
	}

	// Вход в бой сбрасывает счетчик
	c.EnterCombat(0)
	if !c.CanUseOpportunityAttack() {
		t.Error("opportunity attacks not reset on combat entry")
	}
}

func TestCombat_ShouldAutoAttack(t *testing.T) {
	c := NewCombat()
	c.AutoAttackEnabled = true
	c.EnterCombat(0)
	c.SetTarget(PackEntityID(0, 2))
	c.LastAutoAttackTime = 10

	tests := []struct {
		name string
		now  float64
		want bool
	}{
		{"before interval", 11.0, false},
		{"at interval", 12.0, true},
		{"after interval", 15.0, true},
	}
	for _, tt := range tests {
		if got := c.ShouldAutoAttack(tt.now); got != tt.want {
			t.Errorf("%s: ShouldAutoAttack(%v) = %v, want %v", tt.name, tt.now, got, tt.want)
		}
	}

	c.ClearTarget()
	if c.ShouldAutoAttack(100) {
		t.Error("auto-attack fired without a target")
	}
}

func TestCombat_AttackRanges(t *testing.T) {
	c := NewCombat()
	tests := []struct {
		attackType AttackType
		want       float64
	}{
		{AttackMelee, DefaultMeleeRange},
		{AttackRanged, DefaultRangedRange},
		{AttackSpell, DefaultSpellRange},
	}
	for _, tt := range tests {
		if got := c.AttackRange(tt.attackType); got != tt.want {
			t.Errorf("AttackRange(%v) = %v, want %v", tt.attackType, got, tt.want)
		}
	}
}

func TestCombat_SerializeRoundTrip(t *testing.T) {
	c := NewCombat()
	c.EnterCombat(42)
	c.Stance = StanceAggressive
	c.PreferredAttackType = AttackSpell
	c.SetTarget(PackEntityID(2, 9))
	c.AddTargetedBy(PackEntityID(2, 10))
	c.AddThreat(PackEntityID(2, 10), 33.5)
	c.StartCooldown("fireball", 4)
	c.RecordDamageDealt(120, true, 43)
	c.RecordAttackMissed()

	restored := DeserializeCombat(c.Serialize())

	if !restored.InCombat || restored.CombatStartTime != 42 {
		t.Error("combat state lost in round trip")
	}
	if restored.Stance != StanceAggressive || restored.PreferredAttackType != AttackSpell {
		t.Error("stance or attack type lost in round trip")
	}
	if restored.CurrentTarget != PackEntityID(2, 9) {
		t.Errorf("target = %v, want %v", restored.CurrentTarget, PackEntityID(2, 9))
	}
	if !restored.IsTargetedBy(PackEntityID(2, 10)) {
		t.Error("targeted_by set lost in round trip")
	}
	if got := restored.Threat(PackEntityID(2, 10)); got != 33.5 {
		t.Errorf("threat = %v, want 33.5", got)
	}
	if !restored.IsOnCooldown("fireball") {
		t.Error("attack cooldown lost in round trip")
	}
	if restored.DamageDealt != 120 || restored.CriticalHits != 1 || restored.AttacksMissed != 1 {
		t.Error("statistics lost in round trip")
	}
}

// ID выше 2^53 не представимы в float64, поэтому сериализация держит
// их в строках. Прогон через JSON имитирует путь снапшота в базу.
func TestCombat_SerializePreservesLargeIDs(t *testing.T) {
	big := PackEntityID(16777215, 1099511627775) // обе маски на максимуме
	other := PackEntityID(16777214, 1099511627774)

	c := NewCombat()
	c.SetTarget(big)
	c.AddTargetedBy(big)
	c.AddTargetedBy(other)
	c.AddThreat(big, 7.5)

	raw, err := json.Marshal(c.Serialize())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored := DeserializeCombat(rec)

	if restored.CurrentTarget != big {
		t.Errorf("target = %v, want %v", restored.CurrentTarget, big)
	}
	if !restored.IsTargetedBy(big) || !restored.IsTargetedBy(other) {
		t.Error("targeted_by lost large ids")
	}
	if got := restored.Threat(big); got != 7.5 {
		t.Errorf("threat = %v, want 7.5", got)
	}
}
