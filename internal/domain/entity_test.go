package domain

import (
	"encoding/json"
	"testing"
)

func TestEntityID_PackUnpack(t *testing.T) {
	tests := []struct {
		generation uint32
		index      uint64
	}{
		{0, 1},
		{1, 42},
		{16777215, 1099511627775}, // максимумы масок
	}
	for _, tt := range tests {
		id := PackEntityID(tt.generation, tt.index)
		if id.Generation() != tt.generation || id.Index() != tt.index {
			t.Errorf("pack(%d,%d) -> (%d,%d)", tt.generation, tt.index, id.Generation(), id.Index())
		}
	}

	if NoEntity.IsValid() {
		t.Error("NoEntity reports valid")
	}
	if !PackEntityID(0, 1).IsValid() {
		t.Error("packed id reports invalid")
	}
}

func TestEntityID_JSONRoundTrip(t *testing.T) {
	id := PackEntityID(3, 777)
	raw, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Строка, не число: JS теряет точность больших целых
	if raw[0] != '"' {
		t.Fatalf("id marshaled as %s, want a JSON string", raw)
	}
	var back EntityID
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != id {
		t.Errorf("round trip %v -> %v", id, back)
	}

	parsed, err := ParseEntityID("3298534883417")
	if err != nil {
		t.Fatalf("ParseEntityID: %v", err)
	}
	if parsed != PackEntityID(3, 89) {
		t.Errorf("ParseEntityID = %v", parsed)
	}
	if _, err := ParseEntityID("abc"); err == nil {
		t.Error("ParseEntityID accepted garbage")
	}
}

func TestEntityID_DecimalRoundTrip(t *testing.T) {
	ids := []EntityID{
		PackEntityID(0, 1),
		PackEntityID(3, 42),
		PackEntityID(16777215, 1099511627775),
	}
	for _, id := range ids {
		parsed, err := ParseEntityID(id.Decimal())
		if err != nil {
			t.Fatalf("ParseEntityID(%q): %v", id.Decimal(), err)
		}
		if parsed != id {
			t.Errorf("round trip %v -> %v", id, parsed)
		}
	}

	// Логовая форма наружу не уходит и обратно не принимается
	if _, err := ParseEntityID(PackEntityID(3, 42).String()); err == nil {
		t.Error("ParseEntityID accepted the log form")
	}
}

func TestEntity_ComponentMap(t *testing.T) {
	e := NewEntity(PackEntityID(0, 1))

	e.SetComponent(NewTransform(1, 2))
	e.SetComponent(NewCharacterStats(nil))

	if !e.HasComponents(KindTransform, KindCharacterStats) {
		t.Fatal("components missing after SetComponent")
	}
	if e.HasComponent(KindCombat) {
		t.Error("phantom combat component")
	}

	// Не более одного компонента на тип: замена, не дубль
	e.SetComponent(NewTransform(9, 9))
	if got := e.Transform().Position.X; got != 9 {
		t.Errorf("transform not replaced, x = %v", got)
	}
	if got := len(e.Kinds()); got != 2 {
		t.Errorf("component count = %d, want 2", got)
	}

	if removed := e.RemoveComponent(KindTransform); removed == nil {
		t.Error("RemoveComponent returned nil for present component")
	}
	if removed := e.RemoveComponent(KindTransform); removed != nil {
		t.Error("RemoveComponent returned a component twice")
	}
}

func TestEntity_Tags(t *testing.T) {
	e := NewEntity(PackEntityID(0, 2))
	e.AddTag("hostile")
	e.AddTag("undead")

	if !e.HasTag("hostile") || !e.HasTag("undead") {
		t.Fatal("tags missing")
	}
	e.RemoveTag("hostile")
	if e.HasTag("hostile") {
		t.Error("tag survived removal")
	}
	if got := len(e.Tags()); got != 1 {
		t.Errorf("tag count = %d, want 1", got)
	}
}

func TestEntity_SerializeRoundTrip(t *testing.T) {
	e := NewEntity(PackEntityID(1, 10))
	e.SetComponent(NewTransform(3, 4))
	e.SetComponent(NewCombat())
	e.AddTag("npc")

	// Прогоняем через настоящий JSON: все числа станут float64
	raw, err := json.Marshal(e.Serialize())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var data Record
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := DeserializeEntity(e.ID, data)
	if !restored.HasComponents(KindTransform, KindCombat) {
		t.Error("components lost in round trip")
	}
	if !restored.HasTag("npc") {
		t.Error("tags lost in round trip")
	}
	if got := restored.Transform().Position; got.X != 3 || got.Y != 4 {
		t.Errorf("position = %+v, want (3,4)", got)
	}
}
