package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/pkg/api"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := engine.NewConfig()
	cfg.Seed = 1
	cfg.MapWidth = 32
	cfg.MapHeight = 32
	return NewService(cfg, nil)
}

func mustPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

// walkableSpot находит центр первой проходимой клетки карты.
func walkableSpot(t *testing.T, s *Service) (float64, float64) {
	t.Helper()
	for y := 0; y < s.tiles.Height; y++ {
		for x := 0; x < s.tiles.Width; x++ {
			if s.tiles.IsWalkable(x, y) {
				return float64(x) + 0.5, float64(y) + 0.5
			}
		}
	}
	t.Fatal("на карте нет проходимых клеток")
	return 0, 0
}

func drainOne(t *testing.T, ch chan api.ServerResponse) api.ServerResponse {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	default:
		t.Fatal("ожидалось сообщение, канал пуст")
		return api.ServerResponse{}
	}
}

func TestPopulateScene(t *testing.T) {
	svc := newTestService(t)
	svc.PopulateScene(3)

	if got := svc.World().EntityCount(); got != 3 {
		t.Fatalf("EntityCount = %d, ожидалось 3", got)
	}

	snap := svc.BuildSnapshot()
	if len(snap.Entities) != 3 {
		t.Fatalf("в снапшоте %d сущностей, ожидалось 3", len(snap.Entities))
	}
	for _, view := range snap.Entities {
		if view.Stats == nil {
			t.Errorf("сущность %s без статов", view.ID)
		}
		if view.Stats != nil && view.Stats.IsDead {
			t.Errorf("сущность %s мертва при спавне", view.ID)
		}
	}
	if snap.Grid == nil || snap.Grid.Width != 32 || snap.Grid.Height != 32 {
		t.Errorf("Grid = %+v, ожидалось 32x32", snap.Grid)
	}
}

func TestSpawnCommand(t *testing.T) {
	svc := newTestService(t)
	ch := svc.Hub.Register("sess-1")

	x, y := walkableSpot(t, svc)
	svc.executeCommand(api.ClientCommand{
		Session: "sess-1",
		Action:  api.ActionSpawn,
		Payload: mustPayload(t, api.SpawnPayload{X: x, Y: y, Kind: "fighter"}),
	})

	// Сначала трансляция entity_created, затем адресный снапшот
	first := drainOne(t, ch)
	if first.Type != api.MessageEvent || first.Event == nil || first.Event.Type != "entity_created" {
		t.Fatalf("первое сообщение %+v, ожидалось EVENT entity_created", first)
	}

	second := drainOne(t, ch)
	if second.Type != api.MessageSnapshot || second.Snapshot == nil {
		t.Fatalf("второе сообщение %+v, ожидался SNAPSHOT", second)
	}
	if len(second.Snapshot.Entities) != 1 {
		t.Fatalf("в снапшоте %d сущностей, ожидалась 1", len(second.Snapshot.Entities))
	}
	if second.Snapshot.Entities[0].Stats == nil {
		t.Error("у заспавненного бойца нет статов в снапшоте")
	}
}

func TestSpawnCommandRejectsWater(t *testing.T) {
	svc := newTestService(t)
	ch := svc.Hub.Register("sess-1")

	// Край карты всегда вода
	svc.executeCommand(api.ClientCommand{
		Session: "sess-1",
		Action:  api.ActionSpawn,
		Payload: mustPayload(t, api.SpawnPayload{X: 0.2, Y: 0.2, Kind: "fighter"}),
	})

	msg := drainOne(t, ch)
	if msg.Type != api.MessageError {
		t.Fatalf("тип ответа %q, ожидался ERROR", msg.Type)
	}
	if svc.World().EntityCount() != 0 {
		t.Fatal("сущность создана на непроходимой клетке")
	}
}

func TestSnapshotCommand(t *testing.T) {
	svc := newTestService(t)
	svc.PopulateScene(2)
	ch := svc.Hub.Register("sess-1")

	svc.executeCommand(api.ClientCommand{Session: "sess-1", Action: api.ActionSnapshot})

	msg := drainOne(t, ch)
	if msg.Type != api.MessageSnapshot || msg.Snapshot == nil {
		t.Fatalf("ответ %+v, ожидался SNAPSHOT", msg)
	}
	if len(msg.Snapshot.Entities) != 2 {
		t.Fatalf("в снапшоте %d сущностей, ожидалось 2", len(msg.Snapshot.Entities))
	}
}

func TestAttackCommand(t *testing.T) {
	svc := newTestService(t)
	x, y := walkableSpot(t, svc)
	attacker := svc.spawnDummy(x, y)
	target := svc.spawnDummy(x+1, y)
	svc.World().Update(0)

	svc.executeCommand(api.ClientCommand{
		Session: "sess-1",
		Action:  api.ActionAttack,
		Payload: mustPayload(t, api.AttackPayload{
			AttackerID: attacker.ID.Decimal(),
			TargetID:   target.ID.Decimal(),
		}),
	})

	// Атака могла промахнуться, но бой начинается в любом случае
	if !attacker.Combat().InCombat {
		t.Error("атакующий не вошел в бой")
	}
	if !target.Combat().InCombat {
		t.Error("цель не вошла в бой")
	}
}

func TestAttackCommandBadID(t *testing.T) {
	svc := newTestService(t)
	ch := svc.Hub.Register("sess-1")

	svc.executeCommand(api.ClientCommand{
		Session: "sess-1",
		Action:  api.ActionAttack,
		Payload: mustPayload(t, api.AttackPayload{AttackerID: "не-число", TargetID: "1"}),
	})

	msg := drainOne(t, ch)
	if msg.Type != api.MessageError {
		t.Fatalf("тип ответа %q, ожидался ERROR", msg.Type)
	}
}

func TestStanceCommand(t *testing.T) {
	svc := newTestService(t)
	x, y := walkableSpot(t, svc)
	e := svc.spawnDummy(x, y)
	svc.World().Update(0)

	svc.executeCommand(api.ClientCommand{
		Session: "sess-1",
		Action:  api.ActionStance,
		Payload: mustPayload(t, api.StancePayload{
			EntityID: e.ID.Decimal(),
			Stance:   "aggressive",
		}),
	})

	if e.Combat().Stance != domain.StanceAggressive {
		t.Fatalf("стойка %v, ожидалась aggressive", e.Combat().Stance)
	}
}

func TestUnknownActionReportsError(t *testing.T) {
	svc := newTestService(t)
	ch := svc.Hub.Register("sess-1")

	svc.executeCommand(api.ClientCommand{Session: "sess-1", Action: "DANCE"})

	msg := drainOne(t, ch)
	if msg.Type != api.MessageError {
		t.Fatalf("тип ответа %q, ожидался ERROR", msg.Type)
	}
}

// Каждый ID, который сервис публикует наружу, обязан приниматься
// командами обратно без преобразований.
func TestPublishedIDsWorkInCommands(t *testing.T) {
	svc := newTestService(t)
	x, y := walkableSpot(t, svc)
	attacker := svc.spawnDummy(x, y)
	svc.spawnDummy(x+1, y)
	svc.World().Update(0)

	snap := svc.BuildSnapshot()
	if len(snap.Entities) != 2 {
		t.Fatalf("в снапшоте %d сущностей, ожидалось 2", len(snap.Entities))
	}
	for _, view := range snap.Entities {
		if _, err := domain.ParseEntityID(view.ID); err != nil {
			t.Fatalf("ID %q из снапшота не парсится обратно: %v", view.ID, err)
		}
	}

	// ID из снапшота скармливаем команде как есть
	svc.executeCommand(api.ClientCommand{
		Session: "sess-1",
		Action:  api.ActionAttack,
		Payload: mustPayload(t, api.AttackPayload{
			AttackerID: snap.Entities[0].ID,
			TargetID:   snap.Entities[1].ID,
		}),
	})

	if !attacker.Combat().InCombat {
		t.Error("атака по ID из снапшота не прошла")
	}

	// ID в транслируемых событиях тоже должны парситься
	ch := svc.Hub.Register("sess-2")
	svc.spawnDummy(x, y+1)
	svc.World().Update(0)

	msg := drainOne(t, ch)
	if msg.Type != api.MessageEvent || msg.Event == nil {
		t.Fatalf("ожидалось EVENT, получено %+v", msg)
	}
	if _, err := domain.ParseEntityID(msg.Event.Entity); err != nil {
		t.Errorf("ID %q из события не парсится обратно: %v", msg.Event.Entity, err)
	}
}

func TestRunLoopAdvancesTime(t *testing.T) {
	svc := newTestService(t)
	svc.Start()
	time.Sleep(120 * time.Millisecond)
	svc.Stop()

	if svc.World().GameTime() <= 0 {
		t.Fatal("игровое время не продвинулось")
	}
}
