package game

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/internal/events"
	"github.com/Drew-source/isometric-rpg/internal/network"
	"github.com/Drew-source/isometric-rpg/internal/persistence"
	"github.com/Drew-source/isometric-rpg/internal/spatial"
	"github.com/Drew-source/isometric-rpg/internal/systems"
	"github.com/Drew-source/isometric-rpg/pkg/api"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
	"github.com/Drew-source/isometric-rpg/pkg/tilemap"
)

// Сколько случайных клеток перебираем при поиске места под спавн
const spawnPlacementTries = 1000

// Service - ядро симуляции. Владеет миром, картой и шиной событий.
//
// Весь доступ к миру идет из одной горутины run(): тикер двигает
// симуляцию, команды клиентов приходят через канал. Снаружи мир не
// трогаем, кроме read-only дебаг-эндпоинтов.
type Service struct {
	cfg   engine.Config
	world *engine.World
	bus   *events.Bus
	tiles *tilemap.TileMap

	spatial *spatial.System
	combat  *systems.CombatSystem

	Hub *network.Broadcaster

	db *persistence.DB

	commands chan api.ClientCommand
	stop     chan struct{}
	done     chan struct{}

	svcLogger *logrus.Entry
}

// NewService собирает мир со всеми системами и генерирует карту.
// db может быть nil - тогда сервис работает без сохранений.
func NewService(cfg engine.Config, db *persistence.DB) *Service {
	bus := events.NewBus()
	world := engine.NewWorld(cfg, bus)

	genOpts := tilemap.DefaultGenOptions(cfg.Seed)
	if cfg.MapWidth > 0 {
		genOpts.Width = cfg.MapWidth
	}
	if cfg.MapHeight > 0 {
		genOpts.Height = cfg.MapHeight
	}
	tiles := tilemap.Generate(genOpts)

	sp := spatial.NewSystem(world, cfg.CellSize)
	combat := systems.NewCombatSystem(sp.Grid(), cfg)

	world.AddSystem(sp)
	world.AddSystem(systems.NewStatsSystem())
	world.AddSystem(systems.NewAISystem(sp.Grid(), combat, nil))
	world.AddSystem(combat)

	s := &Service{
		cfg:       cfg,
		world:     world,
		bus:       bus,
		tiles:     tiles,
		spatial:   sp,
		combat:    combat,
		Hub:       network.NewBroadcaster(),
		db:        db,
		commands:  make(chan api.ClientCommand, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		svcLogger: logger.Log.WithField("module", "game"),
	}
	s.bridgeEvents()
	return s
}

// World возвращает мир. Использовать только из дебаг-эндпоинтов
// (read-only) или до Start().
func (s *Service) World() *engine.World { return s.world }

// Tiles возвращает сгенерированную карту.
func (s *Service) Tiles() *tilemap.TileMap { return s.tiles }

// GridStats возвращает статистику пространственного индекса.
func (s *Service) GridStats() spatial.Stats { return s.spatial.Grid().GridStats() }

// --- ЖИЗНЕННЫЙ ЦИКЛ ---

// Start запускает цикл симуляции в отдельной горутине.
func (s *Service) Start() {
	s.svcLogger.WithFields(logrus.Fields{
		"seed":     s.cfg.Seed,
		"map_w":    s.tiles.Width,
		"map_h":    s.tiles.Height,
		"tick_sec": s.cfg.TickInterval,
	}).Info("Game loop starting")
	go s.run()
}

// Stop останавливает цикл и, если настроена база, сохраняет снапшот.
func (s *Service) Stop() {
	close(s.stop)
	<-s.done

	if s.db == nil {
		return
	}
	if err := s.db.SaveSnapshot(s.world); err != nil {
		s.svcLogger.WithError(err).Error("Snapshot save failed")
		return
	}
	s.svcLogger.Info("Snapshot saved")
}

func (s *Service) run() {
	defer close(s.done)

	ticker := time.NewTicker(time.Duration(s.cfg.TickInterval * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case cmd := <-s.commands:
			s.executeCommand(cmd)
		case <-ticker.C:
			s.world.Update(s.cfg.TickInterval)
		}
	}
}

// ProcessCommand передает команду клиента в цикл симуляции.
// Блокируется, только пока цикл занят текущим тиком.
func (s *Service) ProcessCommand(cmd api.ClientCommand) {
	select {
	case s.commands <- cmd:
	case <-s.stop:
	}
}

// --- КОМАНДЫ КЛИЕНТОВ ---

func (s *Service) executeCommand(cmd api.ClientCommand) {
	switch cmd.Action {
	case api.ActionSnapshot:
		s.Hub.SendTo(cmd.Session, s.snapshotResponse())

	case api.ActionSpawn:
		s.handleSpawn(cmd)

	case api.ActionAttack:
		s.handleAttack(cmd)

	case api.ActionStance:
		s.handleStance(cmd)

	default:
		s.sendError(cmd.Session, "неизвестное действие: "+cmd.Action)
	}
}

func (s *Service) handleSpawn(cmd api.ClientCommand) {
	var p api.SpawnPayload
	if !s.decodePayload(cmd, &p) {
		return
	}

	tx, ty := int(math.Floor(p.X)), int(math.Floor(p.Y))
	if !s.tiles.IsWalkable(tx, ty) {
		s.sendError(cmd.Session, "клетка непроходима")
		return
	}

	var e *domain.Entity
	if p.Kind == "dummy" {
		e = s.spawnDummy(p.X, p.Y)
	} else {
		e = s.spawnFighter(p.X, p.Y)
	}
	for _, tag := range p.Tags {
		e.AddTag(tag)
	}

	// Активируем сущность сразу, чтобы ответный снапшот ее содержал
	s.world.Update(0)

	s.svcLogger.WithFields(logrus.Fields{
		"entity_id": e.ID.String(),
		"kind":      p.Kind,
	}).Info("Entity spawned")
	s.Hub.SendTo(cmd.Session, s.snapshotResponse())
}

func (s *Service) handleAttack(cmd api.ClientCommand) {
	var p api.AttackPayload
	if !s.decodePayload(cmd, &p) {
		return
	}

	attackerID, err := domain.ParseEntityID(p.AttackerID)
	if err != nil {
		s.sendError(cmd.Session, "плохой attackerId")
		return
	}
	targetID, err := domain.ParseEntityID(p.TargetID)
	if err != nil {
		s.sendError(cmd.Session, "плохой targetId")
		return
	}

	outcome := s.combat.PerformAttack(s.world, attackerID, targetID, "manual")
	if !outcome.Performed {
		s.sendError(cmd.Session, "атака невозможна")
	}
}

func (s *Service) handleStance(cmd api.ClientCommand) {
	var p api.StancePayload
	if !s.decodePayload(cmd, &p) {
		return
	}

	id, err := domain.ParseEntityID(p.EntityID)
	if err != nil {
		s.sendError(cmd.Session, "плохой entityId")
		return
	}
	stance, ok := domain.StanceFromString(p.Stance)
	if !ok {
		s.sendError(cmd.Session, "неизвестная стойка")
		return
	}
	if !s.combat.ChangeStance(s.world, id, stance) {
		s.sendError(cmd.Session, "сущность не найдена")
	}
}

// decodePayload разбирает и валидирует payload. При ошибке сам
// отправляет ERROR и возвращает false.
func (s *Service) decodePayload(cmd api.ClientCommand, dst api.Validator) bool {
	if err := json.Unmarshal(cmd.Payload, dst); err != nil {
		s.sendError(cmd.Session, "битый payload: "+err.Error())
		return false
	}
	if err := dst.Validate(); err != nil {
		s.sendError(cmd.Session, err.Error())
		return false
	}
	return true
}

func (s *Service) sendError(sessionID, msg string) {
	s.Hub.SendTo(sessionID, api.ServerResponse{
		Type:  api.MessageError,
		Time:  s.world.GameTime(),
		Error: msg,
	})
}

// --- ЗАСЕЛЕНИЕ МИРА ---

// PopulateScene расставляет n бойцов с ИИ на проходимых клетках.
// Вызывать до Start().
func (s *Service) PopulateScene(n int) {
	rng := s.world.RNG()
	placed := 0
	for i := 0; i < n; i++ {
		x, y, ok := s.randomWalkableTile(rng)
		if !ok {
			break
		}
		s.spawnFighter(float64(x)+0.5, float64(y)+0.5)
		placed++
	}
	s.world.Update(0)
	s.svcLogger.WithField("count", placed).Info("Scene populated")
}

func (s *Service) randomWalkableTile(rng *rand.Rand) (int, int, bool) {
	for try := 0; try < spawnPlacementTries; try++ {
		x := rng.Intn(s.tiles.Width)
		y := rng.Intn(s.tiles.Height)
		if s.tiles.IsWalkable(x, y) {
			return x, y, true
		}
	}
	return 0, 0, false
}

func (s *Service) spawnFighter(x, y float64) *domain.Entity {
	e := s.world.CreateEntity()
	e.SetComponent(domain.NewTransform(x, y))
	e.SetComponent(domain.NewCharacterStats(domain.DefaultBaseStats()))
	e.SetComponent(domain.NewCombat())

	ai := domain.NewAI(domain.AIUtility)
	ai.AddAction("strike", domain.ActionSpec{
		Type:       domain.ActionAttack,
		Range:      domain.DefaultMeleeRange,
		AttackType: domain.AttackMelee,
	})
	ai.AddAction("first_aid", domain.ActionSpec{
		Type:       domain.ActionHeal,
		HealType:   "self",
		HealAmount: 15,
		Cooldown:   10,
	})
	ai.AddAction("flee", domain.ActionSpec{Type: domain.ActionFlee})
	ai.AddAction("wander", domain.ActionSpec{Type: domain.ActionPatrol})
	ai.RandomizePersonality(s.world.RNG(), 0.3)
	e.SetComponent(ai)

	e.AddTag("fighter")
	return e
}

// spawnDummy создает мишень без ИИ: стоит и получает урон.
func (s *Service) spawnDummy(x, y float64) *domain.Entity {
	e := s.world.CreateEntity()
	e.SetComponent(domain.NewTransform(x, y))
	e.SetComponent(domain.NewCharacterStats(domain.DefaultBaseStats()))
	e.SetComponent(domain.NewCombat())
	e.AddTag("dummy")
	return e
}

// --- СНАПШОТЫ И СОБЫТИЯ ---

func (s *Service) snapshotResponse() api.ServerResponse {
	snap := s.BuildSnapshot()
	return api.ServerResponse{
		Type:     api.MessageSnapshot,
		Time:     s.world.GameTime(),
		Snapshot: &snap,
	}
}

// BuildSnapshot собирает DTO-слепок всех сущностей мира.
func (s *Service) BuildSnapshot() api.WorldSnapshot {
	entities := s.world.Entities()
	snap := api.WorldSnapshot{
		Grid: &api.GridMeta{
			Width:  s.tiles.Width,
			Height: s.tiles.Height,
		},
		Entities: make([]api.EntityView, 0, len(entities)),
	}
	for _, e := range entities {
		snap.Entities = append(snap.Entities, entityView(e))
	}
	return snap
}

func entityView(e *domain.Entity) api.EntityView {
	view := api.EntityView{
		ID:   e.ID.Decimal(),
		Tags: e.Tags(),
	}
	if t := e.Transform(); t != nil {
		view.Pos.X = t.Position.X
		view.Pos.Y = t.Position.Y
	}
	if st := e.Stats(); st != nil {
		view.Stats = &api.StatsView{
			Health:    st.Health,
			MaxHealth: st.Current(domain.StatMaxHealth),
			Mana:      st.Mana,
			MaxMana:   st.Current(domain.StatMaxMana),
			IsDead:    !st.IsAlive(),
		}
	}
	if c := e.Combat(); c != nil {
		view.Combat = &api.CombatView{
			InCombat: c.InCombat,
			Stance:   c.Stance.String(),
		}
		if c.CurrentTarget.IsValid() {
			view.Combat.Target = c.CurrentTarget.Decimal()
		}
	}
	if ai := e.AI(); ai != nil {
		view.Action = ai.CurrentActionID
	}
	return view
}

// События симуляции, которые транслируются наблюдателям
var broadcastable = []events.EventType{
	events.EntityCreated,
	events.EntityDestroyed,
	events.EntityMoved,
	events.AttackStarted,
	events.AttackLanded,
	events.AttackMissed,
	events.EntityDied,
	events.CombatEntered,
	events.CombatExited,
	events.CombatStanceChanged,
	events.HealthChanged,
	events.ManaChanged,
	events.HealingPerformed,
	events.EffectApplied,
	events.EffectRemoved,
	events.AITargetAcquired,
	events.AITargetLost,
	events.AIActionChanged,
}

// bridgeEvents пересылает события шины всем подключенным наблюдателям.
// Обработчики зовутся из горутины run(), рассылка неблокирующая.
func (s *Service) bridgeEvents() {
	for _, et := range broadcastable {
		s.bus.Subscribe(et, func(ev events.Event) {
			view := eventView(ev)
			s.Hub.Broadcast(api.ServerResponse{
				Type:  api.MessageEvent,
				Time:  ev.Time,
				Event: &view,
			})
		})
	}
}

func eventView(ev events.Event) api.EventView {
	view := api.EventView{
		Type:     string(ev.Type),
		Amount:   ev.Amount,
		Critical: ev.Critical,
		ActionID: ev.ActionID,
		Time:     ev.Time,
	}
	if ev.Entity.IsValid() {
		view.Entity = ev.Entity.Decimal()
	}
	if ev.Source.IsValid() {
		view.Source = ev.Source.Decimal()
	}
	return view
}
