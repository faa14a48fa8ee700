package spatial

import (
	"github.com/sirupsen/logrus"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/internal/events"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

// System держит сетку в согласии с трансформами мира.
//
// Основная синхронизация событийная: создание, уничтожение,
// навешивание/снятие трансформа и перемещение сразу отражаются в
// сетке. Update добирает сущности, заведенные в обход событий.
type System struct {
	grid      *Grid
	tracked   map[domain.EntityID]struct{}
	sysLogger *logrus.Entry
}

// NewSystem создает пространственную систему и подписывает ее на шину
// мира.
func NewSystem(w *engine.World, cellSize float64) *System {
	s := &System{
		grid:      NewGrid(cellSize),
		tracked:   make(map[domain.EntityID]struct{}),
		sysLogger: logger.Log.WithField("module", "spatial"),
	}

	bus := w.Bus()
	bus.Subscribe(events.EntityCreated, func(ev events.Event) {
		s.trackIfPositioned(w, ev.Entity)
	})
	bus.Subscribe(events.EntityDestroyed, func(ev events.Event) {
		s.untrack(ev.Entity)
	})
	bus.Subscribe(events.ComponentAdded, func(ev events.Event) {
		if ev.Component == domain.KindTransform {
			s.trackIfPositioned(w, ev.Entity)
		}
	})
	bus.Subscribe(events.ComponentRemoved, func(ev events.Event) {
		if ev.Component == domain.KindTransform {
			s.untrack(ev.Entity)
		}
	})
	bus.Subscribe(events.EntityMoved, func(ev events.Event) {
		if _, ok := s.tracked[ev.Entity]; ok {
			s.grid.Move(ev.Entity, ev.Position.X, ev.Position.Y)
		}
	})
	bus.Subscribe(events.EntityTeleported, func(ev events.Event) {
		if _, ok := s.tracked[ev.Entity]; ok {
			s.grid.Move(ev.Entity, ev.Position.X, ev.Position.Y)
		}
	})
	bus.Subscribe(events.WorldClearing, func(events.Event) {
		s.grid.Clear()
		s.tracked = make(map[domain.EntityID]struct{})
	})

	return s
}

// Grid дает прямой доступ к сетке для запросов других систем.
func (s *System) Grid() *Grid { return s.grid }

func (s *System) Name() string { return "spatial" }

// Priority держит сетку свежей до того, как ИИ и бой начнут запросы.
func (s *System) Priority() int { return 100 }

// Update - страховочная полная сверка: добирает неотслеживаемые
// сущности с трансформом и выбрасывает отслеживаемые без него.
func (s *System) Update(w *engine.World, dt float64) {
	for _, id := range w.EntitiesWith(domain.KindTransform) {
		if _, ok := s.tracked[id]; !ok {
			s.trackIfPositioned(w, id)
		}
	}
	for id := range s.tracked {
		e := w.Entity(id)
		if e == nil || !e.HasComponent(domain.KindTransform) {
			s.untrack(id)
		}
	}
}

func (s *System) trackIfPositioned(w *engine.World, id domain.EntityID) {
	e := w.Entity(id)
	if e == nil {
		return
	}
	t := e.Transform()
	if t == nil {
		return
	}
	if _, ok := s.tracked[id]; ok {
		s.grid.Move(id, t.Position.X, t.Position.Y)
		return
	}
	s.grid.Add(id, t.Position.X, t.Position.Y)
	s.tracked[id] = struct{}{}
	s.sysLogger.WithFields(logrus.Fields{
		"entity": id,
		"x":      t.Position.X,
		"y":      t.Position.Y,
	}).Debug("Сущность добавлена в сетку")
}

func (s *System) untrack(id domain.EntityID) {
	if _, ok := s.tracked[id]; !ok {
		return
	}
	s.grid.Remove(id)
	delete(s.tracked, id)
}
