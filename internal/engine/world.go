package engine

import (
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/events"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

// freeSlot - освобожденный индекс сущности с поколением для повторного
// использования. Поколение отличает новую сущность от умершей с тем же
// индексом.
type freeSlot struct {
	index      uint64
	generation uint32
}

// World - реестр сущностей и индексов, единственный владелец общего
// состояния между тиками.
//
// Создание и уничтожение сущностей всегда откладывается до границы
// тика: системы итерируют индексы, и мутация посреди итерации их бы
// инвалидировала.
type World struct {
	entities map[domain.EntityID]*domain.Entity

	pendingCreate  []*domain.Entity
	pendingDestroy []domain.EntityID
	destroySet     map[domain.EntityID]struct{}

	componentIndex map[domain.ComponentKind]map[domain.EntityID]struct{}
	tagIndex       map[string]map[domain.EntityID]struct{}

	systems []System

	bus *events.Bus
	rng *rand.Rand

	gameTime  float64
	nextIndex uint64
	freeSlots []freeSlot

	// Произвольные флаги мира (день/ночь, глобальные квестовые отметки)
	flags map[string]any

	worldLogger *logrus.Entry
}

// NewWorld создает пустой мир с шиной и зерном из конфига.
func NewWorld(cfg Config, bus *events.Bus) *World {
	return &World{
		entities:       make(map[domain.EntityID]*domain.Entity),
		destroySet:     make(map[domain.EntityID]struct{}),
		componentIndex: make(map[domain.ComponentKind]map[domain.EntityID]struct{}),
		tagIndex:       make(map[string]map[domain.EntityID]struct{}),
		bus:            bus,
		rng:            rand.New(rand.NewSource(cfg.Seed)),
		nextIndex:      1, // индекс 0 зарезервирован под NoEntity
		flags:          make(map[string]any),
		worldLogger:    logger.Log.WithField("module", "world"),
	}
}

// Bus возвращает шину событий мира.
func (w *World) Bus() *events.Bus { return w.bus }

// RNG возвращает генератор случайностей мира. Все системы обязаны
// брать случайность отсюда, иначе воспроизводимость по зерну ломается.
func (w *World) RNG() *rand.Rand { return w.rng }

// GameTime возвращает накопленное игровое время в секундах.
func (w *World) GameTime() float64 { return w.gameTime }

// --- ЖИЗНЕННЫЙ ЦИКЛ СУЩНОСТЕЙ ---

// CreateEntity выделяет идентификатор и ставит сущность в очередь
// активации. До ближайшего Update сущность не видна в индексах;
// компоненты можно навешивать на возвращенный объект сразу.
func (w *World) CreateEntity() *domain.Entity {
	var id domain.EntityID
	if n := len(w.freeSlots); n > 0 {
		slot := w.freeSlots[n-1]
		w.freeSlots = w.freeSlots[:n-1]
		id = domain.PackEntityID(slot.generation, slot.index)
	} else {
		id = domain.PackEntityID(0, w.nextIndex)
		w.nextIndex++
	}
	e := domain.NewEntity(id)
	w.pendingCreate = append(w.pendingCreate, e)
	return e
}

// DestroyEntity ставит сущность в очередь удаления. Фактическая чистка
// и событие entity_destroyed происходят на границе следующего тика.
// Несуществующая сущность - no-op с false.
func (w *World) DestroyEntity(id domain.EntityID) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	if _, queued := w.destroySet[id]; queued {
		return true
	}
	w.destroySet[id] = struct{}{}
	w.pendingDestroy = append(w.pendingDestroy, id)
	return true
}

// ImportEntity ставит восстановленную из снапшота сущность в очередь
// активации. Счетчик индексов сдвигается, чтобы свежесозданные ID не
// пересекались с загруженными.
func (w *World) ImportEntity(e *domain.Entity) {
	if idx := e.ID.Index(); idx >= w.nextIndex {
		w.nextIndex = idx + 1
	}
	w.pendingCreate = append(w.pendingCreate, e)
}

// SetGameTime восстанавливает игровое время из снапшота.
func (w *World) SetGameTime(t float64) { w.gameTime = t }

// Entity возвращает активную сущность или nil.
func (w *World) Entity(id domain.EntityID) *domain.Entity {
	return w.entities[id]
}

// EntityCount возвращает число активных сущностей.
func (w *World) EntityCount() int { return len(w.entities) }

// --- КОМПОНЕНТЫ И ИНДЕКСЫ ---

// AddComponent навешивает компонент на активную сущность, атомарно
// обновляя индекс, и эмитит component_added.
func (w *World) AddComponent(id domain.EntityID, c domain.Component) bool {
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	e.SetComponent(c)
	w.indexComponent(id, c.Kind())
	w.bus.Emit(events.Event{
		Type:      events.ComponentAdded,
		Entity:    id,
		Component: c.Kind(),
		Time:      w.gameTime,
	})
	return true
}

// RemoveComponent снимает компонент с активной сущности и обновляет
// индекс. Отсутствие компонента - no-op с false.
func (w *World) RemoveComponent(id domain.EntityID, kind domain.ComponentKind) bool {
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	if e.RemoveComponent(kind) == nil {
		return false
	}
	w.unindexComponent(id, kind)
	w.bus.Emit(events.Event{
		Type:      events.ComponentRemoved,
		Entity:    id,
		Component: kind,
		Time:      w.gameTime,
	})
	return true
}

// EntitiesWith возвращает активные сущности, несущие все указанные
// компоненты. Пересечение засевается наименьшим индексом, результат
// отсортирован по ID для детерминизма.
func (w *World) EntitiesWith(kinds ...domain.ComponentKind) []domain.EntityID {
	if len(kinds) == 0 {
		return nil
	}

	// Ищем наименьшее множество
	var seed map[domain.EntityID]struct{}
	for _, kind := range kinds {
		set, ok := w.componentIndex[kind]
		if !ok || len(set) == 0 {
			return nil
		}
		if seed == nil || len(set) < len(seed) {
			seed = set
		}
	}

	result := make([]domain.EntityID, 0, len(seed))
	for id := range seed {
		e := w.entities[id]
		if e != nil && e.HasComponents(kinds...) {
			result = append(result, id)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// TagEntity вешает тег на активную сущность и обновляет индекс тегов.
func (w *World) TagEntity(id domain.EntityID, tag string) bool {
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	e.AddTag(tag)
	set, ok := w.tagIndex[tag]
	if !ok {
		set = make(map[domain.EntityID]struct{})
		w.tagIndex[tag] = set
	}
	set[id] = struct{}{}
	return true
}

// UntagEntity снимает тег с сущности.
func (w *World) UntagEntity(id domain.EntityID, tag string) bool {
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	e.RemoveTag(tag)
	if set, ok := w.tagIndex[tag]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(w.tagIndex, tag)
		}
	}
	return true
}

// EntitiesWithTag возвращает сущности с тегом, отсортированные по ID.
func (w *World) EntitiesWithTag(tag string) []domain.EntityID {
	set := w.tagIndex[tag]
	if len(set) == 0 {
		return nil
	}
	result := make([]domain.EntityID, 0, len(set))
	for id := range set {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// --- ФЛАГИ МИРА ---

// SetFlag сохраняет произвольный флаг мира.
func (w *World) SetFlag(name string, value any) {
	w.flags[name] = value
}

// Flag возвращает флаг мира.
func (w *World) Flag(name string) (any, bool) {
	v, ok := w.flags[name]
	return v, ok
}

// --- СИСТЕМЫ ---

// AddSystem регистрирует систему. Системы вызываются по убыванию
// приоритета; при равенстве сохраняется порядок регистрации.
func (w *World) AddSystem(s System) {
	w.systems = append(w.systems, s)
	sort.SliceStable(w.systems, func(i, j int) bool {
		return w.systems[i].Priority() > w.systems[j].Priority()
	})
	w.worldLogger.WithFields(logrus.Fields{
		"system":   s.Name(),
		"priority": s.Priority(),
	}).Info("Система зарегистрирована")
}

// --- ШАГ СИМУЛЯЦИИ ---

// Update продвигает мир на dt: активирует отложенные сущности,
// вычищает отложенные удаления, затем обновляет системы по приоритету.
// В конце шага доставляются все отложенные события.
func (w *World) Update(dt float64) {
	w.applyPendingCreations()
	w.applyPendingRemovals()

	w.gameTime += dt

	for _, s := range w.systems {
		s.Update(w, dt)
	}

	w.bus.Flush()
}

func (w *World) applyPendingCreations() {
	if len(w.pendingCreate) == 0 {
		return
	}
	created := w.pendingCreate
	w.pendingCreate = nil
	for _, e := range created {
		e.Active = true
		w.entities[e.ID] = e
		for _, kind := range e.Kinds() {
			w.indexComponent(e.ID, kind)
		}
		for _, tag := range e.Tags() {
			set, ok := w.tagIndex[tag]
			if !ok {
				set = make(map[domain.EntityID]struct{})
				w.tagIndex[tag] = set
			}
			set[e.ID] = struct{}{}
		}
		w.bus.Emit(events.Event{Type: events.EntityCreated, Entity: e.ID, Time: w.gameTime})
	}
}

func (w *World) applyPendingRemovals() {
	if len(w.pendingDestroy) == 0 {
		return
	}
	removed := w.pendingDestroy
	w.pendingDestroy = nil
	for _, id := range removed {
		delete(w.destroySet, id)
		e, ok := w.entities[id]
		if !ok {
			continue
		}
		for _, kind := range e.Kinds() {
			w.unindexComponent(id, kind)
		}
		for _, tag := range e.Tags() {
			if set, ok := w.tagIndex[tag]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(w.tagIndex, tag)
				}
			}
		}
		e.Active = false
		delete(w.entities, id)
		w.freeSlots = append(w.freeSlots, freeSlot{
			index:      id.Index(),
			generation: id.Generation() + 1,
		})
		// Событие уходит в момент чистки, не в момент вызова DestroyEntity
		w.bus.Emit(events.Event{Type: events.EntityDestroyed, Entity: id, Time: w.gameTime})
	}
}

// Clear сносит все сущности немедленно. Используется при перезагрузке
// сцены, когда никакие системы не итерируют мир.
func (w *World) Clear() {
	w.bus.Emit(events.Event{Type: events.WorldClearing, Time: w.gameTime})

	w.entities = make(map[domain.EntityID]*domain.Entity)
	w.pendingCreate = nil
	w.pendingDestroy = nil
	w.destroySet = make(map[domain.EntityID]struct{})
	w.componentIndex = make(map[domain.ComponentKind]map[domain.EntityID]struct{})
	w.tagIndex = make(map[string]map[domain.EntityID]struct{})
	w.freeSlots = nil
	w.nextIndex = 1

	w.bus.Emit(events.Event{Type: events.WorldCleared, Time: w.gameTime})
}

// Entities возвращает все активные сущности, отсортированные по ID.
// Используется снапшотами и отладочными срезами.
func (w *World) Entities() []*domain.Entity {
	ids := make([]domain.EntityID, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	result := make([]*domain.Entity, len(ids))
	for i, id := range ids {
		result[i] = w.entities[id]
	}
	return result
}

func (w *World) indexComponent(id domain.EntityID, kind domain.ComponentKind) {
	set, ok := w.componentIndex[kind]
	if !ok {
		set = make(map[domain.EntityID]struct{})
		w.componentIndex[kind] = set
	}
	set[id] = struct{}{}
}

func (w *World) unindexComponent(id domain.EntityID, kind domain.ComponentKind) {
	if set, ok := w.componentIndex[kind]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(w.componentIndex, kind)
		}
	}
}
