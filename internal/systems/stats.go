package systems

import (
	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/internal/events"
)

// DefaultManaRegenRate - восстановление маны в секунду вне боя.
const DefaultManaRegenRate = 1.0

// StatsSystem обслуживает характеристики: снимает истекшие
// модификаторы и эффекты по игровому времени и капает ману.
type StatsSystem struct {
	ManaRegenRate float64
}

func NewStatsSystem() *StatsSystem {
	return &StatsSystem{ManaRegenRate: DefaultManaRegenRate}
}

func (s *StatsSystem) Name() string { return "stats" }

// Priority выше боя и ИИ: решения тика видят уже очищенные статы.
func (s *StatsSystem) Priority() int { return 80 }

func (s *StatsSystem) Update(w *engine.World, dt float64) {
	now := w.GameTime()
	for _, id := range w.EntitiesWith(domain.KindCharacterStats) {
		e := w.Entity(id)
		stats := e.Stats()

		if stats.ExpireModifiers(now)+stats.ExpireStatusEffects(now) > 0 {
			w.Bus().Emit(events.Event{
				Type:   events.EffectRemoved,
				Entity: id,
				Time:   now,
			})
		}

		if !stats.IsAlive() {
			continue
		}

		// Регенерация маны приостанавливается в бою
		inCombat := false
		if c := e.Combat(); c != nil {
			inCombat = c.InCombat
		}
		if !inCombat && s.ManaRegenRate > 0 {
			if restored := stats.RestoreMana(s.ManaRegenRate * dt); restored > 0 {
				w.Bus().Emit(events.Event{
					Type:   events.ManaChanged,
					Entity: id,
					Amount: restored,
					Time:   now,
				})
			}
		}
	}
}
