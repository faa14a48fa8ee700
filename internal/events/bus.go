package events

import (
	"github.com/sirupsen/logrus"

	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

// Handler - подписчик на события одного типа.
type Handler func(Event)

// SubscriptionID идентифицирует подписку для отписки.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus - синхронная внутрипроцессная шина событий.
//
// Два режима доставки выбираются вызывающей стороной:
//   - Emit: немедленный вызов всех подписчиков до возврата;
//   - EmitDeferred: событие встает в очередь до Flush.
//
// Отложенный режим нужен, когда эмиссия происходит посреди итерации
// по индексам мира и обработчики не должны их мутировать.
//
// Шина не потокобезопасна: ядро симуляции однопоточное.
type Bus struct {
	subscribers map[EventType][]subscription
	queue       []Event
	deferred    bool
	nextSubID   SubscriptionID
	busLogger   *logrus.Entry
}

// NewBus создает пустую шину.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]subscription),
		nextSubID:   1,
		busLogger:   logger.Log.WithField("module", "events"),
	}
}

// Subscribe регистрирует обработчик. Порядок вызова - порядок подписки.
func (b *Bus) Subscribe(eventType EventType, handler Handler) SubscriptionID {
	id := b.nextSubID
	b.nextSubID++
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe снимает подписку. Возвращает false, если ее не было.
func (b *Bus) Unsubscribe(eventType EventType, id SubscriptionID) bool {
	subs := b.subscribers[eventType]
	for i, sub := range subs {
		if sub.id == id {
			b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Emit немедленно доставляет событие всем подписчикам.
// В отложенном режиме шины событие вместо этого встает в очередь.
func (b *Bus) Emit(ev Event) {
	if b.deferred {
		b.queue = append(b.queue, ev)
		return
	}
	b.dispatch(ev)
}

// SetDeferred переключает отложенный режим всей шины. Выключение
// режима не вызывает Flush: накопленную очередь доставляют явно.
func (b *Bus) SetDeferred(on bool) { b.deferred = on }

// Deferred сообщает, включен ли отложенный режим.
func (b *Bus) Deferred() bool { return b.deferred }

// EmitDeferred ставит событие в очередь до ближайшего Flush.
func (b *Bus) EmitDeferred(ev Event) {
	b.queue = append(b.queue, ev)
}

// Flush доставляет все отложенные события в порядке постановки.
// События, отложенные обработчиками во время Flush, доставляются
// в этом же вызове. Возвращает число доставленных.
func (b *Bus) Flush() int {
	delivered := 0
	for len(b.queue) > 0 {
		pending := b.queue
		b.queue = nil
		for _, ev := range pending {
			b.dispatch(ev)
			delivered++
		}
	}
	return delivered
}

// PendingCount возвращает длину очереди отложенных событий.
func (b *Bus) PendingCount() int {
	return len(b.queue)
}

// dispatch вызывает подписчиков; паника одного обработчика
// логируется и не прерывает доставку остальным.
func (b *Bus) dispatch(ev Event) {
	for _, sub := range b.subscribers[ev.Type] {
		b.safeCall(sub, ev)
	}
}

func (b *Bus) safeCall(sub subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.busLogger.WithFields(logrus.Fields{
				"event_type":   ev.Type,
				"subscription": sub.id,
				"panic":        r,
			}).Error("Обработчик события аварийно завершился")
		}
	}()
	sub.handler(ev)
}
