package world

import (
	"github.com/annel0/overworld/internal/pathfinding"
	"github.com/annel0/overworld/internal/vec"
)

// EventType определяет тип события уровня
type EventType uint8

const (
	EventActorSpawned   EventType = iota // Актёр добавлен на уровень
	EventActorDied                       // Актёр перешёл в умирающие
	EventActorFinalized                  // Умирание завершено, актёр удалён
	EventPathResolved                    // Запрос пути завершён
	EventTransition                      // Запрошен переход на другую карту
)

// String возвращает имя события для шины событий
func (t EventType) String() string {
	switch t {
	case EventActorSpawned:
		return "actor.spawned"
	case EventActorDied:
		return "actor.died"
	case EventActorFinalized:
		return "actor.finalized"
	case EventPathResolved:
		return "path.resolved"
	case EventTransition:
		return "level.transition"
	default:
		return "unknown"
	}
}

// Event событие уровня. Заполняются только поля, относящиеся к типу.
type Event struct {
	Type     EventType
	Tick     uint64
	EntityID uint64        // Актёр события
	Kind     string        // Вид актёра
	Position vec.Vec2Float // Позиция актёра в момент события

	Request *pathfinding.Request // Для EventPathResolved

	Map   string // Для EventTransition
	Place string
}

// Listener получает события уровня синхронно в потоке тика
type Listener func(ev Event)

// emit рассылает событие всем подписчикам
func (l *Level) emit(ev Event) {
	if len(l.listeners) == 0 {
		return
	}
	ev.Tick = l.tick
	for _, fn := range l.listeners {
		fn(ev)
	}
}

// pathResolved вызывается поиском пути при завершении запроса
func (l *Level) pathResolved(req *pathfinding.Request) {
	l.emit(Event{Type: EventPathResolved, EntityID: req.From, Request: req})
}
