package world

import (
	"github.com/annel0/overworld/internal/entity"
	"github.com/annel0/overworld/internal/physics"
)

// TransitionData описывает запрошенный переход на другую карту
type TransitionData struct {
	Map   string
	Place string
}

// Trigger область карты, срабатывающая при входе главного игрока.
// Не блокирует движение. Если задано Event, вызывается событие из реестра
// карты, иначе запрашивается переход на Map/Place.
type Trigger struct {
	physics.Rect
	Name  string
	Map   string
	Place string
	Event string

	inside bool
}

// Bounds возвращает область триггера
func (t *Trigger) Bounds() physics.Rect { return t.Rect }

// CanCollideWith триггер не блокирует движение
func (t *Trigger) CanCollideWith(other physics.Collidable) bool { return false }

// MapEvent обработчик именованного события карты
type MapEvent func(l *Level, t *Trigger, e *entity.Entity)

// LevelEvents реестр именованных событий карты
type LevelEvents struct {
	events map[string]MapEvent
}

// NewLevelEvents создаёт пустой реестр
func NewLevelEvents() *LevelEvents {
	return &LevelEvents{events: make(map[string]MapEvent)}
}

// Register регистрирует событие, заменяя одноимённое
func (le *LevelEvents) Register(name string, ev MapEvent) {
	le.events[name] = ev
}

// Event возвращает событие по имени
func (le *LevelEvents) Event(name string) (MapEvent, bool) {
	ev, ok := le.events[name]
	return ev, ok
}

// AddTrigger регистрирует триггер на карте
func (l *Level) AddTrigger(t *Trigger) {
	l.triggers = append(l.triggers, t)
	l.dynamic.Insert(t)
}

// Transition запрашивает переход на другую карту. Сессия проверяет флаг
// после тика и заменяет уровень.
func (l *Level) Transition(mapName, place string) {
	l.transition = &TransitionData{Map: mapName, Place: place}
	l.logger.Info("Запрошен переход на %s/%s", mapName, place)
	l.emit(Event{Type: EventTransition, Map: mapName, Place: place})
}

// TransitionRequested сообщает, запрошен ли переход
func (l *Level) TransitionRequested() bool {
	return l.transition != nil
}

// TransitionData возвращает данные перехода
func (l *Level) TransitionData() (TransitionData, bool) {
	if l.transition == nil {
		return TransitionData{}, false
	}
	return *l.transition, true
}

// ClearTransition сбрасывает запрос перехода
func (l *Level) ClearTransition() {
	l.transition = nil
}

// checkTriggers срабатывает на вход главного игрока в триггер.
// Повторное срабатывание возможно только после выхода из области.
func (l *Level) checkTriggers() {
	p := l.mainPlayer
	if p == nil || len(l.triggers) == 0 {
		return
	}

	bounds := p.Bounds()
	alive := p.IsAlive()

	for _, t := range l.triggers {
		overlaps := alive && bounds.Overlaps(t.Rect)
		entered := overlaps && !t.inside
		t.inside = overlaps
		if !entered {
			continue
		}

		if t.Event != "" {
			if ev, ok := l.events.Event(t.Event); ok {
				ev(l, t, p)
			} else {
				l.logger.Warn("Триггер %s: событие %s не зарегистрировано", t.Name, t.Event)
			}
			continue
		}
		if t.Map != "" {
			l.Transition(t.Map, t.Place)
		}
	}
}
