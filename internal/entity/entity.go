package entity

import (
	"github.com/annel0/overworld/internal/pathfinding"
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
)

// Trait описывает способность сущности. Поведение выбирается по набору
// способностей, а не по иерархии типов.
type Trait uint8

const (
	TraitMobile       Trait = 1 << iota // Перемещается и имеет Motion
	TraitCollidable                     // Блокирует движение других
	TraitMortal                         // Может получить урон и умереть
	TraitAIControlled                   // Управляется Brain
)

// Has проверяет наличие всех указанных способностей
func (t Trait) Has(other Trait) bool {
	return t&other == other
}

// ParseTrait разбирает имя способности из описания вида
func ParseTrait(s string) (Trait, bool) {
	switch s {
	case "mobile":
		return TraitMobile, true
	case "collidable":
		return TraitCollidable, true
	case "mortal":
		return TraitMortal, true
	case "ai", "ai_controlled":
		return TraitAIControlled, true
	default:
		return 0, false
	}
}

// LifeState состояние жизненного цикла сущности
type LifeState uint8

const (
	StateAlive LifeState = iota // Живая, участвует в столкновениях
	StateDying                  // Умирает, ждёт окончания анимации смерти
)

// String возвращает имя состояния
func (s LifeState) String() string {
	if s == StateDying {
		return "dying"
	}
	return "alive"
}

// Space представляет уровень, в котором живёт сущность
type Space interface {
	// InBounds проверяет, что прямоугольник целиком внутри уровня
	InBounds(r physics.Rect) bool

	// CollidablesFor добавляет в out кандидатов на пересечение с r
	CollidablesFor(r physics.Rect, out []physics.Collidable) []physics.Collidable

	// AddCollidable регистрирует временный коллайдер (например, хитбокс атаки)
	AddCollidable(c physics.Collidable)

	// RemoveCollidable снимает временный коллайдер
	RemoveCollidable(c physics.Collidable)

	// RequestPath ставит запрос пути в очередь уровня
	RequestPath(from, to uint64) *pathfinding.Request

	// Lookup возвращает живую сущность по идентификатору
	Lookup(id uint64) (physics.Collidable, bool)

	// Resolution размер клетки сетки поиска пути в пикселях
	Resolution() int
}

// Behavior стратегия конкретного вида сущности
type Behavior interface {
	// Update вызывается каждый тик после обновления движения
	Update(e *Entity, dt float64)

	// OnDie вызывается при переходе в состояние умирания
	OnDie(e *Entity)

	// OnDead вызывается при окончательном удалении
	OnDead(e *Entity)
}

// Settler переопределяет условие окончательной смерти
type Settler interface {
	IsSettled(e *Entity) bool
}

// Entity представляет любого актёра уровня: игрока, монстра, растение
type Entity struct {
	ID            uint64        // Уникальный идентификатор, выдаётся уровнем
	Kind          string        // Имя вида
	Traits        Trait         // Набор способностей
	Position      vec.Vec2Float // Левый верхний угол в пикселях
	Size          vec.Vec2Float // Размер хитбокса
	Health        int
	Speed         float64  // Пикселей в секунду
	DeathDuration float64  // Сколько секунд длится умирание
	Motion        *Motion  // Не nil для TraitMobile
	Behavior      Behavior // Может быть nil
	Payload       map[string]interface{}

	alive      bool
	life       LifeState
	deathTimer float64
	space      Space
}

// DefaultSpeed скорость перемещения по умолчанию
const DefaultSpeed = 80.0

// New создаёт живую сущность
func New(kind string, traits Trait, pos, size vec.Vec2Float) *Entity {
	return &Entity{
		Kind:     kind,
		Traits:   traits,
		Position: pos,
		Size:     size,
		Health:   1,
		Speed:    DefaultSpeed,
		Payload:  make(map[string]interface{}),
		alive:    true,
		life:     StateAlive,
	}
}

// Bind привязывает сущность к уровню
func (e *Entity) Bind(space Space) {
	e.space = space
}

// Space возвращает уровень, к которому привязана сущность
func (e *Entity) Space() Space {
	return e.space
}

// Bounds возвращает хитбокс сущности
func (e *Entity) Bounds() physics.Rect {
	return physics.NewRect(e.Position, e.Size)
}

// IsMob сообщает, что сущность подвижна и обновляется через Motion
func (e *Entity) IsMob() bool {
	return e.Traits.Has(TraitMobile) && e.Motion != nil
}

// IsAlive сообщает, жива ли сущность логически
func (e *Entity) IsAlive() bool {
	return e.alive
}

// Life возвращает состояние жизненного цикла
func (e *Entity) Life() LifeState {
	return e.life
}

// CanCollideWith определяет, блокирует ли other движение этой сущности
func (e *Entity) CanCollideWith(other physics.Collidable) bool {
	if !e.alive || !e.Traits.Has(TraitCollidable) {
		return false
	}

	switch o := other.(type) {
	case *Entity:
		return o != e && o.alive && o.Traits.Has(TraitCollidable)
	default:
		return other.CanCollideWith(e)
	}
}

// Update обновляет сущность на один тик
func (e *Entity) Update(dt float64) {
	if e.life == StateDying {
		e.deathTimer -= dt
		if e.Behavior != nil {
			e.Behavior.Update(e, dt)
		}
		return
	}

	if e.Motion != nil {
		e.Motion.Update(dt)
	}
	if e.Behavior != nil {
		e.Behavior.Update(e, dt)
	}
}

// Damage наносит урон смертной сущности. Возвращает true, если сущность погибла.
func (e *Entity) Damage(amount int) bool {
	if !e.alive || !e.Traits.Has(TraitMortal) || amount <= 0 {
		return false
	}

	e.Health -= amount
	if e.Health <= 0 {
		e.Health = 0
		e.Kill()
		return true
	}
	return false
}

// Kill помечает сущность мёртвой. Уровень переведёт её в умирающие при ближайшем обходе.
func (e *Entity) Kill() {
	e.alive = false
}

// Die переводит сущность в состояние умирания
func (e *Entity) Die() {
	e.alive = false
	e.life = StateDying
	e.deathTimer = e.DeathDuration
	if e.Motion != nil {
		e.Motion.Reset()
	}
	if e.Behavior != nil {
		e.Behavior.OnDie(e)
	}
}

// IsFinallyDead сообщает, что умирание завершено и сущность можно удалить
func (e *Entity) IsFinallyDead() bool {
	if e.life != StateDying {
		return false
	}
	if s, ok := e.Behavior.(Settler); ok {
		return s.IsSettled(e)
	}
	return e.deathTimer <= 0
}

// Dead вызывается уровнем при окончательном удалении сущности
func (e *Entity) Dead() {
	if e.Behavior != nil {
		e.Behavior.OnDead(e)
	}
}

// Revive возвращает умершую сущность в живые (используется сессией для главного игрока)
func (e *Entity) Revive(health int) {
	e.alive = true
	e.life = StateAlive
	e.deathTimer = 0
	e.Health = health
}
