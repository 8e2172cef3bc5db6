package entity

import (
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
)

// Activity представляет текущее занятие подвижной сущности (бездействие, атака...).
// У Motion в каждый момент ровно одно активное занятие.
type Activity interface {
	Enter()
	Leave()
	Update(dt float64)
	Render()
	IsFinished() bool
	IsBlocking() bool
	// CurrentHitbox возвращает хитбокс занятия или nil
	CurrentHitbox() physics.Collidable
}

// IdleActivity - состояние бездействия. Никогда не завершается и не блокирует движение.
type IdleActivity struct {
	TimeInState float64
}

// NewIdleActivity создаёт состояние бездействия
func NewIdleActivity() *IdleActivity {
	return &IdleActivity{}
}

func (a *IdleActivity) Enter() {
	a.TimeInState = 0
}

func (a *IdleActivity) Leave() {}

func (a *IdleActivity) Update(dt float64) {
	a.TimeInState += dt
}

func (a *IdleActivity) Render() {}

func (a *IdleActivity) IsFinished() bool { return false }

func (a *IdleActivity) IsBlocking() bool { return false }

func (a *IdleActivity) CurrentHitbox() physics.Collidable { return nil }

// Hitbox представляет временный коллайдер удара. Он не блокирует движение,
// но находится запросами столкновений, например при проверке попаданий.
type Hitbox struct {
	physics.Rect
	Owner  *Entity
	Damage int
}

// Bounds возвращает границы хитбокса
func (h *Hitbox) Bounds() physics.Rect { return h.Rect }

// CanCollideWith хитбокс никогда не блокирует движение
func (h *Hitbox) CanCollideWith(other physics.Collidable) bool { return false }

// TimedActivity - занятие фиксированной длительности, например удар мечом.
// Если задан Reach, на время занятия перед владельцем выставляется хитбокс.
type TimedActivity struct {
	Name        string
	Duration    float64
	Blocking    bool
	Reach       float64 // Длина хитбокса перед владельцем, 0 - без хитбокса
	Damage      int
	TimeInState float64

	owner  *Entity
	hitbox *Hitbox
}

// NewTimedActivity создаёт занятие указанной длительности
func NewTimedActivity(owner *Entity, name string, duration float64, blocking bool) *TimedActivity {
	return &TimedActivity{
		Name:     name,
		Duration: duration,
		Blocking: blocking,
		owner:    owner,
	}
}

func (a *TimedActivity) Enter() {
	a.TimeInState = 0
	if a.Reach <= 0 || a.owner == nil || a.owner.space == nil {
		return
	}

	a.hitbox = &Hitbox{Owner: a.owner, Damage: a.Damage}
	a.placeHitbox()
	a.owner.space.AddCollidable(a.hitbox)
}

func (a *TimedActivity) Leave() {
	if a.hitbox == nil {
		return
	}
	if a.owner.space != nil {
		a.owner.space.RemoveCollidable(a.hitbox)
	}
	a.hitbox = nil
}

func (a *TimedActivity) Update(dt float64) {
	a.TimeInState += dt
}

func (a *TimedActivity) Render() {}

func (a *TimedActivity) IsFinished() bool {
	return a.TimeInState >= a.Duration
}

func (a *TimedActivity) IsBlocking() bool {
	return a.Blocking
}

func (a *TimedActivity) CurrentHitbox() physics.Collidable {
	if a.hitbox == nil {
		return nil
	}
	return a.hitbox
}

// placeHitbox выставляет хитбокс вплотную к стороне, куда смотрит владелец
func (a *TimedActivity) placeHitbox() {
	b := a.owner.Bounds()
	facing := vec.DirDown
	if a.owner.Motion != nil {
		facing = a.owner.Motion.Facing()
	}

	switch facing {
	case vec.DirUp:
		a.hitbox.Rect = physics.Rect{X: b.X, Y: b.Y - a.Reach, W: b.W, H: a.Reach}
	case vec.DirRight:
		a.hitbox.Rect = physics.Rect{X: b.Right(), Y: b.Y, W: a.Reach, H: b.H}
	case vec.DirLeft:
		a.hitbox.Rect = physics.Rect{X: b.X - a.Reach, Y: b.Y, W: a.Reach, H: b.H}
	default:
		a.hitbox.Rect = physics.Rect{X: b.X, Y: b.Bottom(), W: b.W, H: a.Reach}
	}
}
