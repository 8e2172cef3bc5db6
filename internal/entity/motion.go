package entity

import (
	"errors"
	"math"

	"github.com/annel0/overworld/internal/pathfinding"
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
)

var (
	// ErrSameActivity возвращается при попытке сменить занятие на текущее
	ErrSameActivity = errors.New("activity is already current")
	// ErrNilActivity возвращается при попытке сменить занятие на nil
	ErrNilActivity = errors.New("activity is nil")
)

// Brain представляет ИИ подвижной сущности. Поведение конкретных видов
// реализуется вне ядра симуляции.
type Brain interface {
	// Move вызывается первым: здесь ИИ двигает сущность через TryMove
	Move(dt float64)

	// Update вызывается после фиксации направления взгляда
	Update(dt float64)
}

// Motion управляет занятиями и перемещением подвижной сущности.
// Новая позиция применяется пробно и откатывается при столкновении.
type Motion struct {
	owner           *Entity
	facing          vec.Dir
	facingCandidate vec.Dir
	moving          bool
	idle            Activity
	current         Activity
	activities      map[string]Activity
	brain           Brain
	scratch         []physics.Collidable
}

// NewMotion создаёт контроллер движения и подключает его к сущности
func NewMotion(owner *Entity, idle Activity) *Motion {
	if idle == nil {
		idle = NewIdleActivity()
	}

	m := &Motion{
		owner:           owner,
		facing:          vec.DirUp,
		facingCandidate: vec.DirNone,
		idle:            idle,
		current:         idle,
		activities:      map[string]Activity{"idle": idle},
	}
	owner.Motion = m
	owner.Traits |= TraitMobile
	return m
}

// SetBrain назначает ИИ
func (m *Motion) SetBrain(brain Brain) {
	m.brain = brain
	if brain != nil {
		m.owner.Traits |= TraitAIControlled
	}
}

// Brain возвращает назначенный ИИ
func (m *Motion) Brain() Brain { return m.brain }

// Facing возвращает зафиксированное направление взгляда
func (m *Motion) Facing() vec.Dir { return m.facing }

// SetFacing принудительно задаёт направление взгляда
func (m *Motion) SetFacing(d vec.Dir) {
	if d.Valid() {
		m.facing = d
	}
}

// FacingCandidate возвращает направление, которое будет зафиксировано в конце фазы движения
func (m *Motion) FacingCandidate() vec.Dir { return m.facingCandidate }

// Moving сообщает, сдвинулась ли сущность в текущем тике
func (m *Motion) Moving() bool { return m.moving }

// Current возвращает активное занятие
func (m *Motion) Current() Activity { return m.current }

// Idle возвращает занятие бездействия
func (m *Motion) Idle() Activity { return m.idle }

// RegisterActivity добавляет именованное занятие
func (m *Motion) RegisterActivity(name string, a Activity) {
	m.activities[name] = a
}

// Activity возвращает занятие по имени
func (m *Motion) Activity(name string) (Activity, bool) {
	a, ok := m.activities[name]
	return a, ok
}

// ChangeActivity завершает текущее занятие и начинает next
func (m *Motion) ChangeActivity(next Activity) error {
	if next == nil {
		return ErrNilActivity
	}
	if next == m.current {
		return ErrSameActivity
	}

	m.current.Leave()
	m.current = next
	m.current.Enter()
	return nil
}

// Reset прерывает текущее занятие и возвращает бездействие. Коллайдеры,
// прикреплённые занятием, снимаются с уровня через Leave.
func (m *Motion) Reset() {
	if m.current != m.idle {
		_ = m.ChangeActivity(m.idle)
	}
	m.moving = false
	m.facingCandidate = vec.DirNone
}

// CanMove сообщает, может ли сущность получать команды движения
func (m *Motion) CanMove() bool {
	return m.owner.IsAlive() && !m.current.IsBlocking()
}

// Hitbox возвращает хитбокс текущего занятия
func (m *Motion) Hitbox() physics.Collidable {
	return m.current.CurrentHitbox()
}

// Attach регистрирует временный коллайдер в уровне
func (m *Motion) Attach(c physics.Collidable) {
	if m.owner.space != nil {
		m.owner.space.AddCollidable(c)
	}
}

// Detach снимает временный коллайдер
func (m *Motion) Detach(c physics.Collidable) {
	if m.owner.space != nil {
		m.owner.space.RemoveCollidable(c)
	}
}

// Update обновляет занятие и ИИ на один тик
func (m *Motion) Update(dt float64) {
	m.moving = false

	if m.current.IsFinished() && m.current != m.idle {
		_ = m.ChangeActivity(m.idle)
	}

	if m.CanMove() && m.brain != nil {
		m.brain.Move(dt)

		// Направление фиксируется один раз за тик, чтобы несколько попыток
		// движения в одном тике не дёргали взгляд
		if m.facingCandidate != vec.DirNone {
			m.facing = m.facingCandidate
			m.facingCandidate = vec.DirNone
		}

		m.brain.Update(dt)
	}

	m.current.Update(dt)
}

// TryMove пробует сдвинуть сущность в направлении dir на dt*Speed пикселей
func (m *Motion) TryMove(dir vec.Dir, dt float64) bool {
	return m.move(dir, dt*m.owner.Speed)
}

// move пробно применяет смещение и откатывает его при столкновении
func (m *Motion) move(dir vec.Dir, distance float64) bool {
	if !dir.Valid() {
		return false
	}

	if m.facing == dir || m.facingCandidate == vec.DirNone {
		m.facingCandidate = dir
	}

	e := m.owner
	space := e.space
	if space == nil {
		return false
	}

	newPosition := e.Position.Add(dir.Vector().Mul(distance))
	if !space.InBounds(e.Bounds().At(newPosition)) {
		return false
	}

	oldPosition := e.Position
	e.Position = newPosition

	bounds := e.Bounds()
	m.scratch = space.CollidablesFor(bounds, m.scratch[:0])

	for _, c := range m.scratch {
		if c != e && e.CanCollideWith(c) && bounds.Overlaps(c.Bounds()) {
			e.Position = oldPosition
			return false
		}
	}

	m.moving = true
	return true
}

// MoveTowards двигает сущность к точке по доминирующей оси, а при
// столкновении пробует вторую ось
func (m *Motion) MoveTowards(target vec.Vec2Float, dt float64) bool {
	delta := target.Sub(m.owner.Position)
	step := dt * m.owner.Speed

	primary, secondary := axisDirs(delta)
	if primary == vec.DirNone {
		return false
	}
	if m.move(primary, math.Min(step, axisDistance(delta, primary))) {
		return true
	}
	if secondary == vec.DirNone {
		return false
	}
	return m.move(secondary, math.Min(step, axisDistance(delta, secondary)))
}

// FollowPath ведёт сущность по клеткам найденного пути. Возвращает true,
// когда путь пройден или им невозможно воспользоваться.
func (m *Motion) FollowPath(req *pathfinding.Request, dt float64) bool {
	if req == nil || !req.Ready() || !req.Found() || m.owner.space == nil {
		return true
	}

	resolution := m.owner.space.Resolution()
	for {
		cell, ok := req.NextWaypoint()
		if !ok {
			return true
		}

		target := cell.Scale(resolution)
		delta := target.Sub(m.owner.Position)
		if math.Abs(delta.X) < 0.01 && math.Abs(delta.Y) < 0.01 {
			req.ReachWaypoint()
			continue
		}

		m.MoveTowards(target, dt)
		return false
	}
}

func axisDirs(delta vec.Vec2Float) (vec.Dir, vec.Dir) {
	primary := vec.DirTowards(delta)
	var secondary vec.Dir = vec.DirNone

	switch primary {
	case vec.DirLeft, vec.DirRight:
		secondary = vec.DirTowards(vec.Vec2Float{Y: delta.Y})
	case vec.DirUp, vec.DirDown:
		secondary = vec.DirTowards(vec.Vec2Float{X: delta.X})
	}
	return primary, secondary
}

func axisDistance(delta vec.Vec2Float, d vec.Dir) float64 {
	switch d {
	case vec.DirLeft, vec.DirRight:
		return math.Abs(delta.X)
	default:
		return math.Abs(delta.Y)
	}
}
