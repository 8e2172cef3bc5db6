package entity

import (
	"github.com/annel0/overworld/internal/pathfinding"
)

// Chaser - простой ИИ преследования: запрашивает путь до цели, идёт по нему
// и перезапрашивает путь после прохождения или неудачи.
type Chaser struct {
	Owner          *Entity
	Target         uint64
	RepathCooldown float64 // Пауза перед новым запросом после неудачи, в секундах

	path     *pathfinding.Request
	cooldown float64
}

// NewChaser создаёт ИИ преследования цели
func NewChaser(owner *Entity, target uint64) *Chaser {
	return &Chaser{
		Owner:          owner,
		Target:         target,
		RepathCooldown: 1.0,
	}
}

// Path возвращает текущий запрос пути
func (c *Chaser) Path() *pathfinding.Request { return c.path }

// Move двигает владельца по готовому пути
func (c *Chaser) Move(dt float64) {
	if c.path == nil || !c.path.Ready() || !c.path.Found() {
		return
	}
	if c.Owner.Motion.FollowPath(c.path, dt) {
		c.path = nil
	}
}

// Update следит за состоянием запроса и при необходимости создаёт новый
func (c *Chaser) Update(dt float64) {
	space := c.Owner.Space()
	if space == nil {
		return
	}

	if c.cooldown > 0 {
		c.cooldown -= dt
		return
	}

	if c.path != nil {
		if !c.path.Ready() {
			return
		}
		if c.path.Found() {
			return
		}
		// Цель недостижима или исчезла: ждём перед следующей попыткой
		c.path = nil
		c.cooldown = c.RepathCooldown
		return
	}

	if _, ok := space.Lookup(c.Target); !ok {
		return
	}
	c.path = space.RequestPath(c.Owner.ID, c.Target)
}
