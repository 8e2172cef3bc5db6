package entity

import (
	"testing"

	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
	"github.com/stretchr/testify/assert"
)

type countingBehavior struct {
	updates, dies, deads int
}

func (b *countingBehavior) Update(e *Entity, dt float64) { b.updates++ }
func (b *countingBehavior) OnDie(e *Entity)              { b.dies++ }
func (b *countingBehavior) OnDead(e *Entity)             { b.deads++ }

func TestEntity_DamageKillsMortal(t *testing.T) {
	e := New("octorok", TraitMortal|TraitCollidable, vec.Vec2Float{}, vec.Vec2Float{X: 16, Y: 16})
	e.Health = 3

	assert.False(t, e.Damage(2))
	assert.True(t, e.IsAlive())
	assert.True(t, e.Damage(5))
	assert.False(t, e.IsAlive())
	assert.Equal(t, 0, e.Health)
	assert.False(t, e.Damage(1), "Мёртвую сущность нельзя убить повторно")

	immortal := New("rock", TraitCollidable, vec.Vec2Float{}, vec.Vec2Float{X: 16, Y: 16})
	assert.False(t, immortal.Damage(100), "Урон действует только на смертных")
	assert.True(t, immortal.IsAlive())
}

func TestEntity_DyingSettlesAfterDuration(t *testing.T) {
	b := &countingBehavior{}
	e := New("octorok", TraitMortal, vec.Vec2Float{}, vec.Vec2Float{X: 16, Y: 16})
	e.Behavior = b
	e.DeathDuration = 0.5

	assert.False(t, e.IsFinallyDead(), "Живая сущность не может быть окончательно мёртвой")

	e.Kill()
	e.Die()
	assert.Equal(t, StateDying, e.Life())
	assert.Equal(t, 1, b.dies)
	assert.False(t, e.IsFinallyDead())

	e.Update(0.3)
	assert.False(t, e.IsFinallyDead())
	e.Update(0.3)
	assert.True(t, e.IsFinallyDead())
	assert.Equal(t, 2, b.updates)

	e.Dead()
	assert.Equal(t, 1, b.deads)

	e.Revive(4)
	assert.True(t, e.IsAlive())
	assert.Equal(t, StateAlive, e.Life())
}

func TestEntity_CanCollideWith(t *testing.T) {
	a := New("link", TraitCollidable, vec.Vec2Float{}, vec.Vec2Float{X: 16, Y: 16})
	b := New("octorok", TraitCollidable, vec.Vec2Float{}, vec.Vec2Float{X: 16, Y: 16})
	ghost := New("ghost", 0, vec.Vec2Float{}, vec.Vec2Float{X: 16, Y: 16})

	assert.True(t, a.CanCollideWith(b))
	assert.False(t, a.CanCollideWith(a), "Сущность не сталкивается сама с собой")
	assert.False(t, a.CanCollideWith(ghost), "Без TraitCollidable нет столкновений")
	assert.False(t, ghost.CanCollideWith(a))
	assert.True(t, a.CanCollideWith(physics.NewBox(0, 0, 1, 1, true)))
	assert.False(t, a.CanCollideWith(physics.NewBox(0, 0, 1, 1, false)))
	assert.False(t, a.CanCollideWith(&Hitbox{}), "Хитбоксы не блокируют движение")

	b.Kill()
	assert.False(t, a.CanCollideWith(b), "Мёртвые не блокируют")
}

func TestTrait_Parse(t *testing.T) {
	tr, ok := ParseTrait("mobile")
	assert.True(t, ok)
	assert.Equal(t, TraitMobile, tr)
	_, ok = ParseTrait("flying")
	assert.False(t, ok)
	assert.True(t, (TraitMobile | TraitMortal).Has(TraitMortal))
	assert.False(t, TraitMobile.Has(TraitMobile|TraitMortal))
}
