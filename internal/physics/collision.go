package physics

import (
	"github.com/annel0/overworld/internal/vec"
)

// Rect представляет выровненный по осям прямоугольник в пикселях уровня.
// X, Y задают левый верхний угол.
type Rect struct {
	X, Y float64
	W, H float64
}

// NewRect создаёт прямоугольник по позиции и размеру
func NewRect(pos vec.Vec2Float, size vec.Vec2Float) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: size.X, H: size.Y}
}

// Position возвращает левый верхний угол
func (r Rect) Position() vec.Vec2Float {
	return vec.Vec2Float{X: r.X, Y: r.Y}
}

// Center возвращает центр прямоугольника
func (r Rect) Center() vec.Vec2Float {
	return vec.Vec2Float{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Right возвращает правую границу
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom возвращает нижнюю границу
func (r Rect) Bottom() float64 { return r.Y + r.H }

// At возвращает копию прямоугольника, перенесённую в новую позицию
func (r Rect) At(pos vec.Vec2Float) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: r.W, H: r.H}
}

// Overlaps проверяет строгое пересечение: касание сторон пересечением не считается
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() &&
		r.Right() > o.X &&
		r.Y < o.Bottom() &&
		r.Bottom() > o.Y
}

// Intersects проверяет пересечение с учётом касания. Используется индексом,
// которому допустимо вернуть лишних кандидатов.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.Right() &&
		r.Right() >= o.X &&
		r.Y <= o.Bottom() &&
		r.Bottom() >= o.Y
}

// Contains проверяет, что прямоугольник o целиком лежит внутри r
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X &&
		o.Y >= r.Y &&
		o.Right() <= r.Right() &&
		o.Bottom() <= r.Bottom()
}

// Collidable описывает любой объект, участвующий в проверке столкновений.
// Идентичность объектов определяется указателем внутри интерфейса.
type Collidable interface {
	// Bounds возвращает текущие границы объекта
	Bounds() Rect

	// CanCollideWith сообщает, может ли объект блокировать движение other
	CanCollideWith(other Collidable) bool
}

// Box представляет статичный коллайдер: стену, препятствие или триггер
type Box struct {
	Rect
	Solid bool // Блокирует ли движение
	Tag   string
}

// NewBox создаёт коллайдер с указанными границами
func NewBox(x, y, w, h float64, solid bool) *Box {
	return &Box{Rect: Rect{X: x, Y: y, W: w, H: h}, Solid: solid}
}

// Bounds возвращает границы коллайдера
func (b *Box) Bounds() Rect {
	return b.Rect
}

// CanCollideWith для статичного коллайдера зависит только от его твёрдости
func (b *Box) CanCollideWith(other Collidable) bool {
	return b.Solid
}

// Collides проверяет, может ли a столкнуться с b и пересекаются ли их границы
func Collides(a, b Collidable) bool {
	if a == b {
		return false
	}
	return a.CanCollideWith(b) && a.Bounds().Overlaps(b.Bounds())
}
