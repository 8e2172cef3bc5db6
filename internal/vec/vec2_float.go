package vec

import "math"

// Vec2Float точка или смещение в пикселях уровня
type Vec2Float struct {
	X, Y float64
}

// Cell возвращает клетку сетки со стороной resolution, содержащую точку
func (v Vec2Float) Cell(resolution int) Vec2 {
	r := float64(resolution)
	return Vec2{X: int(math.Floor(v.X / r)), Y: int(math.Floor(v.Y / r))}
}

func (v Vec2Float) Add(o Vec2Float) Vec2Float { return Vec2Float{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2Float) Sub(o Vec2Float) Vec2Float { return Vec2Float{X: v.X - o.X, Y: v.Y - o.Y} }

// Mul масштабирует смещение
func (v Vec2Float) Mul(k float64) Vec2Float { return Vec2Float{X: v.X * k, Y: v.Y * k} }

// DistanceTo евклидово расстояние в пикселях
func (v Vec2Float) DistanceTo(o Vec2Float) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}
