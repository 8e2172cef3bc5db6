package gen

import (
	"github.com/annel0/overworld/internal/vec"
	"github.com/aquilax/go-perlin"
)

// Noise генератор шума Перлина для раскладки препятствий
type Noise struct {
	Seed  int64
	Scale float64 // Масштаб координат клетки (меньше - крупнее пятна)

	perlin *perlin.Perlin
}

// NewNoise создаёт генератор с указанным сидом
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{
		Seed:   seed,
		Scale:  0.15,
		perlin: perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Value возвращает значение шума для клетки в диапазоне от 0 до 1
func (n *Noise) Value(cell vec.Vec2) float64 {
	v := n.perlin.Noise2D(float64(cell.X)*n.Scale, float64(cell.Y)*n.Scale)
	v = (v + 1.0) / 2.0
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Obstacles возвращает клетки сетки cols×rows, где шум выше threshold.
// Клетки, для которых keep возвращает true, всегда остаются свободными.
func (n *Noise) Obstacles(cols, rows int, threshold float64, keep func(cell vec.Vec2) bool) []vec.Vec2 {
	var cells []vec.Vec2
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			cell := vec.Vec2{X: x, Y: y}
			if keep != nil && keep(cell) {
				continue
			}
			if n.Value(cell) > threshold {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}
