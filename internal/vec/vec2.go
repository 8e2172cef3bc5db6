package vec

// Vec2 клетка сетки поиска пути
type Vec2 struct {
	X, Y int
}

// Add сдвигает клетку на смещение other
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// ManhattanTo манхэттенское расстояние в клетках. Используется эвристикой A*.
func (v Vec2) ManhattanTo(other Vec2) int {
	return absInt(v.X-other.X) + absInt(v.Y-other.Y)
}

// Scale переводит клетку в пиксельные координаты её левого верхнего угла
func (v Vec2) Scale(resolution int) Vec2Float {
	return Vec2Float{X: float64(v.X * resolution), Y: float64(v.Y * resolution)}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
