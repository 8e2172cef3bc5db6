package vec

// Dir представляет одно из четырёх направлений движения и взгляда
type Dir int

const (
	DirNone Dir = iota - 1
	DirUp
	DirRight
	DirDown
	DirLeft
)

// Dirs перечисляет направления в порядке обхода соседей при поиске пути
var Dirs = [...]Dir{DirUp, DirRight, DirDown, DirLeft}

var dirVectors = [...]Vec2{
	DirUp:    {X: 0, Y: -1},
	DirRight: {X: 1, Y: 0},
	DirDown:  {X: 0, Y: 1},
	DirLeft:  {X: -1, Y: 0},
}

// Valid сообщает, является ли значение одним из четырёх направлений
func (d Dir) Valid() bool {
	return d >= DirUp && d <= DirLeft
}

// Cell возвращает единичное смещение по сетке
func (d Dir) Cell() Vec2 {
	if !d.Valid() {
		return Vec2{}
	}
	return dirVectors[d]
}

// Vector возвращает единичный вектор направления
func (d Dir) Vector() Vec2Float {
	c := d.Cell()
	return Vec2Float{X: float64(c.X), Y: float64(c.Y)}
}

// Opposite возвращает противоположное направление
func (d Dir) Opposite() Dir {
	if !d.Valid() {
		return DirNone
	}
	return (d + 2) % 4
}

// String возвращает имя направления
func (d Dir) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	default:
		return "none"
	}
}

// ParseDir разбирает имя направления (как в свойстве orientation карты)
func ParseDir(s string) Dir {
	switch s {
	case "up", "UP", "north":
		return DirUp
	case "right", "RIGHT", "east":
		return DirRight
	case "down", "DOWN", "south":
		return DirDown
	case "left", "LEFT", "west":
		return DirLeft
	default:
		return DirNone
	}
}

// DirTowards выбирает направление по доминирующей оси смещения
func DirTowards(delta Vec2Float) Dir {
	if delta.X == 0 && delta.Y == 0 {
		return DirNone
	}
	if abs(delta.X) > abs(delta.Y) {
		if delta.X > 0 {
			return DirRight
		}
		return DirLeft
	}
	if delta.Y > 0 {
		return DirDown
	}
	return DirUp
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
