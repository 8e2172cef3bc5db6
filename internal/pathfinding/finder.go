package pathfinding

import (
	"container/heap"

	"github.com/annel0/overworld/internal/logging"
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
)

const (
	// DefaultResolution размер клетки сетки поиска в пикселях
	DefaultResolution = 16
	// DefaultMaxNodesPerTick бюджет раскрытия узлов на один тик
	DefaultMaxNodesPerTick = 600
)

// Space предоставляет поиску доступ к уровню
type Space interface {
	// Lookup возвращает живого актёра по идентификатору
	Lookup(id uint64) (physics.Collidable, bool)

	// InBounds проверяет, что прямоугольник целиком внутри уровня
	InBounds(r physics.Rect) bool

	// CollidablesFor добавляет в out кандидатов на пересечение с r
	CollidablesFor(r physics.Rect, out []physics.Collidable) []physics.Collidable
}

// Stats агрегированные счётчики поиска
type Stats struct {
	Requested uint64
	Found     uint64
	NotFound  uint64
	Cancelled uint64
	Expanded  uint64
	Pending   int
}

// Finder выполняет A* по сетке уровня порциями ограниченного размера.
// Одновременно считается только головной запрос очереди; новые запросы
// не вытесняют начатый поиск.
type Finder struct {
	space      Space
	resolution int
	cols, rows int

	grid  []*searchNode // Узлы текущего поиска, индекс y*cols+x
	open  openSet
	start *searchNode
	seq   uint64

	queue   []*Request
	scratch []physics.Collidable
	stats   Stats

	// OnResolve вызывается при переходе запроса в терминальное состояние
	OnResolve func(req *Request)

	logger *logging.Logger
}

// NewFinder создаёт поиск пути по уровню указанного размера в пикселях
func NewFinder(space Space, widthPx, heightPx float64, resolution int) *Finder {
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	cols := int(widthPx) / resolution
	rows := int(heightPx) / resolution
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	return &Finder{
		space:      space,
		resolution: resolution,
		cols:       cols,
		rows:       rows,
		grid:       make([]*searchNode, cols*rows),
		logger:     logging.GetPathLogger(),
	}
}

// Resolution возвращает размер клетки в пикселях
func (f *Finder) Resolution() int { return f.resolution }

// GridSize возвращает размер сетки в клетках
func (f *Finder) GridSize() (cols, rows int) { return f.cols, f.rows }

// Pending возвращает количество запросов в очереди, включая начатый
func (f *Finder) Pending() int { return len(f.queue) }

// Stats возвращает копию счётчиков
func (f *Finder) Stats() Stats {
	s := f.stats
	s.Pending = len(f.queue)
	return s
}

// RequestPath ставит запрос в очередь и сразу возвращает его.
// Результат появится через несколько вызовов Advance.
func (f *Finder) RequestPath(from, to uint64) *Request {
	req := &Request{From: from, To: to}
	f.queue = append(f.queue, req)
	f.stats.Requested++
	return req
}

// Advance раскрывает не более budget узлов головного запроса и возвращает
// число раскрытых узлов. Незавершённый поиск сохраняет открытый и закрытый
// списки до следующего вызова.
func (f *Finder) Advance(budget int) int {
	if len(f.queue) == 0 || budget <= 0 {
		return 0
	}

	req := f.queue[0]

	from, ok := f.space.Lookup(req.From)
	if !ok {
		f.cancelHead(req)
		return 0
	}
	to, ok := f.space.Lookup(req.To)
	if !ok {
		f.cancelHead(req)
		return 0
	}

	if !req.calculating {
		if !f.begin(req, from, to) {
			f.resolveHead(req, false)
			return 0
		}
	}

	expanded := 0
	for f.open.Len() > 0 {
		if expanded >= budget {
			f.stats.Expanded += uint64(expanded)
			return expanded
		}

		current := heap.Pop(&f.open).(*searchNode)
		current.closed = true
		expanded++

		probe := req.probe.At(current.cell.Scale(f.resolution))
		if !f.space.InBounds(probe) {
			continue
		}

		f.scratch = f.space.CollidablesFor(probe, f.scratch[:0])
		blocked := false

		for _, candidate := range f.scratch {
			if candidate == to {
				if probe.Overlaps(candidate.Bounds()) {
					f.stats.Expanded += uint64(expanded)
					req.nodes = reconstruct(current)
					f.resolveHead(req, true)
					return expanded
				}
				continue
			}
			if candidate == from || blocked {
				continue
			}
			blocked = from.CanCollideWith(candidate) && probe.Overlaps(candidate.Bounds())
		}

		// Заблокированная клетка не раскрывается, кроме самой первой:
		// ищущий может стоять внутри препятствия и должен иметь возможность выйти
		if blocked && current != f.start {
			continue
		}

		f.expand(current, req.destination)
	}

	f.stats.Expanded += uint64(expanded)
	f.resolveHead(req, false)
	return expanded
}

// Cancel снимает все запросы, в которых участвует актёр, и помечает их
// завершёнными без результата. Возвращает количество снятых запросов.
func (f *Finder) Cancel(id uint64) int {
	removed := 0
	kept := f.queue[:0]

	for i, req := range f.queue {
		if req.From != id && req.To != id {
			kept = append(kept, req)
			continue
		}

		if i == 0 && req.calculating {
			f.reset()
		}
		req.cancelled = true
		req.finish(false)
		f.stats.Cancelled++
		removed++
		f.notify(req)
	}

	for i := len(kept); i < len(f.queue); i++ {
		f.queue[i] = nil
	}
	f.queue = kept
	return removed
}

// Clear снимает все запросы (смена уровня)
func (f *Finder) Clear() {
	for _, req := range f.queue {
		req.cancelled = true
		req.finish(false)
		f.stats.Cancelled++
	}
	f.queue = nil
	f.reset()
}

// begin очищает сетку и засевает исходный узел. Возвращает false, если
// исходная клетка лежит вне сетки.
func (f *Finder) begin(req *Request, from, to physics.Collidable) bool {
	f.reset()

	fromBounds := from.Bounds()
	req.probe = fromBounds
	req.origin = fromBounds.Position().Cell(f.resolution)
	req.destination = to.Bounds().Position().Cell(f.resolution)
	req.calculating = true

	if !f.inGrid(req.origin) {
		return false
	}

	start := f.newNode(req.origin, req.destination, 0, nil)
	f.start = start
	heap.Push(&f.open, start)
	return true
}

// expand генерирует или ослабляет четырёх соседей узла
func (f *Finder) expand(current *searchNode, destination vec.Vec2) {
	for _, d := range vec.Dirs {
		cell := current.cell.Add(d.Cell())
		if !f.inGrid(cell) {
			continue
		}

		g := current.g + 1
		neighbor := f.grid[f.index(cell)]

		if neighbor == nil {
			heap.Push(&f.open, f.newNode(cell, destination, g, current))
			continue
		}

		if !neighbor.closed && neighbor.g > g {
			neighbor.g = g
			neighbor.f = g + neighbor.h
			neighbor.parent = current
			heap.Fix(&f.open, neighbor.index)
		}
	}
}

func (f *Finder) newNode(cell, destination vec.Vec2, g int, parent *searchNode) *searchNode {
	h := cell.ManhattanTo(destination)
	f.seq++
	n := &searchNode{
		cell:   cell,
		g:      g,
		h:      h,
		f:      g + h,
		seq:    f.seq,
		parent: parent,
		index:  -1,
	}
	f.grid[f.index(cell)] = n
	return n
}

// reset освобождает все узлы предыдущего поиска
func (f *Finder) reset() {
	for i := range f.grid {
		f.grid[i] = nil
	}
	for i := range f.open {
		f.open[i] = nil
	}
	f.open = f.open[:0]
	f.start = nil
	f.seq = 0
}

func (f *Finder) resolveHead(req *Request, found bool) {
	req.finish(found)
	if found {
		f.stats.Found++
	} else {
		f.stats.NotFound++
	}
	f.popHead()
	f.notify(req)

	f.logger.Debug("Путь %d -> %d: %s, клеток %d", req.From, req.To, req.Status(), len(req.nodes))
}

func (f *Finder) cancelHead(req *Request) {
	req.cancelled = true
	req.finish(false)
	f.stats.Cancelled++
	f.popHead()
	f.notify(req)
}

func (f *Finder) popHead() {
	f.queue[0] = nil
	f.queue = f.queue[1:]
	f.reset()
}

func (f *Finder) notify(req *Request) {
	if f.OnResolve != nil {
		f.OnResolve(req)
	}
}

func (f *Finder) inGrid(c vec.Vec2) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < f.cols && c.Y < f.rows
}

func (f *Finder) index(c vec.Vec2) int {
	return c.Y*f.cols + c.X
}

// reconstruct проходит по родительским ссылкам и возвращает путь от начала
// к цели без исходной клетки
func reconstruct(last *searchNode) []vec.Vec2 {
	var reversed []vec.Vec2
	for n := last; n != nil; n = n.parent {
		reversed = append(reversed, n.cell)
	}
	// Последний элемент — исходная клетка, в путь она не входит
	reversed = reversed[:len(reversed)-1]

	path := make([]vec.Vec2, len(reversed))
	for i, cell := range reversed {
		path[len(reversed)-1-i] = cell
	}
	return path
}
