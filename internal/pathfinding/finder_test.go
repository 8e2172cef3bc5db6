package pathfinding

import (
	"container/heap"
	"testing"

	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/spatial"
	"github.com/annel0/overworld/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSpace минимальный уровень: прямоугольник, индекс и таблица актёров
type testSpace struct {
	bounds physics.Rect
	index  *spatial.Quadtree
	actors map[uint64]physics.Collidable
}

func newTestSpace(cols, rows int) *testSpace {
	b := physics.Rect{W: float64(cols * DefaultResolution), H: float64(rows * DefaultResolution)}
	return &testSpace{
		bounds: b,
		index:  spatial.NewQuadtree(b),
		actors: make(map[uint64]physics.Collidable),
	}
}

func (s *testSpace) Lookup(id uint64) (physics.Collidable, bool) {
	a, ok := s.actors[id]
	return a, ok
}

func (s *testSpace) InBounds(r physics.Rect) bool {
	return s.bounds.Contains(r)
}

func (s *testSpace) CollidablesFor(r physics.Rect, out []physics.Collidable) []physics.Collidable {
	return s.index.Retrieve(r, out)
}

func (s *testSpace) addActor(id uint64, cell vec.Vec2) *physics.Box {
	pos := cell.Scale(DefaultResolution)
	b := physics.NewBox(pos.X, pos.Y, DefaultResolution, DefaultResolution, true)
	s.actors[id] = b
	s.index.Insert(b)
	return b
}

func (s *testSpace) removeActor(id uint64) {
	s.index.Remove(s.actors[id])
	delete(s.actors, id)
}

func (s *testSpace) addWall(cell vec.Vec2) {
	pos := cell.Scale(DefaultResolution)
	s.index.Insert(physics.NewBox(pos.X, pos.Y, DefaultResolution, DefaultResolution, true))
}

// assertValidPath проверяет связность пути по четырём направлениям
func assertValidPath(t *testing.T, f *Finder, req *Request) {
	t.Helper()
	cols, rows := f.GridSize()
	seen := map[vec.Vec2]bool{req.Origin(): true}
	prev := req.Origin()

	for _, cell := range req.Nodes() {
		assert.Equal(t, 1, prev.ManhattanTo(cell), "Соседние клетки пути должны быть смежными")
		assert.False(t, seen[cell], "Клетки пути не должны повторяться")
		assert.True(t, cell.X >= 0 && cell.Y >= 0 && cell.X < cols && cell.Y < rows, "Клетка вне сетки")
		seen[cell] = true
		prev = cell
	}
}

func TestFinder_OpenGridManhattanOptimal(t *testing.T) {
	space := newTestSpace(10, 10)
	space.addActor(1, vec.Vec2{X: 0, Y: 0})
	space.addActor(2, vec.Vec2{X: 9, Y: 9})

	f := NewFinder(space, 160, 160, DefaultResolution)
	req := f.RequestPath(1, 2)
	assert.False(t, req.Ready(), "Запрос не должен решаться синхронно")
	assert.Equal(t, StatusQueued, req.Status())

	ticks := 0
	for !req.Ready() && ticks < 10 {
		f.Advance(10)
		ticks++
	}

	require.True(t, req.Found(), "Путь по пустой сетке должен быть найден")
	assert.Equal(t, 2, ticks, "При бюджете 10 путь из 19 клеток находится за 2 тика")
	assert.Len(t, req.Nodes(), 18, "Маршрут из 19 клеток: исходная клетка и 18 шагов")
	assert.Equal(t, vec.Vec2{X: 9, Y: 9}, req.Nodes()[len(req.Nodes())-1])
	assertValidPath(t, f, req)
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, uint64(19), f.Stats().Expanded)
}

func TestFinder_BudgetIsNeverExceeded(t *testing.T) {
	space := newTestSpace(40, 40)
	space.addActor(1, vec.Vec2{X: 0, Y: 0})
	space.addActor(2, vec.Vec2{X: 39, Y: 39})
	// Замуровываем цель, чтобы поиск обошёл всю сетку
	space.addWall(vec.Vec2{X: 38, Y: 39})
	space.addWall(vec.Vec2{X: 39, Y: 38})
	space.addWall(vec.Vec2{X: 38, Y: 38})

	f := NewFinder(space, 640, 640, DefaultResolution)
	req := f.RequestPath(1, 2)

	const budget = 25
	for i := 0; i < 1000 && !req.Ready(); i++ {
		n := f.Advance(budget)
		assert.LessOrEqual(t, n, budget, "Advance не должен превышать бюджет")
	}

	require.True(t, req.Ready())
	assert.False(t, req.Found(), "Замурованная цель недостижима")
	assert.Equal(t, StatusNotFound, req.Status())
	assert.Empty(t, req.Nodes())
	assert.Equal(t, 0, f.Pending())
}

func TestFinder_RoutesAroundWall(t *testing.T) {
	space := newTestSpace(10, 10)
	space.addActor(1, vec.Vec2{X: 0, Y: 4})
	space.addActor(2, vec.Vec2{X: 9, Y: 4})
	for y := 0; y < 9; y++ {
		space.addWall(vec.Vec2{X: 5, Y: y})
	}

	f := NewFinder(space, 160, 160, DefaultResolution)
	req := f.RequestPath(1, 2)
	for i := 0; i < 100 && !req.Ready(); i++ {
		f.Advance(DefaultMaxNodesPerTick)
	}

	require.True(t, req.Found())
	assertValidPath(t, f, req)
	for _, cell := range req.Nodes() {
		if cell.X == 5 {
			assert.Equal(t, 9, cell.Y, "Стену можно пересечь только через проход внизу")
		}
	}
	// Кратчайший обход: 9 шагов по X и по 5 вниз и вверх
	assert.Len(t, req.Nodes(), 19)
}

func TestFinder_StartInsideObstacleCanEscape(t *testing.T) {
	space := newTestSpace(8, 8)
	space.addActor(1, vec.Vec2{X: 2, Y: 2})
	space.addActor(2, vec.Vec2{X: 6, Y: 2})
	space.addWall(vec.Vec2{X: 2, Y: 2}) // ищущий стоит внутри препятствия

	f := NewFinder(space, 128, 128, DefaultResolution)
	req := f.RequestPath(1, 2)
	for i := 0; i < 10 && !req.Ready(); i++ {
		f.Advance(100)
	}

	require.True(t, req.Found(), "Первый узел раскрывается даже если заблокирован")
	assert.Len(t, req.Nodes(), 4)
}

func TestFinder_FIFOAndSingleRequestPerTick(t *testing.T) {
	space := newTestSpace(10, 10)
	space.addActor(1, vec.Vec2{X: 0, Y: 0})
	space.addActor(2, vec.Vec2{X: 3, Y: 0})
	space.addActor(3, vec.Vec2{X: 0, Y: 3})

	f := NewFinder(space, 160, 160, DefaultResolution)
	first := f.RequestPath(1, 2)
	second := f.RequestPath(3, 1)

	f.Advance(DefaultMaxNodesPerTick)
	assert.True(t, first.Found(), "Первый запрос решается первым")
	assert.False(t, second.Ready(), "За тик продвигается только один запрос")
	assert.Equal(t, 1, f.Pending())

	f.Advance(DefaultMaxNodesPerTick)
	assert.True(t, second.Found())
}

func TestFinder_NewRequestDoesNotPreemptSearch(t *testing.T) {
	space := newTestSpace(10, 10)
	space.addActor(1, vec.Vec2{X: 0, Y: 0})
	space.addActor(2, vec.Vec2{X: 9, Y: 9})
	space.addActor(3, vec.Vec2{X: 1, Y: 0})

	f := NewFinder(space, 160, 160, DefaultResolution)
	long := f.RequestPath(1, 2)
	f.Advance(5)
	require.True(t, long.Calculating())

	short := f.RequestPath(3, 1)
	f.Advance(5)
	assert.False(t, short.Ready(), "Новый запрос ждёт окончания начатого")

	for i := 0; i < 10 && !long.Ready(); i++ {
		f.Advance(5)
	}
	assert.True(t, long.Found())
	assert.False(t, short.Ready())
}

func TestFinder_CancelInFlightDestination(t *testing.T) {
	space := newTestSpace(20, 20)
	space.addActor(1, vec.Vec2{X: 0, Y: 0})
	space.addActor(2, vec.Vec2{X: 19, Y: 19})
	space.addActor(3, vec.Vec2{X: 5, Y: 5})

	var resolved []*Request
	f := NewFinder(space, 320, 320, DefaultResolution)
	f.OnResolve = func(r *Request) { resolved = append(resolved, r) }

	req := f.RequestPath(1, 2)
	other := f.RequestPath(3, 1)

	f.Advance(10) // тик 1
	require.Equal(t, StatusCalculating, req.Status())
	require.Equal(t, 2, f.Pending())

	// тик 2: цель удалена из мира
	space.removeActor(2)
	removed := f.Cancel(2)

	assert.Equal(t, 1, removed)
	assert.True(t, req.Ready())
	assert.False(t, req.Found())
	assert.True(t, req.Cancelled())
	assert.Equal(t, 1, f.Pending(), "Очередь должна уменьшиться на один")
	assert.Len(t, resolved, 1)

	// Следующий запрос начинает поиск с чистой сетки
	for i := 0; i < 10 && !other.Ready(); i++ {
		f.Advance(DefaultMaxNodesPerTick)
	}
	assert.True(t, other.Found())
	assertValidPath(t, f, other)
}

func TestFinder_CancelQueuedOrigin(t *testing.T) {
	space := newTestSpace(10, 10)
	space.addActor(1, vec.Vec2{X: 0, Y: 0})
	space.addActor(2, vec.Vec2{X: 5, Y: 5})
	space.addActor(3, vec.Vec2{X: 9, Y: 0})

	f := NewFinder(space, 160, 160, DefaultResolution)
	head := f.RequestPath(1, 2)
	queued := f.RequestPath(3, 2)

	assert.Equal(t, 1, f.Cancel(3))
	assert.True(t, queued.Ready())
	assert.False(t, queued.Found())
	assert.False(t, head.Ready(), "Посторонний запрос не затрагивается")
	assert.Equal(t, 1, f.Pending())
}

func TestFinder_UnresolvableEndpointIsCancelledOnAdvance(t *testing.T) {
	space := newTestSpace(10, 10)
	space.addActor(1, vec.Vec2{X: 0, Y: 0})

	f := NewFinder(space, 160, 160, DefaultResolution)
	req := f.RequestPath(1, 99)
	f.Advance(10)

	assert.True(t, req.Ready())
	assert.False(t, req.Found())
	assert.Equal(t, uint64(1), f.Stats().Cancelled)
}

func TestRequest_Waypoints(t *testing.T) {
	req := &Request{nodes: []vec.Vec2{{X: 1}, {X: 2}}}
	req.finish(true)

	w, ok := req.NextWaypoint()
	require.True(t, ok)
	assert.Equal(t, vec.Vec2{X: 1}, w)
	req.ReachWaypoint()
	assert.Equal(t, 1, req.Remaining())
	req.ReachWaypoint()
	_, ok = req.NextWaypoint()
	assert.False(t, ok)
}

func TestOpenSet_TieBreak(t *testing.T) {
	pq := &openSet{}
	heap.Push(pq, &searchNode{f: 10, h: 4, seq: 1})
	heap.Push(pq, &searchNode{f: 10, h: 2, seq: 3})
	heap.Push(pq, &searchNode{f: 10, h: 2, seq: 2})
	heap.Push(pq, &searchNode{f: 8, h: 6, seq: 4})

	var order []uint64
	for pq.Len() > 0 {
		order = append(order, heap.Pop(pq).(*searchNode).seq)
	}
	assert.Equal(t, []uint64{4, 2, 3, 1}, order, "Порядок: f, затем h, затем очередность добавления")
}

func TestFinder_SameRouteOnRepeatedSearch(t *testing.T) {
	search := func() []vec.Vec2 {
		space := newTestSpace(10, 10)
		space.addActor(1, vec.Vec2{X: 0, Y: 0})
		space.addActor(2, vec.Vec2{X: 6, Y: 7})
		f := NewFinder(space, 160, 160, DefaultResolution)
		req := f.RequestPath(1, 2)
		for i := 0; i < 10 && !req.Ready(); i++ {
			f.Advance(DefaultMaxNodesPerTick)
		}
		require.True(t, req.Found())
		return req.Nodes()
	}
	assert.Equal(t, search(), search(), "Равные приоритеты разрешаются детерминированно")
}
