package pathfinding

import (
	"github.com/annel0/overworld/internal/vec"
)

// searchNode представляет клетку сетки в текущем поиске
type searchNode struct {
	cell   vec.Vec2
	g      int // Накопленная стоимость от начала
	h      int // Эвристика до цели
	f      int // Приоритет g + h
	seq    uint64
	parent *searchNode
	closed bool
	index  int // Позиция в куче, -1 если узел не в открытом списке
}

// openSet реализует heap.Interface. Порядок: f, затем меньшая эвристика,
// затем порядок добавления, так что равные приоритеты разрешаются детерминированно.
type openSet []*searchNode

func (pq openSet) Len() int { return len(pq) }

func (pq openSet) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *openSet) Push(x any) {
	n := len(*pq)
	item := x.(*searchNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *openSet) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
