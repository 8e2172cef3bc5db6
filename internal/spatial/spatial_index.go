package spatial

import (
	"fmt"

	"github.com/annel0/overworld/internal/physics"
)

const (
	// DefaultMaxObjects количество объектов в узле, после которого он делится
	DefaultMaxObjects = 10
	// DefaultMaxLevels максимальная глубина дерева
	DefaultMaxLevels = 5
)

// Quadtree представляет иерархический пространственный индекс прямоугольников.
// Объект, пересекающий границу квадрантов, хранится в родительском узле.
// Индекс не потокобезопасен: симуляция обновляет его из одного тика.
type Quadtree struct {
	root       *node
	maxObjects int
	maxLevels  int
	owners     map[physics.Collidable]*node // Узел, в котором хранится объект
}

// node представляет один узел дерева
type node struct {
	level    int
	bounds   physics.Rect
	items    []item
	children *[4]*node
	parent   *node
}

// item хранит объект вместе с границами на момент вставки
type item struct {
	obj    physics.Collidable
	bounds physics.Rect
}

// NewQuadtree создаёт индекс над областью уровня
func NewQuadtree(bounds physics.Rect) *Quadtree {
	return NewQuadtreeWithLimits(bounds, DefaultMaxObjects, DefaultMaxLevels)
}

// NewQuadtreeWithLimits создаёт индекс с явными параметрами деления
func NewQuadtreeWithLimits(bounds physics.Rect, maxObjects, maxLevels int) *Quadtree {
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}
	if maxLevels < 0 {
		maxLevels = DefaultMaxLevels
	}

	return &Quadtree{
		root:       &node{level: 0, bounds: bounds},
		maxObjects: maxObjects,
		maxLevels:  maxLevels,
		owners:     make(map[physics.Collidable]*node),
	}
}

// Insert добавляет объект в индекс. Повторная вставка уже индексированного
// объекта перемещает его по текущим границам, дубликатов не возникает.
func (qt *Quadtree) Insert(obj physics.Collidable) {
	if obj == nil {
		return
	}

	if owner, exists := qt.owners[obj]; exists {
		if owner.find(obj) >= 0 && owner.itemBounds(obj) == obj.Bounds() {
			return
		}
		qt.Remove(obj)
	}

	qt.insert(qt.root, item{obj: obj, bounds: obj.Bounds()})
}

// Remove удаляет объект из индекса. Удаление отсутствующего объекта ничего не делает.
func (qt *Quadtree) Remove(obj physics.Collidable) {
	owner, exists := qt.owners[obj]
	if !exists {
		return
	}
	delete(qt.owners, obj)

	idx := owner.find(obj)
	if idx < 0 {
		return
	}

	last := len(owner.items) - 1
	owner.items[idx] = owner.items[last]
	owner.items[last] = item{}
	owner.items = owner.items[:last]

	// Схлопываем опустевшие ветви, чтобы дерево не разрасталось от движущихся объектов
	for n := owner; n != nil; n = n.parent {
		if !n.collapse() {
			break
		}
	}
}

// Retrieve добавляет в out все объекты, которые могут пересекаться с query,
// и возвращает расширенный срез. Результат является надмножеством точных
// пересечений: окончательную проверку выполняет вызывающая сторона.
func (qt *Quadtree) Retrieve(query physics.Rect, out []physics.Collidable) []physics.Collidable {
	return qt.root.retrieve(query, out)
}

// Contains сообщает, индексирован ли объект
func (qt *Quadtree) Contains(obj physics.Collidable) bool {
	_, exists := qt.owners[obj]
	return exists
}

// Len возвращает количество индексированных объектов
func (qt *Quadtree) Len() int {
	return len(qt.owners)
}

// Clear удаляет все объекты и поддеревья
func (qt *Quadtree) Clear() {
	qt.root = &node{level: 0, bounds: qt.root.bounds}
	qt.owners = make(map[physics.Collidable]*node)
}

// Bounds возвращает область, покрываемую корнем
func (qt *Quadtree) Bounds() physics.Rect {
	return qt.root.bounds
}

// Stats возвращает статистику индекса
func (qt *Quadtree) Stats() string {
	nodes, depth, maxItems := 0, 0, 0
	qt.root.walk(func(n *node) {
		nodes++
		if n.level > depth {
			depth = n.level
		}
		if len(n.items) > maxItems {
			maxItems = len(n.items)
		}
	})

	return fmt.Sprintf("Quadtree Stats: %d objects, %d nodes, depth %d, max %d objects/node",
		qt.Len(), nodes, depth, maxItems)
}

// insert размещает объект в самом глубоком узле, целиком его вмещающем
func (qt *Quadtree) insert(n *node, it item) {
	for n.children != nil {
		idx := n.childIndex(it.bounds)
		if idx < 0 {
			break
		}
		n = n.children[idx]
	}

	n.items = append(n.items, it)
	qt.owners[it.obj] = n

	if len(n.items) > qt.maxObjects && n.level < qt.maxLevels && n.children == nil {
		qt.split(n)
	}
}

// split делит узел на четыре квадранта и переносит вниз помещающиеся объекты
func (qt *Quadtree) split(n *node) {
	halfW := n.bounds.W / 2
	halfH := n.bounds.H / 2
	x, y := n.bounds.X, n.bounds.Y

	n.children = &[4]*node{
		{level: n.level + 1, bounds: physics.Rect{X: x + halfW, Y: y, W: halfW, H: halfH}, parent: n},
		{level: n.level + 1, bounds: physics.Rect{X: x, Y: y, W: halfW, H: halfH}, parent: n},
		{level: n.level + 1, bounds: physics.Rect{X: x, Y: y + halfH, W: halfW, H: halfH}, parent: n},
		{level: n.level + 1, bounds: physics.Rect{X: x + halfW, Y: y + halfH, W: halfW, H: halfH}, parent: n},
	}

	kept := n.items[:0]
	for _, it := range n.items {
		if idx := n.childIndex(it.bounds); idx >= 0 {
			qt.insert(n.children[idx], it)
			continue
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(n.items); i++ {
		n.items[i] = item{}
	}
	n.items = kept
}

// childIndex возвращает индекс квадранта, целиком содержащего r, или -1
func (n *node) childIndex(r physics.Rect) int {
	if n.children == nil {
		return -1
	}
	for i, child := range n.children {
		if child.bounds.Contains(r) {
			return i
		}
	}
	return -1
}

func (n *node) retrieve(query physics.Rect, out []physics.Collidable) []physics.Collidable {
	for _, it := range n.items {
		out = append(out, it.obj)
	}

	if n.children == nil {
		return out
	}

	for _, child := range n.children {
		if child.bounds.Intersects(query) {
			out = child.retrieve(query, out)
		}
	}
	return out
}

func (n *node) find(obj physics.Collidable) int {
	for i, it := range n.items {
		if it.obj == obj {
			return i
		}
	}
	return -1
}

func (n *node) itemBounds(obj physics.Collidable) physics.Rect {
	if idx := n.find(obj); idx >= 0 {
		return n.items[idx].bounds
	}
	return physics.Rect{}
}

// collapse убирает детей узла, если все они пустые листья
func (n *node) collapse() bool {
	if n.children == nil {
		return len(n.items) == 0
	}
	for _, child := range n.children {
		if child.children != nil || len(child.items) > 0 {
			return false
		}
	}
	n.children = nil
	return len(n.items) == 0
}

func (n *node) walk(fn func(*node)) {
	fn(n)
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		child.walk(fn)
	}
}
