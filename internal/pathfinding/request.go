package pathfinding

import (
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
)

// Status описывает состояние запроса пути
type Status uint8

const (
	StatusQueued      Status = iota // Ожидает в очереди
	StatusCalculating               // Поиск начат и продолжается между тиками
	StatusFound                     // Путь найден
	StatusNotFound                  // Путь не существует или запрос отменён
)

// String возвращает имя состояния
func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusCalculating:
		return "calculating"
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Request представляет запрос пути от одного актёра к другому.
// Актёры задаются идентификаторами и проверяются по таблице живых актёров уровня
// при каждом продвижении поиска. ИИ опрашивает Ready/Found, очередью владеет Finder.
type Request struct {
	From uint64 // Кто ищет путь
	To   uint64 // К кому ищется путь

	nodes       []vec.Vec2 // Клетки пути от начала к цели, без исходной клетки
	cursor      int        // Индекс следующей клетки при следовании по пути
	origin      vec.Vec2
	destination vec.Vec2
	probe       physics.Rect // Прямоугольник размером с ищущего, переставляемый по клеткам
	calculating bool
	ready       bool
	found       bool
	cancelled   bool
}

// Ready сообщает, что поиск завершён (успешно или нет)
func (r *Request) Ready() bool { return r.ready }

// Found сообщает, что путь найден. Имеет смысл только при Ready() == true.
func (r *Request) Found() bool { return r.found }

// Calculating сообщает, что поиск начат
func (r *Request) Calculating() bool { return r.calculating }

// Cancelled сообщает, что запрос был снят из-за удаления одного из актёров
func (r *Request) Cancelled() bool { return r.cancelled }

// Status возвращает состояние запроса
func (r *Request) Status() Status {
	switch {
	case r.ready && r.found:
		return StatusFound
	case r.ready:
		return StatusNotFound
	case r.calculating:
		return StatusCalculating
	default:
		return StatusQueued
	}
}

// Nodes возвращает клетки найденного пути в порядке следования
func (r *Request) Nodes() []vec.Vec2 { return r.nodes }

// Origin возвращает исходную клетку поиска
func (r *Request) Origin() vec.Vec2 { return r.origin }

// Destination возвращает клетку цели на момент начала поиска
func (r *Request) Destination() vec.Vec2 { return r.destination }

// NextWaypoint возвращает следующую непройденную клетку пути
func (r *Request) NextWaypoint() (vec.Vec2, bool) {
	if !r.found || r.cursor >= len(r.nodes) {
		return vec.Vec2{}, false
	}
	return r.nodes[r.cursor], true
}

// ReachWaypoint отмечает текущую клетку пути пройденной
func (r *Request) ReachWaypoint() {
	if r.cursor < len(r.nodes) {
		r.cursor++
	}
}

// Remaining возвращает количество непройденных клеток
func (r *Request) Remaining() int {
	return len(r.nodes) - r.cursor
}

// finish переводит запрос в терминальное состояние
func (r *Request) finish(found bool) {
	r.ready = true
	r.found = found
	r.calculating = false
	if !found {
		r.nodes = nil
	}
}
