package world

import (
	"github.com/annel0/overworld/internal/entity"
	"github.com/annel0/overworld/internal/logging"
	"github.com/annel0/overworld/internal/pathfinding"
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/spatial"
)

// LevelConfig параметры создания уровня
type LevelConfig struct {
	Name            string
	Width, Height   float64 // Размер уровня в пикселях
	Resolution      int     // Размер клетки поиска пути
	MaxNodesPerTick int     // Бюджет поиска пути на тик
	MaxObjects      int     // Ёмкость узла квадродерева
	MaxLevels       int     // Глубина квадродерева
}

// Level владеет всеми актёрами одной карты: хранилищем по идентификатору,
// списками живых и умирающих, индексами столкновений и поиском пути.
// Все методы вызываются из потока тика.
type Level struct {
	name   string
	bounds physics.Rect

	static  *spatial.Quadtree // Геометрия карты, не меняется после загрузки
	dynamic *spatial.Quadtree // Живые актёры, хитбоксы, триггеры
	finder  *pathfinding.Finder

	arena   map[uint64]*entity.Entity
	alive   []*entity.Entity
	dying   []*entity.Entity
	spawned []*entity.Entity // Добавленные во время обхода
	nextID  uint64

	updating        bool
	maxNodesPerTick int
	tick            uint64

	locations  map[string]*Location
	players    []*entity.Entity
	mainPlayer *entity.Entity

	triggers   []*Trigger
	events     *LevelEvents
	transition *TransitionData

	listeners []Listener
	logger    *logging.Logger
}

// NewLevel создаёт пустой уровень
func NewLevel(cfg LevelConfig) *Level {
	if cfg.MaxNodesPerTick <= 0 {
		cfg.MaxNodesPerTick = pathfinding.DefaultMaxNodesPerTick
	}
	if cfg.MaxObjects <= 0 {
		cfg.MaxObjects = spatial.DefaultMaxObjects
	}
	if cfg.MaxLevels <= 0 {
		cfg.MaxLevels = spatial.DefaultMaxLevels
	}

	bounds := physics.Rect{W: cfg.Width, H: cfg.Height}
	l := &Level{
		name:            cfg.Name,
		bounds:          bounds,
		static:          spatial.NewQuadtreeWithLimits(bounds, cfg.MaxObjects, cfg.MaxLevels),
		dynamic:         spatial.NewQuadtreeWithLimits(bounds, cfg.MaxObjects, cfg.MaxLevels),
		arena:           make(map[uint64]*entity.Entity),
		nextID:          1,
		maxNodesPerTick: cfg.MaxNodesPerTick,
		locations:       make(map[string]*Location),
		events:          NewLevelEvents(),
		logger:          logging.GetWorldLogger(),
	}
	l.finder = pathfinding.NewFinder(l, cfg.Width, cfg.Height, cfg.Resolution)
	l.finder.OnResolve = l.pathResolved
	return l
}

// Name возвращает имя карты
func (l *Level) Name() string { return l.name }

// Bounds возвращает границы уровня в пикселях
func (l *Level) Bounds() physics.Rect { return l.bounds }

// Finder возвращает поиск пути уровня
func (l *Level) Finder() *pathfinding.Finder { return l.finder }

// Events возвращает реестр событий карты
func (l *Level) Events() *LevelEvents { return l.events }

// Tick возвращает номер последнего выполненного тика
func (l *Level) Tick() uint64 { return l.tick }

// AddEntity регистрирует актёра на уровне и возвращает его идентификатор.
// Добавленные во время обхода актёры попадают в списки после его окончания.
func (l *Level) AddEntity(e *entity.Entity) uint64 {
	if e.ID == 0 {
		e.ID = l.nextID
		l.nextID++
	} else if e.ID >= l.nextID {
		l.nextID = e.ID + 1
	}

	if cur, exists := l.arena[e.ID]; exists {
		if cur == e {
			return e.ID
		}
		// Чужой идентификатор: актёр получает свободный
		l.logger.Warn("Идентификатор %d уже занят актёром %s, %s получает %d", e.ID, cur.Kind, e.Kind, l.nextID)
		e.ID = l.nextID
		l.nextID++
	}

	e.Bind(l)
	l.arena[e.ID] = e

	if l.updating {
		l.spawned = append(l.spawned, e)
	} else {
		l.admit(e)
	}

	l.emit(Event{Type: EventActorSpawned, EntityID: e.ID, Kind: e.Kind, Position: e.Position})
	return e.ID
}

// admit помещает актёра в живые (с индексом) или умирающие
func (l *Level) admit(e *entity.Entity) {
	if e.IsAlive() {
		l.alive = append(l.alive, e)
		l.dynamic.Insert(e)
		return
	}
	if e.Life() != entity.StateDying {
		e.Die()
	}
	l.dying = append(l.dying, e)
}

// AddCollidable регистрирует подвижный коллайдер (хитбокс, триггер)
func (l *Level) AddCollidable(c physics.Collidable) {
	l.dynamic.Insert(c)
}

// RemoveCollidable снимает подвижный коллайдер
func (l *Level) RemoveCollidable(c physics.Collidable) {
	l.dynamic.Remove(c)
}

// AddStatic регистрирует неподвижную геометрию карты
func (l *Level) AddStatic(c physics.Collidable) {
	l.static.Insert(c)
}

// CollidablesFor добавляет в out кандидатов на пересечение с r из обоих индексов
func (l *Level) CollidablesFor(r physics.Rect, out []physics.Collidable) []physics.Collidable {
	out = l.static.Retrieve(r, out)
	return l.dynamic.Retrieve(r, out)
}

// DynamicCollidablesFor добавляет в out только подвижных кандидатов
func (l *Level) DynamicCollidablesFor(r physics.Rect, out []physics.Collidable) []physics.Collidable {
	return l.dynamic.Retrieve(r, out)
}

// InBounds проверяет, что прямоугольник целиком внутри уровня
func (l *Level) InBounds(r physics.Rect) bool {
	return l.bounds.Contains(r)
}

// Lookup возвращает живого актёра по идентификатору. Умирающие и удалённые
// актёры не находятся.
func (l *Level) Lookup(id uint64) (physics.Collidable, bool) {
	e, ok := l.arena[id]
	if !ok || !e.IsAlive() {
		return nil, false
	}
	return e, true
}

// Entity возвращает актёра по идентификатору в любом состоянии
func (l *Level) Entity(id uint64) (*entity.Entity, bool) {
	e, ok := l.arena[id]
	return e, ok
}

// RequestPath ставит в очередь поиск пути от актёра from до актёра to
func (l *Level) RequestPath(from, to uint64) *pathfinding.Request {
	return l.finder.RequestPath(from, to)
}

// Resolution возвращает размер клетки сетки поиска пути
func (l *Level) Resolution() int {
	return l.finder.Resolution()
}

// AliveCount количество живых актёров
func (l *Level) AliveCount() int { return len(l.alive) }

// DyingCount количество умирающих актёров
func (l *Level) DyingCount() int { return len(l.dying) }

// EntityCount количество актёров в хранилище
func (l *Level) EntityCount() int { return len(l.arena) }

// Indexed сообщает, находится ли коллайдер в подвижном индексе
func (l *Level) Indexed(c physics.Collidable) bool {
	return l.dynamic.Contains(c)
}

// EachAlive вызывает fn для каждого живого актёра
func (l *Level) EachAlive(fn func(e *entity.Entity)) {
	for _, e := range l.alive {
		fn(e)
	}
}

// EachDying вызывает fn для каждого умирающего актёра
func (l *Level) EachDying(fn func(e *entity.Entity)) {
	for _, e := range l.dying {
		fn(e)
	}
}

// Players возвращает игроков, размещённых через PlacePlayer
func (l *Level) Players() []*entity.Entity {
	return l.players
}

// MainPlayer возвращает главного игрока или nil
func (l *Level) MainPlayer() *entity.Entity {
	return l.mainPlayer
}

// Subscribe добавляет получателя событий уровня
func (l *Level) Subscribe(fn Listener) {
	l.listeners = append(l.listeners, fn)
}

// IndexStats возвращает состояние индексов для отладки
func (l *Level) IndexStats() (static, dynamic string) {
	return l.static.Stats(), l.dynamic.Stats()
}

// Close снимает все запросы пути и очищает индексы при выгрузке уровня
func (l *Level) Close() {
	l.finder.Clear()
	l.dynamic.Clear()
	l.static.Clear()
	l.logger.Info("Уровень %s выгружен: актёров %d", l.name, len(l.arena))
}
