package gen

import (
	"fmt"
	"math/rand"

	"github.com/annel0/overworld/internal/asset"
	"github.com/annel0/overworld/internal/entity"
	"github.com/annel0/overworld/internal/logging"
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
	"github.com/annel0/overworld/internal/world"
)

// Exit описывает переход с края карты на другую карту
type Exit struct {
	Name  string
	Cell  vec.Vec2 // Клетка триггера
	Map   string   // Целевая карта
	Place string   // Точка появления на целевой карте
}

// Place точка появления игрока
type Place struct {
	Name        string
	Cell        vec.Vec2
	Orientation vec.Dir
}

// MapSpec описание процедурной карты
type MapSpec struct {
	Name      string
	Cols      int
	Rows      int
	Seed      int64
	Threshold float64 // Порог шума для препятствия, 0 - без препятствий
	Monsters  int
	Species   string // Вид монстров из реестра
	Places    []Place
	Exits     []Exit
}

// Builder собирает уровни по описаниям карт
type Builder struct {
	Registry *asset.Registry
	Base     world.LevelConfig // Параметры поиска пути и индекса
	Maps     map[string]MapSpec

	logger *logging.Logger
}

// NewBuilder создаёт сборщик уровней
func NewBuilder(registry *asset.Registry, base world.LevelConfig, maps ...MapSpec) *Builder {
	b := &Builder{
		Registry: registry,
		Base:     base,
		Maps:     make(map[string]MapSpec, len(maps)),
		logger:   logging.GetComponentLogger("gen"),
	}
	for _, m := range maps {
		b.Maps[m.Name] = m
	}
	return b
}

// Build создаёт уровень name, размещает на нём игрока в точке place и
// заселяет монстров, преследующих игрока
func (b *Builder) Build(name string, player *entity.Entity, place string) (*world.Level, error) {
	spec, ok := b.Maps[name]
	if !ok {
		return nil, fmt.Errorf("unknown map %q", name)
	}

	res := b.Base.Resolution
	if res <= 0 {
		res = 16
	}

	cfg := b.Base
	cfg.Name = spec.Name
	cfg.Resolution = res
	cfg.Width = float64(spec.Cols * res)
	cfg.Height = float64(spec.Rows * res)
	level := world.NewLevel(cfg)

	// Вокруг точек появления и выходов препятствий нет
	clear := make(map[vec.Vec2]bool)
	reserve := func(c vec.Vec2) {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				clear[vec.Vec2{X: c.X + dx, Y: c.Y + dy}] = true
			}
		}
	}

	cellRect := func(c vec.Vec2) physics.Rect {
		p := c.Scale(res)
		return physics.Rect{X: p.X, Y: p.Y, W: float64(res), H: float64(res)}
	}

	for _, p := range spec.Places {
		level.AddLocation(&world.Location{Rect: cellRect(p.Cell), Name: p.Name, Orientation: p.Orientation})
		reserve(p.Cell)
	}
	for _, e := range spec.Exits {
		level.AddTrigger(&world.Trigger{Rect: cellRect(e.Cell), Name: e.Name, Map: e.Map, Place: e.Place})
		reserve(e.Cell)
	}

	blocked := make(map[vec.Vec2]bool)
	if spec.Threshold > 0 {
		noise := NewNoise(spec.Seed)
		for _, c := range noise.Obstacles(spec.Cols, spec.Rows, spec.Threshold, func(c vec.Vec2) bool { return clear[c] }) {
			r := cellRect(c)
			box := physics.NewBox(r.X, r.Y, r.W, r.H, true)
			box.Tag = "rock"
			level.AddStatic(box)
			blocked[c] = true
		}
	}

	// Игрок меняется только после того, как уровень собран целиком:
	// при ошибке он остаётся на прежнем уровне нетронутым
	mobs, err := b.populate(level, spec, blocked, clear)
	if err != nil {
		return nil, err
	}

	if player != nil {
		if _, ok := level.Location(place); !ok {
			return nil, fmt.Errorf("%w: %s (map %s)", world.ErrLocationNotFound, place, spec.Name)
		}
		player.ID = 0
		if err := level.PlacePlayer(player, place); err != nil {
			return nil, err
		}
	}

	for _, mob := range mobs {
		if mob.Motion != nil && player != nil {
			mob.Motion.SetBrain(entity.NewChaser(mob, player.ID))
		}
		level.AddEntity(mob)
	}

	b.logger.Info("Карта %s собрана: %dx%d, препятствий %d, актёров %d", spec.Name, spec.Cols, spec.Rows, len(blocked), level.EntityCount())
	return level, nil
}

// populate создаёт монстров в свободных клетках. На уровень они добавляются
// вызывающим, когда известен идентификатор игрока.
func (b *Builder) populate(level *world.Level, spec MapSpec, blocked, clear map[vec.Vec2]bool) ([]*entity.Entity, error) {
	if spec.Monsters <= 0 || spec.Species == "" {
		return nil, nil
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	res := level.Resolution()
	placed := 0
	var mobs []*entity.Entity

	for attempts := 0; placed < spec.Monsters && attempts < spec.Monsters*50; attempts++ {
		cell := vec.Vec2{X: rng.Intn(spec.Cols), Y: rng.Intn(spec.Rows)}
		if blocked[cell] || clear[cell] {
			continue
		}

		mob, err := b.Registry.Spawn(spec.Species, cell.Scale(res))
		if err != nil {
			return nil, err
		}
		mobs = append(mobs, mob)
		blocked[cell] = true
		placed++
	}

	if placed < spec.Monsters {
		b.logger.Warn("Карта %s: размещено %d из %d монстров", spec.Name, placed, spec.Monsters)
	}
	return mobs, nil
}
