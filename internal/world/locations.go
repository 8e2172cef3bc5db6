package world

import (
	"errors"
	"fmt"

	"github.com/annel0/overworld/internal/entity"
	"github.com/annel0/overworld/internal/logging"
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/vec"
)

// ErrLocationNotFound возвращается при размещении игрока в неизвестной точке
var ErrLocationNotFound = errors.New("location not found")

// Location именованная точка появления на карте
type Location struct {
	physics.Rect
	Name        string
	Orientation vec.Dir // Куда смотрит появившийся актёр
}

// Place ставит актёра в центр точки и поворачивает его по ориентации
func (loc *Location) Place(e *entity.Entity) {
	center := loc.Center()
	e.Position = vec.Vec2Float{
		X: center.X - e.Size.X/2,
		Y: center.Y - e.Size.Y/2,
	}
	if e.Motion != nil && loc.Orientation.Valid() {
		e.Motion.SetFacing(loc.Orientation)
	}
}

// AddLocation регистрирует точку появления, заменяя одноимённую
func (l *Level) AddLocation(loc *Location) {
	l.locations[loc.Name] = loc
}

// Location возвращает точку появления по имени
func (l *Level) Location(name string) (*Location, bool) {
	loc, ok := l.locations[name]
	return loc, ok
}

// PlacePlayer размещает игрока в точке name и добавляет его на уровень.
// Первый размещённый игрок становится главным.
func (l *Level) PlacePlayer(player *entity.Entity, name string) error {
	loc, ok := l.locations[name]
	if !ok {
		return fmt.Errorf("%w: %s (map %s)", ErrLocationNotFound, name, l.name)
	}

	if l.mainPlayer == nil {
		l.mainPlayer = player
	}

	loc.Place(player)
	l.players = append(l.players, player)
	l.AddEntity(player)

	l.logger.Info("Игрок %d размещён в %s (%.0f,%.0f)", player.ID, name, player.Position.X, player.Position.Y)
	return nil
}

// MustPlacePlayer размещает игрока и завершает процесс, если точки нет:
// карта без точки появления игрока непригодна для игры
func (l *Level) MustPlacePlayer(player *entity.Entity, name string) {
	if err := l.PlacePlayer(player, name); err != nil {
		logging.Fatal("Не удалось разместить игрока: %v", err)
	}
}

// RespawnPlayer возвращает окончательно погибшего главного игрока в точку name
func (l *Level) RespawnPlayer(name string, health int) error {
	p := l.mainPlayer
	if p == nil {
		return errors.New("no main player")
	}
	if _, inArena := l.arena[p.ID]; inArena {
		return fmt.Errorf("main player %d is still on the level", p.ID)
	}
	loc, ok := l.locations[name]
	if !ok {
		return fmt.Errorf("%w: %s (map %s)", ErrLocationNotFound, name, l.name)
	}

	p.Revive(health)
	loc.Place(p)
	l.AddEntity(p)
	return nil
}
