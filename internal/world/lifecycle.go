package world

import (
	"github.com/annel0/overworld/internal/entity"
)

// Update выполняет один тик уровня: обход умирающих, обход живых,
// добавление появившихся за тик актёров, проверку триггеров и порцию
// поиска пути.
func (l *Level) Update(dt float64) {
	l.tick++

	l.updating = true
	l.updateDying(dt)
	l.updateAlive(dt)
	l.reap()
	l.updating = false

	l.mergeSpawned()
	l.checkTriggers()

	l.finder.Advance(l.maxNodesPerTick)
}

// updateDying обновляет умирающих и удаляет тех, чья смерть завершилась.
// Главный игрок убирается из списков, но остаётся доступен через MainPlayer.
func (l *Level) updateDying(dt float64) {
	kept := l.dying[:0]
	n := len(l.dying)

	for i := 0; i < n; i++ {
		e := l.dying[i]
		if !e.IsFinallyDead() {
			e.Update(dt)
			kept = append(kept, e)
			continue
		}

		e.Dead()
		delete(l.arena, e.ID)
		l.emit(Event{Type: EventActorFinalized, EntityID: e.ID, Kind: e.Kind, Position: e.Position})

		if e == l.mainPlayer {
			l.logger.Info("Главный игрок %d окончательно погиб", e.ID)
		} else {
			l.logger.Trace("Актёр %d (%s) удалён", e.ID, e.Kind)
		}
	}

	// Новые умирающие могли добавиться через retire только после этого обхода
	for i := len(kept); i < n; i++ {
		l.dying[i] = nil
	}
	l.dying = kept
}

// updateAlive обходит живых с уплотнением на месте: каждый актёр посещается
// ровно один раз, даже если соседи погибают в течение обхода.
func (l *Level) updateAlive(dt float64) {
	kept := 0

	for i := 0; i < len(l.alive); i++ {
		e := l.alive[i]

		// Погиб до своей очереди: удаляется без обновления
		if !e.IsAlive() {
			l.retire(e)
			continue
		}

		if e.IsMob() {
			// Подвижный актёр на время обновления убирается из индекса,
			// чтобы не сталкиваться с собственной старой позицией
			l.dynamic.Remove(e)
			e.Update(dt)
			if e.IsAlive() {
				l.dynamic.Insert(e)
			}
		} else {
			e.Update(dt)
		}

		if !e.IsAlive() {
			l.retire(e)
			continue
		}

		l.alive[kept] = e
		kept++
	}

	for i := kept; i < len(l.alive); i++ {
		l.alive[i] = nil
	}
	l.alive = l.alive[:kept]
}

// reap удаляет актёров, убитых уже после собственного обновления в этом тике
func (l *Level) reap() {
	kept := 0
	for _, e := range l.alive {
		if !e.IsAlive() {
			l.retire(e)
			continue
		}
		l.alive[kept] = e
		kept++
	}
	for i := kept; i < len(l.alive); i++ {
		l.alive[i] = nil
	}
	l.alive = l.alive[:kept]
}

// retire переводит актёра из живых в умирающие: снимает с индекса и
// отменяет все запросы пути, в которых он участвует
func (l *Level) retire(e *entity.Entity) {
	e.Die()
	l.dynamic.Remove(e)
	if n := l.finder.Cancel(e.ID); n > 0 {
		l.logger.Debug("Актёр %d погиб, отменено запросов пути: %d", e.ID, n)
	}
	l.dying = append(l.dying, e)

	l.emit(Event{Type: EventActorDied, EntityID: e.ID, Kind: e.Kind, Position: e.Position})
}

// mergeSpawned переносит актёров, добавленных во время обхода, в списки
func (l *Level) mergeSpawned() {
	for i, e := range l.spawned {
		if _, ok := l.arena[e.ID]; ok {
			l.admit(e)
		}
		l.spawned[i] = nil
	}
	l.spawned = l.spawned[:0]
}
