package session

import (
	"github.com/annel0/overworld/internal/eventbus"
	"github.com/annel0/overworld/internal/world"
)

// ActorPayload нагрузка событий жизненного цикла актёра
type ActorPayload struct {
	Map      string  `json:"map"`
	Tick     uint64  `json:"tick"`
	EntityID uint64  `json:"entity_id"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// PathPayload нагрузка события завершения поиска пути
type PathPayload struct {
	Map       string `json:"map"`
	Tick      uint64 `json:"tick"`
	From      uint64 `json:"from"`
	To        uint64 `json:"to"`
	Status    string `json:"status"`
	Length    int    `json:"length"`
	Cancelled bool   `json:"cancelled"`
}

// TransitionPayload нагрузка события перехода между картами
type TransitionPayload struct {
	From  string `json:"from"`
	Tick  uint64 `json:"tick"`
	Map   string `json:"map"`
	Place string `json:"place"`
}

// publish переводит событие уровня в конверт шины. Вызывается в потоке тика.
func (s *Session) publish(ev world.Event) {
	var (
		payload  interface{}
		priority = eventbus.PriorityLow
	)

	switch ev.Type {
	case world.EventActorSpawned, world.EventActorDied, world.EventActorFinalized:
		payload = ActorPayload{
			Map:      s.level.Name(),
			Tick:     ev.Tick,
			EntityID: ev.EntityID,
			Kind:     ev.Kind,
			X:        ev.Position.X,
			Y:        ev.Position.Y,
		}
	case world.EventPathResolved:
		req := ev.Request
		payload = PathPayload{
			Map:       s.level.Name(),
			Tick:      ev.Tick,
			From:      req.From,
			To:        req.To,
			Status:    req.Status().String(),
			Length:    len(req.Nodes()),
			Cancelled: req.Cancelled(),
		}
	case world.EventTransition:
		payload = TransitionPayload{From: s.level.Name(), Tick: ev.Tick, Map: ev.Map, Place: ev.Place}
		priority = eventbus.PriorityHigh
	default:
		return
	}

	env, err := eventbus.NewEnvelope("overworld/"+s.id, ev.Type.String(), payload)
	if err != nil {
		s.logger.Warn("Событие %s не сериализовано: %v", ev.Type, err)
		return
	}
	env.Priority = priority
	env.CorrelationID = s.id

	if err := s.opts.Bus.Publish(s.ctx, env); err != nil {
		s.logger.Warn("Событие %s не опубликовано: %v", ev.Type, err)
	}
}
