package eventbus

import (
	"context"

	"github.com/annel0/overworld/internal/logging"
)

// StartLoggingListener пишет события указанных типов (пусто - все) в лог
// компонента eventbus на уровне DEBUG
func StartLoggingListener(ctx context.Context, bus EventBus, types ...string) (Subscription, error) {
	logger := logging.GetComponentLogger("eventbus")
	sub, err := bus.Subscribe(ctx, Filter{Types: types}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("%s %s src=%s prio=%d %s", shortID(ev.ID), ev.EventType, ev.Source, ev.Priority, ev.Payload)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 Логирование событий шины включено")
	return sub, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
