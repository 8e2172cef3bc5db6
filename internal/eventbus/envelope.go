package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Приоритеты событий. При переполнении буфера события ниже PriorityHigh
// отбрасываются, остальные ждут места.
const (
	PriorityLow  = 1
	PriorityHigh = 5
)

// Envelope конверт события симуляции
type Envelope struct {
	ID            string            `json:"id"` // UUID, также Nats-Msg-Id для дедупликации
	Timestamp     time.Time         `json:"ts"`
	Source        string            `json:"source"` // overworld/<session id>
	EventType     string            `json:"type"`   // actor.died, path.resolved...
	Version       int               `json:"v"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Priority      int               `json:"priority"`
	Payload       json.RawMessage   `json:"payload,omitempty"`
	Metadata      map[string]string `json:"meta,omitempty"`
}

// NewEnvelope создаёт конверт с новым UUID и нагрузкой в JSON
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  PriorityLow,
		Payload:   data,
	}, nil
}

// Decode разбирает нагрузку конверта в v
func (e *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Filter отбирает события по типу и источнику. Пустой список - любые.
type Filter struct {
	Types   []string
	Sources []string
}

// Match проверяет, проходит ли событие фильтр
func (f Filter) Match(ev *Envelope) bool {
	return (len(f.Types) == 0 || slices.Contains(f.Types, ev.EventType)) &&
		(len(f.Sources) == 0 || slices.Contains(f.Sources, ev.Source))
}

// Subscription возвращается при подписке
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события. Для одного подписчика вызовы последовательны.
type Handler func(ctx context.Context, ev *Envelope)

// Stats счётчики шины с момента создания
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus шина событий симуляции: в памяти процесса или NATS JetStream
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}
