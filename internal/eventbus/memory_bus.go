package eventbus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed возвращается при работе с закрытой шиной
var ErrClosed = errors.New("eventbus: closed")

// memoryBus доставляет события подписчикам внутри процесса. У каждого
// подписчика своя очередь, поэтому порядок событий для него сохраняется,
// а медленный подписчик не задерживает остальных.
type memoryBus struct {
	mu     sync.Mutex
	subs   map[int]*memSub
	nextID int
	stats  Stats

	buffer   chan *Envelope
	capacity int

	closeMu sync.RWMutex // Publish держит RLock, чтобы Close не закрыл buffer под отправкой
	closed  bool
	done    chan struct{}
	workers sync.WaitGroup
}

// NewMemoryBus создаёт шину с буфером capacity событий
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1
	}
	mb := &memoryBus{
		subs:     make(map[int]*memSub),
		buffer:   make(chan *Envelope, capacity),
		capacity: capacity,
		done:     make(chan struct{}),
	}
	go mb.dispatch()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
	default:
		if ev.Priority < PriorityHigh {
			mb.count(func(s *Stats) { s.Dropped++ })
			return nil
		}
		select {
		case mb.buffer <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	mb.count(func(s *Stats) { s.Published++ })
	return nil
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return nil, ErrClosed
	}

	cctx, cancel := context.WithCancel(ctx)
	sub := &memSub{
		bus:     mb,
		filter:  f,
		handler: h,
		ctx:     cctx,
		cancel:  cancel,
		queue:   make(chan *Envelope, mb.capacity),
	}

	mb.mu.Lock()
	sub.id = mb.nextID
	mb.nextID++
	mb.subs[sub.id] = sub
	mb.mu.Unlock()

	mb.workers.Add(1)
	go sub.run()
	return sub, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	s := mb.stats
	s.InFlight = len(mb.buffer)
	return s
}

// Close прекращает приём событий и дожидается, пока подписчики обработают
// уже принятые
func (mb *memoryBus) Close() error {
	mb.closeMu.Lock()
	if mb.closed {
		mb.closeMu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.closeMu.Unlock()

	<-mb.done

	mb.mu.Lock()
	for _, sub := range mb.subs {
		close(sub.queue)
	}
	mb.subs = make(map[int]*memSub)
	mb.mu.Unlock()

	mb.workers.Wait()
	return nil
}

func (mb *memoryBus) count(fn func(s *Stats)) {
	mb.mu.Lock()
	fn(&mb.stats)
	mb.mu.Unlock()
}

// dispatch раскладывает события по очередям подписчиков
func (mb *memoryBus) dispatch() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.mu.Lock()
		for _, sub := range mb.subs {
			if !sub.filter.Match(ev) {
				continue
			}
			select {
			case sub.queue <- ev:
			default:
				// Очередь подписчика переполнена
				mb.stats.Dropped++
			}
		}
		mb.mu.Unlock()
	}
}

type memSub struct {
	bus     *memoryBus
	id      int
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	queue   chan *Envelope
}

func (s *memSub) run() {
	defer s.bus.workers.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev, ok := <-s.queue:
			if !ok {
				return
			}
			s.handler(s.ctx, ev)
			s.bus.count(func(st *Stats) { st.Consumed++ })
		}
	}
}

func (s *memSub) Unsubscribe() {
	s.cancel()
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
}
