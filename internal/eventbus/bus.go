package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"briar-gateway/internal/models"
)

// Bus delivers events to its subscribers on a single goroutine, in publish order.
type Bus struct {
	log    *slog.Logger
	events chan models.Event
	done   chan struct{}

	mu          sync.RWMutex
	subscribers []subscriber
	nextID      int

	closeOnce sync.Once
}

type subscriber struct {
	id int
	fn func(models.Event)
}

var (
	_ models.EventBus       = (*Bus)(nil)
	_ models.EventPublisher = (*Bus)(nil)
)

// New creates a Bus whose queue holds bufferSize events. Run must be called to deliver them.
func New(bufferSize int, log *slog.Logger) *Bus {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Bus{
		log:    log,
		events: make(chan models.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers fn and returns a func that removes it. Listeners run on the dispatch
// goroutine and must not block.
func (b *Bus) Subscribe(fn func(models.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish queues e. It blocks while the queue is full and returns immediately once the bus is
// closed, dropping e.
func (b *Bus) Publish(e models.Event) {
	select {
	case <-b.done:
		b.log.Debug("Event bus closed, dropping event", "event", eventName(e))
		return
	default:
	}
	select {
	case b.events <- e:
	case <-b.done:
		b.log.Debug("Event bus closed, dropping event", "event", eventName(e))
	}
}

// Run dispatches queued events until ctx is done or Close is called. Events still queued at
// Close are delivered before Run returns.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			b.drain()
			return
		case e := <-b.events:
			b.dispatch(e)
		}
	}
}

func (b *Bus) drain() {
	for {
		select {
		case e := <-b.events:
			b.dispatch(e)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(e models.Event) {
	b.mu.RLock()
	subscribers := make([]subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subscribers {
		s.fn(e)
	}
}

// Close stops accepting events.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
