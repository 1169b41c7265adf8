package auth

import "sync"

// SignalClass enumerates the host input signals that count as user
// activity.
type SignalClass string

const (
	SignalPointerPress SignalClass = "pointer.press"
	SignalPointerMove  SignalClass = "pointer.move"
	SignalKeyPress     SignalClass = "key.press"
	SignalScroll       SignalClass = "scroll"
	SignalTouch        SignalClass = "touch"
	SignalClick        SignalClass = "click"
)

// ActivitySource is implemented by the host environment. Subscribe
// registers a handler for raw activity signals and returns a release
// function; the controller subscribes only while a session is live, so
// unauthenticated visitors are never observed.
type ActivitySource interface {
	Subscribe(handler func(SignalClass)) (release func())
}

// SignalBroadcaster is an in-process ActivitySource hosts can push
// signals into, e.g. from UI event hooks.
type SignalBroadcaster struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(SignalClass)
}

// NewSignalBroadcaster returns an empty broadcaster.
func NewSignalBroadcaster() *SignalBroadcaster {
	return &SignalBroadcaster{
		handlers: map[int]func(SignalClass){},
	}
}

// Subscribe implements ActivitySource. The release function is idempotent.
func (b *SignalBroadcaster) Subscribe(handler func(SignalClass)) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Emit forwards a signal to every current subscriber. Handlers run on the
// caller's goroutine without the broadcaster lock held.
func (b *SignalBroadcaster) Emit(signal SignalClass) {
	b.mu.Lock()
	handlers := make([]func(SignalClass), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(signal)
	}
}

// SubscriberCount reports how many handlers are registered.
func (b *SignalBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

var _ ActivitySource = (*SignalBroadcaster)(nil)
