package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during tick N become
// readable in tick N+1, after the scheduler calls SwapBuffers at tick start.
// This keeps optional consumers (analysis, mentor) off the critical path of
// the frame that produced the event.
type Bus struct {
	mu       sync.Mutex // protects handler registration only
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer, readable next tick. Tick
// goroutine only.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a typed handler for events of type T. Handlers run in
// the tick goroutine during DispatchAll.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back to front and clears the new back buffer. Called
// once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				// Handlers and events are keyed by the same concrete type.
				reflect.ValueOf(h).Call([]reflect.Value{reflect.ValueOf(ev)})
			}
		}
	}
}
