// Package emitter provides a small publish/subscribe hub keyed by a
// caller-defined event name type. Payloads are untyped; each event's
// payload type is part of the publisher's contract.
package emitter

import "sync"

// Handler receives the payload published with Emit.
type Handler func(payload any)

// Emitter fans events out to subscribed handlers. Fan-out order between
// handlers of the same event is unspecified. Emitting an event with no
// subscribers is not an error.
type Emitter[E comparable] struct {
	mu       sync.Mutex
	nextID   int
	handlers map[E]map[int]Handler
}

func New[E comparable]() *Emitter[E] {
	return &Emitter[E]{handlers: make(map[E]map[int]Handler)}
}

// Subscribe registers handler for event and returns a capability that
// removes exactly that registration. Calling it more than once is a no-op.
func (e *Emitter[E]) Subscribe(event E, handler Handler) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++

	registered, ok := e.handlers[event]
	if !ok {
		registered = make(map[int]Handler)
		e.handlers[event] = registered
	}
	registered[id] = handler

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if registered, ok := e.handlers[event]; ok {
			delete(registered, id)
		}
	}
}

// Emit synchronously invokes every handler currently registered for
// event. Handlers run on the caller's goroutine; the emitter does not
// wait on any work a handler hands off elsewhere.
func (e *Emitter[E]) Emit(event E, payload any) {
	e.mu.Lock()
	registered := e.handlers[event]
	fanout := make([]Handler, 0, len(registered))
	for _, handler := range registered {
		fanout = append(fanout, handler)
	}
	e.mu.Unlock()

	for _, handler := range fanout {
		handler(payload)
	}
}

// UnsubscribeAll drops every registration for every event.
func (e *Emitter[E]) UnsubscribeAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = make(map[E]map[int]Handler)
}
