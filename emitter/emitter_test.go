package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_FanOut(t *testing.T) {
	e := New[string]()

	var first, second []any
	e.Subscribe("ping", func(payload any) { first = append(first, payload) })
	e.Subscribe("ping", func(payload any) { second = append(second, payload) })
	e.Subscribe("pong", func(payload any) { t.Fatal("wrong event delivered") })

	e.Emit("ping", 1)
	e.Emit("ping", 2)

	assert.Equal(t, []any{1, 2}, first)
	assert.Equal(t, []any{1, 2}, second)
}

func TestEmitter_EmitWithoutSubscribers(t *testing.T) {
	e := New[string]()

	assert.NotPanics(t, func() { e.Emit("nobody", "listens") })
}

func TestEmitter_UnsubscribeRemovesExactlyOne(t *testing.T) {
	e := New[string]()

	var kept, dropped int
	unsubscribe := e.Subscribe("tick", func(any) { dropped++ })
	e.Subscribe("tick", func(any) { kept++ })

	e.Emit("tick", nil)
	unsubscribe()
	unsubscribe() // second call is a no-op
	e.Emit("tick", nil)

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, kept)
}

func TestEmitter_UnsubscribeAll(t *testing.T) {
	e := New[string]()

	var calls int
	e.Subscribe("tick", func(any) { calls++ })
	e.Subscribe("tock", func(any) { calls++ })

	e.UnsubscribeAll()
	e.Emit("tick", nil)
	e.Emit("tock", nil)

	assert.Zero(t, calls)

	// the hub stays usable after a teardown
	e.Subscribe("tick", func(any) { calls++ })
	e.Emit("tick", nil)
	assert.Equal(t, 1, calls)
}

func TestEmitter_SubscribeDuringEmitDoesNotReceiveCurrent(t *testing.T) {
	e := New[string]()

	var late int
	e.Subscribe("tick", func(any) {
		e.Subscribe("tick", func(any) { late++ })
	})

	e.Emit("tick", nil)
	assert.Zero(t, late)

	e.Emit("tick", nil)
	assert.Equal(t, 1, late)
}
