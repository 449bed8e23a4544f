package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunc_CatchPanicWithFallback(t *testing.T) {
	var got any
	var stack []byte
	func() {
		defer CatchPanicWithFallback(func(rec any, s []byte) {
			got, stack = rec, s
		})
		panic("boom")
	}()
	assert.Equal(t, "boom", got)
	assert.Contains(t, string(stack), "goroutine")
}

func TestFunc_CatchPanicWithFallbackNoPanic(t *testing.T) {
	called := false
	func() {
		defer CatchPanicWithFallback(func(any, []byte) { called = true })
	}()
	assert.False(t, called)
}

func TestFunc_CatchPanicWithCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	func() {
		defer CatchPanicWithCancel(cancel)
		panic("boom")
	}()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestFunc_CatchPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer CatchPanic()
		panic("boom")
	})
}
