package utils

import (
	"context"
	"log"
	"runtime"
)

const stackSize = 8096

func stack() []byte {
	buf := make([]byte, stackSize)
	return buf[:runtime.Stack(buf, false)]
}

func CatchPanic() {
	if err := recover(); err != nil {
		log.Printf("recovered panic:\n%s", stack())
	}
}

func CatchPanicWithCancel(cancel context.CancelFunc) {
	if err := recover(); err != nil {
		log.Printf("recovered panic:\n%s", stack())
		cancel()
	}
}

// CatchPanicWithFallback must be deferred directly. onPanic receives the
// recovered value and the stack of the panicking goroutine.
func CatchPanicWithFallback(onPanic func(rec any, stack []byte)) {
	if err := recover(); err != nil {
		s := stack()
		log.Printf("recovered panic:\n%s", s)
		onPanic(err, s)
	}
}
