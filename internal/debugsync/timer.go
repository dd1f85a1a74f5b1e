package debugsync

import (
	"runtime/debug"
	"time"

	"go.dedis.ch/acta"
)

const mutexTimeout = 30 * time.Minute

func startLockTimer(msg string) chan struct{} {
	done := make(chan struct{})
	stack := debug.Stack()

	go func(s []byte) {
		select {
		case <-time.After(mutexTimeout):
			acta.Logger.Error().Msgf("%v : %v", msg, string(s))
			return
		case <-done:
			return
		}
	}(stack)

	return done
}
