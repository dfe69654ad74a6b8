// Package txguard runs functions against a world transaction without letting
// panics escape into the goroutine that runs the world's transactions.
package txguard

import (
	"errors"
	"fmt"

	"github.com/dm-vev/islandcalc/server/world"
)

var (
	// ErrNoTx is returned when a nil transaction is passed.
	ErrNoTx = errors.New("txguard: no transaction")
	// ErrClosed is returned when the function used the transaction after it
	// finished.
	ErrClosed = errors.New("txguard: transaction already finished")
	// ErrPanic wraps any other value the function panicked with.
	ErrPanic = errors.New("txguard: panic")
)

// Run runs fn and returns its error. A panic in fn is recovered and returned
// as an error wrapping ErrClosed or ErrPanic.
func Run(tx *world.Tx, fn func() error) error {
	_, err := Value(tx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Value runs fn and returns its results. A panic in fn is recovered and
// returned as an error wrapping ErrClosed or ErrPanic, in which case value is
// the zero value of T.
func Value[T any](tx *world.Tx, fn func() (T, error)) (value T, err error) {
	if tx == nil {
		return value, ErrNoTx
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			if msg, str := r.(string); str && msg == world.ClosedTxMessage {
				err = ErrClosed
				return
			}
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
