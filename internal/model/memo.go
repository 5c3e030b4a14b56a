package model

import "errors"

// errReentrant is returned when a memo cell is read while its own value is
// still being computed.
var errReentrant = errors.New("reentrant evaluation")

type memoState uint8

const (
	memoIdle memoState = iota
	memoBusy
	memoDone
)

// memo is a computed-once cell. It is not safe for concurrent use.
type memo[T any] struct {
	state memoState
	val   T
	err   error
}

func (m *memo[T]) get(compute func() (T, error)) (T, error) {
	switch m.state {
	case memoDone:
		return m.val, m.err
	case memoBusy:
		var zero T
		return zero, errReentrant
	}
	m.state = memoBusy
	m.val, m.err = compute()
	m.state = memoDone
	return m.val, m.err
}
