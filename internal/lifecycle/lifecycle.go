// Package lifecycle models the idle/pending/succeeded/failed state of a
// session's remote request. All changes go through Apply so every legal
// transition is listed in one place.
package lifecycle

import (
	"errors"
	"fmt"
)

// Phase is the tag of the lifecycle union.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText renders the phase by name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

var (
	ErrPending     = errors.New("a request is already pending")
	ErrNotPending  = errors.New("no request is pending")
	ErrNotTerminal = errors.New("nothing to dismiss")
)

// Lifecycle is a value type; the zero value is Idle.
type Lifecycle[T any] struct {
	phase   Phase
	payload T
	reason  string
}

func (l Lifecycle[T]) Phase() Phase { return l.phase }

// Terminal reports whether the lifecycle holds a success or failure.
func (l Lifecycle[T]) Terminal() bool {
	return l.phase == Succeeded || l.phase == Failed
}

// Payload returns the success payload; ok is false outside Succeeded.
func (l Lifecycle[T]) Payload() (T, bool) {
	if l.phase != Succeeded {
		var zero T
		return zero, false
	}
	return l.payload, true
}

// Reason is the failure reason, empty outside Failed.
func (l Lifecycle[T]) Reason() string {
	if l.phase != Failed {
		return ""
	}
	return l.reason
}

type kind int

const (
	kindBegin kind = iota
	kindResolve
	kindReject
	kindDismiss
)

func (k kind) String() string {
	switch k {
	case kindBegin:
		return "begin"
	case kindResolve:
		return "resolve"
	case kindReject:
		return "reject"
	case kindDismiss:
		return "dismiss"
	}
	return "unknown"
}

// Transition is an input to Apply.
type Transition[T any] struct {
	kind    kind
	payload T
	reason  string
}

func (t Transition[T]) String() string { return t.kind.String() }

func Begin[T any]() Transition[T] {
	return Transition[T]{kind: kindBegin}
}

func Resolve[T any](payload T) Transition[T] {
	return Transition[T]{kind: kindResolve, payload: payload}
}

func Reject[T any](reason string) Transition[T] {
	return Transition[T]{kind: kindReject, reason: reason}
}

func Dismiss[T any]() Transition[T] {
	return Transition[T]{kind: kindDismiss}
}

// Apply returns the lifecycle after t. On an illegal transition the
// receiver is returned unchanged together with an error.
func (l Lifecycle[T]) Apply(t Transition[T]) (Lifecycle[T], error) {
	switch t.kind {
	case kindBegin:
		if l.phase == Pending {
			return l, ErrPending
		}
		return Lifecycle[T]{phase: Pending}, nil

	case kindResolve:
		if l.phase != Pending {
			return l, ErrNotPending
		}
		return Lifecycle[T]{phase: Succeeded, payload: t.payload}, nil

	case kindReject:
		if l.phase != Pending {
			return l, ErrNotPending
		}
		return Lifecycle[T]{phase: Failed, reason: t.reason}, nil

	case kindDismiss:
		if !l.Terminal() {
			return l, ErrNotTerminal
		}
		return Lifecycle[T]{phase: Idle}, nil
	}

	return l, fmt.Errorf("unknown transition %q", t.kind)
}
