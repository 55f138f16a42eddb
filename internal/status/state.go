package status

import (
	"errors"
	"fmt"
	"slices"
)

// State is the delivery state of a single message.
type State string

const (
	Sending   State = "sending"
	Sent      State = "sent"
	Delivered State = "delivered"
	Read      State = "read"
)

// ErrInvalidTransition is returned when a status update would move a message backward.
var ErrInvalidTransition = errors.New("invalid status transition")

// validTransitions defines allowed forward edges. Skipping ahead is permitted
// (markRead jumps sent->read); no edge returns to an earlier state.
var validTransitions = map[State][]State{
	Sending:   {Sent, Delivered, Read},
	Sent:      {Delivered, Read},
	Delivered: {Read},
	Read:      {},
}

var order = map[State]int{
	Sending:   0,
	Sent:      1,
	Delivered: 2,
	Read:      3,
}

// Parse converts a wire string into a State.
func Parse(s string) (State, error) {
	st := State(s)
	if _, ok := order[st]; !ok {
		return "", fmt.Errorf("unknown message status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the four delivery states.
func (s State) Valid() bool {
	_, ok := order[s]
	return ok
}

// Rank returns the position of s in sending < sent < delivered < read, or -1.
func (s State) Rank() int {
	r, ok := order[s]
	if !ok {
		return -1
	}
	return r
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Read
}

// CanTransition reports whether from -> to is a forward edge.
func CanTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Advance validates a move from -> to. Re-applying the current state is a
// no-op and returns changed=false with no error, so replayed acknowledgments
// are harmless.
func Advance(from, to State) (changed bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown target %q", ErrInvalidTransition, to)
	}
	if from == to {
		return false, nil
	}
	if !CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	return true, nil
}

// Change is the payload published when a message advances.
type Change struct {
	ChatID    string
	MessageID string
	From      State
	To        State
}
