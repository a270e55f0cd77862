// Package lifecycle tracks the initialize → startup → shutdown → destroy
// sequence shared by the icon and background registries.
package lifecycle

import (
	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
)

type Phase uint8

const (
	Initialized Phase = iota
	Started
	Stopped
	Destroyed
)

func (p Phase) String() string {
	switch p {
	case Initialized:
		return `initialized`
	case Started:
		return `started`
	case Stopped:
		return `stopped`
	case Destroyed:
		return `destroyed`
	default:
		return `unknown`
	}
}

// State is embedded by owners of process-wide resources.
type State struct{ phase Phase }

func (s *State) Phase() Phase {
	if s == nil {
		return Destroyed
	}
	return s.phase
}

// Require returns an error unless the current phase is one of allowed.
func (s *State) Require(op string, allowed ...Phase) error {
	cur := s.Phase()
	for _, p := range allowed {
		if cur == p {
			return nil
		}
	}
	return errors.WrapPrefix(consts.ErrLifecycle, op+` (`+cur.String()+`)`, 1)
}

// Advance moves to next if the transition is the expected successor.
func (s *State) Advance(op string, next Phase) error {
	if s == nil {
		return errors.NilReceiver()
	}
	var from Phase
	switch next {
	case Started:
		from = Initialized
	case Stopped:
		from = Started
	case Destroyed:
		// destroy is also valid when startup never happened
		if s.phase == Initialized || s.phase == Stopped {
			s.phase = next
			return nil
		}
		return errors.WrapPrefix(consts.ErrLifecycle, op+` (`+s.phase.String()+`)`, 1)
	default:
		return errors.Errorf(`invalid target phase %q`, next.String())
	}
	if s.phase != from {
		return errors.WrapPrefix(consts.ErrLifecycle, op+` (`+s.phase.String()+`)`, 1)
	}
	s.phase = next
	return nil
}
