// Package emitter carries intermediate agent state from a running step to the UI layer.
package emitter

import (
	"context"
	"errors"

	"github.com/octobees/places-agent/internal/entity"
)

// Emitter receives a snapshot of the full state each time the step reports progress.
// Implementations must not retain state after Emit returns.
type Emitter interface {
	Emit(ctx context.Context, state *entity.AgentState) error
}

// Func adapts a function to Emitter.
type Func func(ctx context.Context, state *entity.AgentState) error

// Emit calls f.
func (f Func) Emit(ctx context.Context, state *entity.AgentState) error {
	return f(ctx, state)
}

// Nop discards every emission.
var Nop Emitter = Func(func(context.Context, *entity.AgentState) error { return nil })

type multi []Emitter

// Multi fans an emission out to every non-nil emitter in order. All emitters are
// called even when one fails; the errors are joined.
func Multi(emitters ...Emitter) Emitter {
	out := make(multi, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (m multi) Emit(ctx context.Context, state *entity.AgentState) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
