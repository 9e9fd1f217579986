package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/ifcsolid/pkg/model"
)

// DefaultTimeout bounds one evaluation of a description.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a description runs past the engine's
	// timeout, typically because it loops.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrSuperseded is returned to a caller whose description finished
	// after a newer one had started on the same engine.
	ErrSuperseded = errors.New("evaluation superseded by a newer description")
)

// outcome is what the evaluating goroutine hands back.
type outcome struct {
	model  *model.Model
	errors []EvalError
	err    error
}

// begin tags a new evaluation. Only the latest tag may deliver a model.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) latest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await blocks until the evaluation tagged gen reports or ctx ends. The
// goroutine may outlive a timeout; its late outcome lands in the buffered
// channel and is dropped.
func (e *Engine) await(ctx context.Context, done <-chan outcome, gen uint64) (*model.Model, []EvalError, error) {
	select {
	case out := <-done:
		if !e.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return out.model, out.errors, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout())
		}
		return nil, nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())
	}
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}
