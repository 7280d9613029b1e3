package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step is one stage of a multi-step operation. Compensate undoes Execute and
// may be nil when nothing can be undone.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError wraps the failure of a named step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("saga: step %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// Run executes steps in order. On failure the completed steps are compensated
// in reverse order; compensation errors are joined onto the step error.
func Run(ctx context.Context, steps ...Step) error {
	done := make([]Step, 0, len(steps))
	for _, step := range steps {
		if step.Execute == nil {
			continue
		}
		if err := step.Execute(ctx); err != nil {
			failure := error(&StepError{Step: step.Name, Err: err})
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].Compensate == nil {
					continue
				}
				if cErr := done[i].Compensate(ctx); cErr != nil {
					failure = errors.Join(failure, fmt.Errorf("saga: compensate %s: %w", done[i].Name, cErr))
				}
			}
			return failure
		}
		done = append(done, step)
	}
	return nil
}
