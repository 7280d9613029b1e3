package middleware

import (
	"context"
	"errors"

	"unimate/internal/app/commands"
	"unimate/internal/app/queries"
)

// ValidationError marks a message rejected before reaching its handler.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err was produced by the validation stage.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// SelfValidating delegates to messages that know how to validate themselves.
type SelfValidating struct{}

func (SelfValidating) Validate(_ context.Context, message any) error {
	if v, ok := message.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, &ValidationError{Err: err}
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, &ValidationError{Err: err}
			}
			return nextFn(ctx, q)
		})
	}
}
