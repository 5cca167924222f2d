// Package application holds the use cases of the checkout service and the
// instrumentation every use case runs under.
package application

import "context"

// UseCase executes one command. Handlers depend on this rather than on a
// concrete use case so a single operation can be swapped out.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// UseCaseFunc adapts a function to UseCase.
type UseCaseFunc[C any, R any] func(ctx context.Context, cmd C) (R, error)

func (f UseCaseFunc[C, R]) Execute(ctx context.Context, cmd C) (R, error) { return f(ctx, cmd) }
