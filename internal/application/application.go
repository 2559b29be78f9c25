package application

import "context"

// UseCase is a single application operation taking a command C and
// producing a result R.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}
