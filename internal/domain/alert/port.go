package alert

import "context"

type Repo interface {
	// Create inserts an alert record. MaxTries defaults to DefaultMaxTries
	// when zero.
	Create(ctx context.Context, a *Alert) error

	// IncrementTries bumps the delivery attempt counter and returns the
	// new value. The notifier records the attempt but does not compare the
	// returned value with MaxTries.
	IncrementTries(ctx context.Context, id int64) (int, error)
}
