package domain

// Outcome captures the result of one item of a batch. Exactly one of Value
// or Err is meaningful.
type Outcome[T any] struct {
	Value T
	Err   error
}

// OK reports whether the item succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Succeeded wraps a successful value.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Failed wraps a per-item error.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}
