package render

// Result holds exactly one of a value or an error. Factories of the render
// core return Results; use Get to move back to the (value, error) form.
//
// Calling Value on a failed Result or Err on a successful one is a
// programming error and panics.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail builds a failed Result. err must not be nil.
func Fail[T any](err error) Result[T] {
	if err == nil {
		panic("render: Fail called with a nil error")
	}
	return Result[T]{err: err}
}

func (r Result[T]) OK() bool {
	return r.ok
}

func (r Result[T]) Value() T {
	if !r.ok {
		if r.err == nil {
			panic("render: Value on an unset Result")
		}
		panic("render: Value on a failed Result: " + r.err.Error())
	}
	return r.value
}

func (r Result[T]) Err() error {
	if r.ok {
		panic("render: Err on a successful Result")
	}
	if r.err == nil {
		panic("render: Err on an unset Result")
	}
	return r.err
}

// Get returns the value and a nil error, or the zero value and the error.
func (r Result[T]) Get() (T, error) {
	if r.ok {
		return r.value, nil
	}
	var zero T
	return zero, r.Err()
}

// Must returns the value of r or panics with its error. Meant for tests and
// setup code where failure is not recoverable.
func Must[T any](r Result[T]) T {
	v, err := r.Get()
	if err != nil {
		panic(err)
	}
	return v
}
