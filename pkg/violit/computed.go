package violit

import (
	"cmp"
	"fmt"
)

// Source is any readable reactive value: a State or a Computed.
type Source[T any] interface {
	Value() T
}

// Computed is a read-only value derived from other signals, re-evaluated
// lazily on every read with no caching. Evaluating it inside a render
// pass transitively registers dependencies on every signal it reads.
//
// Computed values are combined with typed combinators rather than the
// loose cross-type operators of dynamically typed reactive systems:
// mixed-type expressions go through an explicit Text adapter instead of
// silently coercing.
type Computed[T any] struct {
	fn func() T
}

// NewComputed wraps a pure function of other signals.
func NewComputed[T any](fn func() T) Computed[T] {
	return Computed[T]{fn: fn}
}

// Value evaluates the derived value.
func (c Computed[T]) Value() T {
	return c.fn()
}

// Map derives a value by applying fn to a source.
func Map[A, B any](src Source[A], fn func(A) B) Computed[B] {
	return Computed[B]{fn: func() B { return fn(src.Value()) }}
}

// Zip derives a value from two sources.
func Zip[A, B, C any](a Source[A], b Source[B], fn func(A, B) C) Computed[C] {
	return Computed[C]{fn: func() C { return fn(a.Value(), b.Value()) }}
}

// And derives the logical AND of two boolean sources. Like the host
// language's &&, the second source is not read when the first is false.
func And(a, b Source[bool]) Computed[bool] {
	return Computed[bool]{fn: func() bool { return a.Value() && b.Value() }}
}

// Or derives the logical OR of two boolean sources.
func Or(a, b Source[bool]) Computed[bool] {
	return Computed[bool]{fn: func() bool { return a.Value() || b.Value() }}
}

// Not derives the negation of a boolean source.
func Not(a Source[bool]) Computed[bool] {
	return Computed[bool]{fn: func() bool { return !a.Value() }}
}

// Number constrains the numeric element types arithmetic combinators
// accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Add derives the sum of two numeric sources of the same type.
func Add[T Number](a, b Source[T]) Computed[T] {
	return Computed[T]{fn: func() T { return a.Value() + b.Value() }}
}

// Sub derives the difference of two numeric sources.
func Sub[T Number](a, b Source[T]) Computed[T] {
	return Computed[T]{fn: func() T { return a.Value() - b.Value() }}
}

// Mul derives the product of two numeric sources.
func Mul[T Number](a, b Source[T]) Computed[T] {
	return Computed[T]{fn: func() T { return a.Value() * b.Value() }}
}

// Concat derives the concatenation of two string sources.
func Concat(a, b Source[string]) Computed[string] {
	return Computed[string]{fn: func() string { return a.Value() + b.Value() }}
}

// Eq derives whether a source equals a constant.
func Eq[T comparable](src Source[T], v T) Computed[bool] {
	return Computed[bool]{fn: func() bool { return src.Value() == v }}
}

// Ne derives whether a source differs from a constant.
func Ne[T comparable](src Source[T], v T) Computed[bool] {
	return Computed[bool]{fn: func() bool { return src.Value() != v }}
}

// Lt derives whether a source is less than a constant.
func Lt[T cmp.Ordered](src Source[T], v T) Computed[bool] {
	return Computed[bool]{fn: func() bool { return src.Value() < v }}
}

// Le derives whether a source is at most a constant.
func Le[T cmp.Ordered](src Source[T], v T) Computed[bool] {
	return Computed[bool]{fn: func() bool { return src.Value() <= v }}
}

// Gt derives whether a source is greater than a constant.
func Gt[T cmp.Ordered](src Source[T], v T) Computed[bool] {
	return Computed[bool]{fn: func() bool { return src.Value() > v }}
}

// Ge derives whether a source is at least a constant.
func Ge[T cmp.Ordered](src Source[T], v T) Computed[bool] {
	return Computed[bool]{fn: func() bool { return src.Value() >= v }}
}

// Text derives the default textual rendering of any source. This is the
// explicit adapter for mixing non-string signals into string content.
func Text[T any](src Source[T]) Computed[string] {
	return Computed[string]{fn: func() string { return fmt.Sprint(src.Value()) }}
}

// Textf derives a formatted textual rendering of a source.
func Textf[T any](format string, src Source[T]) Computed[string] {
	return Computed[string]{fn: func() string { return fmt.Sprintf(format, src.Value()) }}
}
