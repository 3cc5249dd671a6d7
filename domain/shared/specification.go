package shared

import (
	"context"
)

// Specification is a named, reusable predicate over T. Specifications are
// stateless and re-evaluated on every call, so package level instances are
// safe to share.
type Specification[T any] interface {
	// IsSatisfiedBy is used for in-memory filtering (mock repositories,
	// guards inside services). SQL adapters translate the concrete type instead.
	IsSatisfiedBy(ctx context.Context, candidate T) bool
}

// ============================================================================
// Composite Specifications
// ============================================================================

// AndSpecification is satisfied when both sides are.
type AndSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec AndSpecification[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	return spec.Left.IsSatisfiedBy(ctx, candidate) && spec.Right.IsSatisfiedBy(ctx, candidate)
}

func And[T any](left, right Specification[T]) Specification[T] {
	return AndSpecification[T]{Left: left, Right: right}
}

// OrSpecification is satisfied when either side is.
type OrSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec OrSpecification[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	return spec.Left.IsSatisfiedBy(ctx, candidate) || spec.Right.IsSatisfiedBy(ctx, candidate)
}

func Or[T any](left, right Specification[T]) Specification[T] {
	return OrSpecification[T]{Left: left, Right: right}
}

// NotSpecification negates Spec.
type NotSpecification[T any] struct {
	Spec Specification[T]
}

func (spec NotSpecification[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	return !spec.Spec.IsSatisfiedBy(ctx, candidate)
}

func Not[T any](inner Specification[T]) Specification[T] {
	return NotSpecification[T]{Spec: inner}
}

// PredicateSpecification wraps an ad-hoc function. It has no SQL translation.
type PredicateSpecification[T any] func(ctx context.Context, candidate T) bool

func (f PredicateSpecification[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	return f(ctx, candidate)
}

// ============================================================================
// Fluent composition
// ============================================================================

// Composable chains composition: Spec(a).And(b).Or(c).Not().
type Composable[T any] struct {
	Specification[T]
}

// Spec starts a fluent chain.
func Spec[T any](s Specification[T]) Composable[T] {
	if c, ok := s.(Composable[T]); ok {
		return c
	}
	return Composable[T]{Specification: s}
}

func (c Composable[T]) And(other Specification[T]) Composable[T] {
	return Composable[T]{Specification: And(c.Unwrap(), unwrap(other))}
}

func (c Composable[T]) Or(other Specification[T]) Composable[T] {
	return Composable[T]{Specification: Or(c.Unwrap(), unwrap(other))}
}

func (c Composable[T]) Not() Composable[T] {
	return Composable[T]{Specification: Not(c.Unwrap())}
}

// Unwrap returns the underlying specification so translators see the
// concrete And/Or/Not types.
func (c Composable[T]) Unwrap() Specification[T] {
	return unwrap(c.Specification)
}

func unwrap[T any](s Specification[T]) Specification[T] {
	for {
		c, ok := s.(Composable[T])
		if !ok {
			return s
		}
		s = c.Specification
	}
}

// Filter returns the candidates that satisfy spec, preserving order.
func Filter[T any](ctx context.Context, spec Specification[T], candidates []T) []T {
	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if spec == nil || spec.IsSatisfiedBy(ctx, c) {
			out = append(out, c)
		}
	}
	return out
}
