package revalidate

import "context"

// Invalidator is the host-supplied invalidation primitive.
//
// Contract:
// - Concurrency: must be safe for concurrent use; one Dispatcher call
//   invokes it sequentially, but separate calls may overlap.
// - Errors: a returned error fails only that tag.
type Invalidator interface {
	// RevalidateTag invalidates tag under the given cache-life profile.
	RevalidateTag(ctx context.Context, tag, profile string) error

	// UpdateTag invalidates tag immediately.
	UpdateTag(ctx context.Context, tag string) error
}

// Prober is implemented by Invalidators whose usability is only known at
// run time. Invalidators without it are assumed usable.
type Prober interface {
	Available(ctx context.Context) bool
}

// Noop returns an Invalidator that is never available.
func Noop() Invalidator { return noop{} }

type noop struct{}

func (noop) RevalidateTag(context.Context, string, string) error { return ErrUnavailable }
func (noop) UpdateTag(context.Context, string) error             { return ErrUnavailable }
func (noop) Available(context.Context) bool                      { return false }

// Funcs adapts two functions to Invalidator. It is available only when
// both are set.
type Funcs struct {
	Revalidate func(ctx context.Context, tag, profile string) error
	Update     func(ctx context.Context, tag string) error
}

// RevalidateTag implements Invalidator.
func (f Funcs) RevalidateTag(ctx context.Context, tag, profile string) error {
	if f.Revalidate == nil {
		return ErrUnavailable
	}
	return f.Revalidate(ctx, tag, profile)
}

// UpdateTag implements Invalidator.
func (f Funcs) UpdateTag(ctx context.Context, tag string) error {
	if f.Update == nil {
		return ErrUnavailable
	}
	return f.Update(ctx, tag)
}

// Available implements Prober.
func (f Funcs) Available(context.Context) bool {
	return f.Revalidate != nil && f.Update != nil
}

var (
	_ Invalidator = noop{}
	_ Prober      = noop{}
	_ Invalidator = Funcs{}
	_ Prober      = Funcs{}
)
