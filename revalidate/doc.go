// Package revalidate invalidates cache tags after mutating requests.
//
// A Dispatcher holds an injected Invalidator. The first call to Invalidate
// probes, exactly once per Dispatcher, whether that Invalidator is usable;
// concurrent first callers share the probe. When it is not usable every
// call is a silent no-op, which is the expected outcome outside a runtime
// that supports on-demand invalidation.
//
// Two strategies exist. The primary strategy calls RevalidateTag with a
// cache-life profile; the secondary strategy calls UpdateTag. Tags are
// invalidated one at a time in selector order. A failing tag is logged and
// counted, and the remaining tags still run. Invalidate never returns an
// error to the request path.
package revalidate
