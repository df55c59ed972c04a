// Package classify infers whether an HTTP response was served from a cache
// the caller does not control.
//
// Classify is a pure function over response headers, the request's cache
// options and its timing window. It runs an ordered chain of rules; each
// rule may set the status and raise the confidence. The status comes from
// the last rule that set it and the confidence is the running maximum,
// except that a no-store request always ends as MISS with 0.95.
//
// The result is a diagnostic signal, not a guarantee.
package classify
