// Package observe provides the logging, metrics and tracing primitives used by
// the cache classifier, the revalidation dispatcher and the HTTP client.
//
// It is a pure instrumentation library: the core packages hand it structured
// data (a status, a confidence, indicator strings) and never format for a
// terminal. Exporter setup lives in the exporters subpackage.
package observe
