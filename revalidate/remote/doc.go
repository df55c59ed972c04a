// Package remote invalidates cache tags over HTTP.
//
// Client is a revalidate.Invalidator that POSTs each tag to a webhook;
// NewHandler is the matching server side, which forwards requests to any
// local Invalidator. Together they let a process that cannot invalidate
// its cache directly ask one that can.
//
// Wire format, both directions:
//
//	POST /revalidate  {"tag": "users:list", "profile": "max"}
//	POST /update      {"tag": "users:list"}
//	GET  /healthz
//
// Requests carry "Authorization: Bearer <token>" when a token is set, and
// an X-Request-ID header. The handler checks the token with an
// auth.Verifier, either a shared secret or a signed JWT.
package remote
