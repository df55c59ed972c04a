// Package auth assembles and checks the credentials that travel with
// cachesignal requests.
//
// On the calling side a TokenSource finds a session token (usually in a
// cookie jar) and a HeaderBuilder turns it into an Authorization header,
// refusing JWTs that are already past their exp claim. On the serving side
// a Verifier checks bearer tokens presented to the revalidation webhook.
package auth
