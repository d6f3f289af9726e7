// Package fetch downloads the remote video behind a user-supplied URL into a
// request-scoped temporary file.
//
// Download problems (bad URL, transport error, non-2xx status, empty body) are
// reported as "no result" rather than errors; callers translate that into a
// user-facing message. Only local environment faults, such as an unwritable
// work directory, surface as errors.
package fetch
