// Package langid identifies the spoken language of a WAV file.
//
// A Chain runs fallible strategies in order and returns the first success.
// When every fallible strategy fails, the chain's final strategy answers; it
// has no error return, so Chain.Detect always produces a Result.
package langid
