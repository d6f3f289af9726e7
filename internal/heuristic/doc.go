// Package heuristic guesses language and accent from the URL alone.
//
// It stands in for the model stack on hosts where uvx, Python, or the model
// weights are unavailable. Results are hints plus random sampling and carry
// no acoustic evidence.
package heuristic
