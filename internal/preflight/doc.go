// Package preflight provides readiness checks for the binaries, directories,
// and remote services accentscope depends on.
//
// The CLI "accentscope status" command and the server's /api/status endpoint
// both render these results. Checks are gated by config: the OpenAI check
// runs only when the API transcriber is selected, and uvx is optional in
// heuristic mode.
package preflight
