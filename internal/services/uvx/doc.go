// Package uvx runs embedded Python model scripts through `uvx`.
//
// Each script is materialized in the work directory and executed as
// `uvx --quiet --with <pkg>... python <script> <args>`. The command receives
// the model cache environment, an optional Hugging Face token, and the torch
// compatibility flag; the process environment is never modified. Scripts
// print a single JSON object on stdout, or {"error": "..."} on stderr.
package uvx
