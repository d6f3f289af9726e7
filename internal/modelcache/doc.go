// Package modelcache owns the on-disk cache of pretrained model weights.
//
// A Cache is created once per process from configuration and handed to every
// classifier that loads weights. It supplies the per-command environment that
// points Hugging Face, transformers, and torch at the cache directory, guards
// first-time population of each model with a file lock so concurrent processes
// do not race the same download, and records populated models in a small
// SQLite registry used by the `cache` CLI commands.
package modelcache
