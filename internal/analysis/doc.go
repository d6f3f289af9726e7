// Package analysis wires fetching, extraction, language identification, and
// accent classification into a single request.
//
// Analyzer works on a WAV already on disk. Pipeline owns a full request: it
// assigns a request ID, downloads the video, extracts the audio, analyzes
// it, and removes both temp files before returning.
package analysis
