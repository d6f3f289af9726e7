// Package services defines shared utilities consumed by the analysis pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that let presentation
//     layers translate failures into user-facing messages and HTTP statuses.
//
// Subpackages wrap the out-of-process model runtimes (SpeechBrain through
// uvx, Whisper locally or through the OpenAI API).
package services
