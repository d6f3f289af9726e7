// Package whisper produces short transcripts used as language evidence.
//
// Two backends satisfy the same Transcriber interface: Local runs a Hugging
// Face Whisper checkpoint through uvx, and API calls the OpenAI
// transcription endpoint via go-openai. Only the opening seconds of audio are
// transcribed; the transcript is a signal, not a deliverable.
package whisper
