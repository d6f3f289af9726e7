// Command accentscope detects whether the speaker in a video is speaking
// English and, if so, classifies their accent.
//
// Typical use:
//
//	accentscope analyze https://example.com/interview.mp4
//	accentscope analyze-file ./clip.wav --json
//	accentscope serve --bind 127.0.0.1:8501
//
// Configuration lives in ~/.config/accentscope/config.toml (see
// "accentscope config init"). A .env file in the working directory is
// loaded first so OPENAI_API_KEY and HF_TOKEN can be kept out of the config.
package main
