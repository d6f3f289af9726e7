package ffprobe

import "testing"

const speechWAVJSON = `{
  "streams": [{"index": 0, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "16000", "channels": 1}],
  "format": {"filename": "audio.wav", "nb_streams": 1, "format_name": "wav", "duration": "12.5", "size": "400044"}
}`

const videoJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "44100", "channels": 2}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 2, "format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "n/a"}
}`

func TestParseSpeechWAV(t *testing.T) {
	result, err := Parse([]byte(speechWAVJSON))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !result.IsSpeechWAV() {
		t.Fatal("expected mono 16 kHz wav to be recognised")
	}
	if result.AudioStreamCount() != 1 || result.VideoStreamCount() != 0 {
		t.Fatalf("unexpected stream counts: %+v", result.Streams)
	}
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestParseVideo(t *testing.T) {
	result, err := Parse([]byte(videoJSON))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.IsSpeechWAV() {
		t.Fatal("video container must not be treated as speech wav")
	}
	if result.AudioStreamCount() != 1 || result.VideoStreamCount() != 1 {
		t.Fatalf("unexpected stream counts: %+v", result.Streams)
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected invalid duration to map to 0, got %v", result.DurationSeconds())
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
