// Package speechbrain runs pretrained SpeechBrain ECAPA classifiers (spoken
// language and English accent identification) through uvx and returns the
// top prediction with its probability.
package speechbrain
