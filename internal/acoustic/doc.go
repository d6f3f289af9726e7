// Package acoustic computes coarse speech features from a waveform: tempo,
// mean spectral centroid, and MFCC variance.
//
// Framing follows the common librosa defaults (2048-point FFT, hop 512,
// centered frames, Hann window, 128 Slaney mel bands, 13 coefficients) so the
// scoring ranges used by the language fallback stay meaningful.
package acoustic
