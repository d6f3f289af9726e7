// Package accent classifies the regional accent of English speech.
package accent
