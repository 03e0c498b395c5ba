// Package narrative asks an OpenAI-compatible model for sales recommendations
// and splits the reply into individual actions.
package narrative
