package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError reports a provider whose credentials or settings are
// missing or unusable. The chain skips such a provider without a network call.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: configuration invalide: %s", e.Provider, e.Reason)
}

// TransportError wraps failures talking to a backend: network errors,
// timeouts, non-2xx answers and empty completions.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimited reports whether the backend refused the call because of a quota.
func (e *TransportError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// ParseError reports a model reply without a usable structured block.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("réponse du modèle invalide: %s: %v", e.Reason, e.Err)
	}
	return "réponse du modèle invalide: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// AttemptError records why one provider of the chain failed.
type AttemptError struct {
	Provider string
	Err      error
}

func (e *AttemptError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *AttemptError) Unwrap() error { return e.Err }

// AllProvidersFailedError is returned by the chain once every provider failed.
// Its message embeds the last failure.
type AllProvidersFailedError struct {
	Attempts []*AttemptError
	Last     error
}

func (e *AllProvidersFailedError) Error() string {
	last := "aucun provider configuré"
	if e.Last != nil {
		last = e.Last.Error()
	}
	return fmt.Sprintf("Tous les providers LLM ont échoué. Dernier message : %s. Vérifiez vos clés API dans le fichier .env", last)
}

func (e *AllProvidersFailedError) Unwrap() error { return e.Last }

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
