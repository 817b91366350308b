package ai

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Provider is one text-generation backend.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f ProviderFunc) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

const (
	// HostedInputBudget is the per-text rune budget for hosted backends.
	HostedInputBudget = 3000
	// LocalInputBudget is the per-text rune budget for the self-hosted backend.
	LocalInputBudget = 2000
)

// Spec describes one entry of the provider chain.
type Spec struct {
	// Name is the display name, also used as the provenance tag of results.
	Name        string
	Model       string
	Provider    Provider
	Credentials []Credential
	// InputBudget caps the offer and the résumé independently, in runes.
	InputBudget int
	// Timeout bounds one call. Zero leaves the backend's own timeout in charge.
	Timeout time.Duration

	Disabled       bool
	DisabledReason string
}

func (s *Spec) budget() int {
	if s.InputBudget > 0 {
		return s.InputBudget
	}
	return HostedInputBudget
}

// Disable removes the spec from the chain while keeping it visible in Describe.
func (s *Spec) Disable(reason string) {
	s.Disabled = true
	s.DisabledReason = strings.TrimSpace(reason)
}

// DisableByName disables every spec with the provided display name.
func DisableByName(specs []*Spec, name, reason string) {
	for _, spec := range specs {
		if spec != nil && spec.Name == name {
			spec.Disable(reason)
		}
	}
}

// Status is the configuration state of one provider, computed without any network call.
type Status struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Enabled    bool   `json:"enabled"`
	Configured bool   `json:"configured"`
	Reason     string `json:"reason,omitempty"`
}

// Describe returns status entries for the provided specs in chain order.
func Describe(specs []*Spec) []Status {
	statuses := make([]Status, 0, len(specs))
	for _, spec := range specs {
		if spec == nil {
			continue
		}

		status := Status{Name: spec.Name, Model: spec.Model, Enabled: !spec.Disabled}
		if spec.Disabled {
			status.Reason = spec.DisabledReason
			if status.Reason == "" {
				status.Reason = "disabled"
			}
			statuses = append(statuses, status)
			continue
		}

		var cfgErr *ConfigurationError
		if err := validateCredentials(spec.Name, spec.Credentials); errors.As(err, &cfgErr) {
			status.Reason = cfgErr.Reason
		} else {
			status.Configured = true
		}
		statuses = append(statuses, status)
	}
	return statuses
}
