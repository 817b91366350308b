package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Credential is a secret a provider needs before it may be called.
type Credential struct {
	Name         string
	Value        string
	MinLength    int
	Placeholders []string
}

// Validate checks that the credential is set, long enough and not one of the
// placeholder values shipped in example env files.
func (c Credential) Validate() error {
	value := strings.TrimSpace(c.Value)
	if value == "" {
		return fmt.Errorf("%s absente", c.Name)
	}

	if c.MinLength > 0 && utf8.RuneCountInString(value) < c.MinLength {
		return fmt.Errorf("%s trop courte (%d caractères minimum)", c.Name, c.MinLength)
	}

	for _, placeholder := range c.Placeholders {
		if placeholder != "" && strings.HasPrefix(value, placeholder) {
			return fmt.Errorf("%s contient une valeur d'exemple", c.Name)
		}
	}

	return nil
}

func validateCredentials(provider string, credentials []Credential) error {
	for _, cred := range credentials {
		if err := cred.Validate(); err != nil {
			return &ConfigurationError{Provider: provider, Reason: err.Error()}
		}
	}
	return nil
}
