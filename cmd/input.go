package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/matchcv/internal/document"
)

// inputFlags registers the résumé and offer flags shared by score and adapt.
func inputFlags(cmd *cobra.Command) {
	cmd.Flags().String("cv", "", "résumé file (.pdf or plain text)")
	cmd.Flags().String("cv-text", "", "résumé text")
	cmd.Flags().String("offer", "", "job offer file (.pdf or plain text)")
	cmd.Flags().String("offer-text", "", "job offer text")
}

// readInputs returns the résumé and offer texts. A file flag wins over the
// matching text flag.
func readInputs(cmd *cobra.Command) (string, string, error) {
	cv, err := readInput(cmd, "cv")
	if err != nil {
		return "", "", err
	}
	offer, err := readInput(cmd, "offer")
	if err != nil {
		return "", "", err
	}
	return cv, offer, nil
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	path, _ := cmd.Flags().GetString(name)
	inline, _ := cmd.Flags().GetString(name + "-text")

	if path = strings.TrimSpace(path); path != "" {
		text, err := document.ExtractFile(path)
		if err != nil {
			return "", fmt.Errorf("reading --%s %s: %w", name, path, err)
		}
		return text.Text, nil
	}

	if strings.TrimSpace(inline) == "" {
		return "", errors.New("--" + name + " or --" + name + "-text is required")
	}
	return inline, nil
}
