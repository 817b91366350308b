package ai

import (
	_ "embed"
	"strings"

	"github.com/spigell/matchcv/internal/utils"
)

//go:embed prompt.md
var systemPrompt string

// SystemPrompt returns the instruction describing the adaptation record field by field.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// BuildUserPrompt joins the offer and the résumé, each cut to budget runes.
func BuildUserPrompt(candidateText, offerText string, budget int) string {
	if budget > 0 {
		offerText = utils.Head(offerText, budget)
		candidateText = utils.Head(candidateText, budget)
	}

	var b strings.Builder
	b.WriteString("[OFFRE D'EMPLOI]\n")
	b.WriteString(offerText)
	b.WriteString("\n\n[CV ACTUEL]\n")
	b.WriteString(candidateText)
	return b.String()
}
