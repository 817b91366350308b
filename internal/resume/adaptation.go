package resume

import (
	"strings"
)

// Adaptation is a résumé rewritten for one job offer together with its cover letter.
// The json keys are consumed by the web front end and must not change.
type Adaptation struct {
	Name          string       `json:"nom"`
	Title         string       `json:"titre"`
	Summary       string       `json:"resume"`
	Experiences   []Experience `json:"experiences"`
	Skills        Skills       `json:"competences"`
	Education     []Education  `json:"formation"`
	CoverLetter   string       `json:"lettre_motivation"`
	AddedKeywords []string     `json:"mots_cles_ajoutes"`
	Improvement   int          `json:"score_amelioration"`
	Provider      string       `json:"_provider"`
}

type Experience struct {
	Role        string `json:"poste"`
	Company     string `json:"entreprise"`
	Period      string `json:"periode"`
	Description string `json:"description"`
}

type Skills struct {
	Technical []string `json:"techniques"`
	Soft      []string `json:"soft_skills"`
}

type Education struct {
	Degree string `json:"diplome"`
	School string `json:"etablissement"`
	Year   string `json:"annee"`
}

// Normalize replaces nil collections with empty ones so that every key is
// encoded, and drops blank list entries left by the model.
func (a *Adaptation) Normalize() {
	if a == nil {
		return
	}

	if a.Experiences == nil {
		a.Experiences = []Experience{}
	}
	if a.Education == nil {
		a.Education = []Education{}
	}

	a.Skills.Technical = compact(a.Skills.Technical)
	a.Skills.Soft = compact(a.Skills.Soft)
	a.AddedKeywords = compact(a.AddedKeywords)
}

// Text renders the adaptation as plain text, the way the CLI prints it.
func (a *Adaptation) Text() string {
	if a == nil {
		return ""
	}

	var b strings.Builder
	line := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	line(a.Name)
	line(a.Title)
	if a.Summary != "" {
		b.WriteString("\n")
		line(a.Summary)
	}

	if len(a.Experiences) > 0 {
		b.WriteString("\nExpériences\n")
		for _, exp := range a.Experiences {
			header := joinNonEmpty(" | ", exp.Role, exp.Company, exp.Period)
			line("- " + header)
			line("  " + exp.Description)
		}
	}

	if len(a.Skills.Technical) > 0 || len(a.Skills.Soft) > 0 {
		b.WriteString("\nCompétences\n")
		if len(a.Skills.Technical) > 0 {
			line("Techniques: " + strings.Join(a.Skills.Technical, ", "))
		}
		if len(a.Skills.Soft) > 0 {
			line("Soft skills: " + strings.Join(a.Skills.Soft, ", "))
		}
	}

	if len(a.Education) > 0 {
		b.WriteString("\nFormation\n")
		for _, edu := range a.Education {
			line("- " + joinNonEmpty(" | ", edu.Degree, edu.School, edu.Year))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
