package ai

import (
	"errors"
	"testing"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      float64
		wantParse bool
	}{
		{name: "prose around block", raw: `Here is the result: {"a":1} Thanks!`, want: 1},
		{name: "code fence", raw: "```json\n{\"a\": 2}\n```", want: 2},
		{name: "no braces", raw: "Sorry, I cannot help with that.", wantParse: true},
		{name: "invalid json", raw: "{invalid json}", wantParse: true},
		{name: "closing before opening", raw: "} nothing {", wantParse: true},
		{name: "greedy span joins two blocks", raw: `{"a":1} and {"b":2}`, wantParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseRecord(tt.raw)
			if tt.wantParse {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(record) != 1 || record["a"] != tt.want {
				t.Fatalf("unexpected record: %#v", record)
			}
		})
	}
}

func TestExtractJSONKeepsInnerBraces(t *testing.T) {
	got, err := ExtractJSON(`Voici : {"a": {"b": 1}} fin`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a": {"b": 1}}` {
		t.Fatalf("unexpected block: %q", got)
	}
}

func TestParseAdaptationFillsMissingFields(t *testing.T) {
	raw := "Bien sûr ! Voici le CV adapté :\n" + `{
  "nom": "Jeanne Martin",
  "titre": "Ingénieure Backend Go",
  "experiences": [{"poste": "Développeuse", "entreprise": "Acme", "periode": 2021}],
  "formation": [{"diplome": "Master", "annee": 2019}],
  "competences": {"techniques": ["Go"]},
  "score_amelioration": "18",
  "_provider": "injected"
}` + "\nBonne chance !"

	got, err := ParseAdaptation(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Name != "Jeanne Martin" || got.Title != "Ingénieure Backend Go" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.Improvement != 18 {
		t.Fatalf("expected improvement 18, got %d", got.Improvement)
	}
	if len(got.Experiences) != 1 || got.Experiences[0].Period != "2021" || got.Experiences[0].Description != "" {
		t.Fatalf("unexpected experiences: %+v", got.Experiences)
	}
	if len(got.Education) != 1 || got.Education[0].Year != "2019" {
		t.Fatalf("unexpected education: %+v", got.Education)
	}
	if got.Skills.Soft == nil || len(got.Skills.Soft) != 0 {
		t.Fatalf("expected empty soft skills, got %#v", got.Skills.Soft)
	}
	if got.AddedKeywords == nil {
		t.Fatalf("expected non-nil keywords")
	}
	if got.Provider != "" {
		t.Fatalf("provenance must not come from the model, got %q", got.Provider)
	}
}

func TestParseAdaptationAcceptsNulls(t *testing.T) {
	got, err := ParseAdaptation(`{"nom": null, "experiences": null, "competences": null, "score_amelioration": 12.0}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "" || len(got.Experiences) != 0 || got.Improvement != 12 {
		t.Fatalf("unexpected adaptation: %+v", got)
	}
}

func TestParseAdaptationSanitizesImprovement(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "percent suffix", raw: `{"lettre_motivation": "Madame, Monsieur", "score_amelioration": "15%"}`, want: 15},
		{name: "signed string", raw: `{"lettre_motivation": "Madame, Monsieur", "score_amelioration": " +22 "}`, want: 22},
		{name: "fraction rounded", raw: `{"lettre_motivation": "Madame, Monsieur", "score_amelioration": 17.6}`, want: 18},
		{name: "huge number clamped", raw: `{"lettre_motivation": "Madame, Monsieur", "score_amelioration": 1e30}`, want: 100},
		{name: "huge negative clamped", raw: `{"lettre_motivation": "Madame, Monsieur", "score_amelioration": "-1e30"}`, want: -100},
		{name: "not numeric dropped", raw: `{"lettre_motivation": "Madame, Monsieur", "score_amelioration": "beaucoup"}`, want: 0},
		{name: "wrong type dropped", raw: `{"lettre_motivation": "Madame, Monsieur", "score_amelioration": [15]}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdaptation(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Improvement != tt.want {
				t.Fatalf("expected improvement %d, got %d", tt.want, got.Improvement)
			}
			if got.CoverLetter != "Madame, Monsieur" {
				t.Fatalf("expected the cover letter to survive, got %q", got.CoverLetter)
			}
		})
	}
}

func TestParseAdaptationRejectsWrongShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "experiences not a list", raw: `{"experiences": "none"}`},
		{name: "keywords not strings", raw: `{"mots_cles_ajoutes": [1, 2]}`},
		{name: "skills as list", raw: `{"competences": ["Go"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAdaptation(tt.raw)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}
