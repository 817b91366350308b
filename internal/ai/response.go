package ai

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/spigell/matchcv/internal/resume"
)

const adaptationSchemaURL = "matchcv://adaptation.schema.json"

// Optional keys may be omitted or null. Dates are sometimes produced as
// numbers. The improvement score is sanitized before validation.
const adaptationSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "$defs": {
    "text": {"type": ["string", "null"]},
    "textOrNumber": {"type": ["string", "number", "null"]},
    "texts": {"type": ["array", "null"], "items": {"type": "string"}}
  },
  "properties": {
    "nom": {"$ref": "#/$defs/text"},
    "titre": {"$ref": "#/$defs/text"},
    "resume": {"$ref": "#/$defs/text"},
    "experiences": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "poste": {"$ref": "#/$defs/text"},
          "entreprise": {"$ref": "#/$defs/text"},
          "periode": {"$ref": "#/$defs/textOrNumber"},
          "description": {"$ref": "#/$defs/text"}
        }
      }
    },
    "competences": {
      "type": ["object", "null"],
      "properties": {
        "techniques": {"$ref": "#/$defs/texts"},
        "soft_skills": {"$ref": "#/$defs/texts"}
      }
    },
    "formation": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "diplome": {"$ref": "#/$defs/text"},
          "etablissement": {"$ref": "#/$defs/text"},
          "annee": {"$ref": "#/$defs/textOrNumber"}
        }
      }
    },
    "lettre_motivation": {"$ref": "#/$defs/text"},
    "mots_cles_ajoutes": {"$ref": "#/$defs/texts"},
    "score_amelioration": {
      "type": ["number", "null"],
      "minimum": -100,
      "maximum": 100
    }
  }
}`

var adaptationValidator = jsonschema.MustCompileString(adaptationSchemaURL, adaptationSchema)

// ExtractJSON returns the span between the first '{' and the last '}' of raw.
// Prose or code fences around the block are ignored; braces inside the prose
// are not special-cased.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", &ParseError{Reason: "aucun bloc JSON trouvé dans la réponse"}
	}
	return raw[start : end+1], nil
}

// ParseRecord locates the structured block of raw and decodes it as an object.
func ParseRecord(raw string) (map[string]any, error) {
	block, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(block), &record); err != nil {
		return nil, &ParseError{Reason: "JSON mal formé", Err: err}
	}

	return record, nil
}

// ParseAdaptation turns a raw model reply into a complete adaptation record.
// Keys the model left out get their empty values.
func ParseAdaptation(raw string) (*resume.Adaptation, error) {
	record, err := ParseRecord(raw)
	if err != nil {
		return nil, err
	}

	sanitizeOptionalFields(record)

	if err := adaptationValidator.Validate(record); err != nil {
		return nil, &ParseError{Reason: "structure JSON inattendue", Err: err}
	}

	adaptation := &resume.Adaptation{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           adaptation,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, &ParseError{Reason: "décodeur indisponible", Err: err}
	}

	if err := decoder.Decode(record); err != nil {
		return nil, &ParseError{Reason: "décodage de l'adaptation", Err: err}
	}

	// The provenance tag is set by the chain, never by the model.
	adaptation.Provider = ""
	adaptation.Normalize()

	return adaptation, nil
}

const (
	improvementKey = "score_amelioration"
	maxImprovement = 100
)

// sanitizeOptionalFields normalizes optional values the model tends to get
// loosely right, so that one odd field does not discard the whole record.
// The improvement score accepts "15", "+15" and "15%", is rounded and
// clamped to [-100, 100], and is dropped when it is not a number at all.
func sanitizeOptionalFields(record map[string]any) {
	value, ok := record[improvementKey]
	if !ok {
		return
	}

	var score float64
	switch v := value.(type) {
	case nil:
		delete(record, improvementKey)
		return
	case float64:
		score = v
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			delete(record, improvementKey)
			return
		}
		score = parsed
	default:
		delete(record, improvementKey)
		return
	}

	if math.IsNaN(score) || math.IsInf(score, 0) {
		delete(record, improvementKey)
		return
	}
	record[improvementKey] = math.Max(-maxImprovement, math.Min(maxImprovement, math.Round(score)))
}
