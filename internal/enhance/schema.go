package enhance

import (
	"encoding/json"
	"fmt"
	"strings"

	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/engine"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaName = "personalized_program"
	schemaURL  = "mem://enhance/personalized_program.json"

	maxSummaryLen = 600
	maxNoteLen    = 400
	maxTipLen     = 300
)

// responseSchema is sent to the model and enforced locally. It follows the
// structured-output rules: closed objects, every property required.
func responseSchema() map[string]any {
	exercise := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"templateId", "durationSec", "tip"},
		"properties": map[string]any{
			"templateId":  map[string]any{"type": "string", "minLength": 1},
			"durationSec": map[string]any{"type": "integer", "minimum": 1},
			"tip":         map[string]any{"type": "string", "maxLength": maxTipLen},
		},
	}
	day := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"dayNumber", "note", "exercises"},
		"properties": map[string]any{
			"dayNumber": map[string]any{"type": "integer", "minimum": 1, "maximum": domain.DaysPerProgram},
			"note":      map[string]any{"type": "string", "maxLength": maxNoteLen},
			"exercises": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": engine.MaxExercisesPerDay,
				"items":    exercise,
			},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"summary", "days"},
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "maxLength": maxSummaryLen},
			"days": map[string]any{
				"type":     "array",
				"minItems": domain.DaysPerProgram,
				"maxItems": domain.DaysPerProgram,
				"items":    day,
			},
		},
	}
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal response schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("add response schema: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	return compiled, nil
}
