// Package answer parses and structurally validates the JSON contract
// returned by the tutor boundary. The policy is reject, not coerce: a
// partially-filled answer would mislead a student, so any missing or
// wrong-typed required field fails the whole payload.
package answer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// SchemaError reports the first field that failed structural validation.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch at %q: %s", e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return domain.ErrSchemaMismatch }

func schemaErr(field, reason string) error {
	return &SchemaError{Field: field, Reason: reason}
}

// Parse decodes raw into a StructuredAnswer, enforcing presence and primitive
// kind for every required field. An empty solutionSteps sequence is valid;
// the refusal contract for out-of-scope queries produces exactly that.
func Parse(raw string) (*domain.StructuredAnswer, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, schemaErr("", "payload is not a JSON object")
	}

	out := &domain.StructuredAnswer{}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"subject", &out.Subject},
		{"topic", &out.Topic},
		{"difficulty", &out.Difficulty},
		{"languageUsed", &out.LanguageUsed},
		{"simpleExplanation", &out.SimpleExplanation},
		{"summary", &out.Summary},
	} {
		s, err := requiredString(fields, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = s
	}

	steps, err := requiredSteps(fields)
	if err != nil {
		return nil, err
	}
	out.SolutionSteps = steps

	out.ImportantFormulas, err = requiredStrings(fields, "importantFormulas")
	if err != nil {
		return nil, err
	}
	out.CommonMistakes, err = requiredStrings(fields, "commonMistakes")
	if err != nil {
		return nil, err
	}

	return out, nil
}

func requiredString(fields map[string]json.RawMessage, name string) (string, error) {
	rawField, ok := fields[name]
	if !ok || isNull(rawField) {
		return "", schemaErr(name, "required field missing")
	}
	var s string
	if err := json.Unmarshal(rawField, &s); err != nil {
		return "", schemaErr(name, "expected string")
	}
	return s, nil
}

func requiredStrings(fields map[string]json.RawMessage, name string) ([]string, error) {
	rawField, ok := fields[name]
	if !ok || isNull(rawField) {
		return nil, schemaErr(name, "required field missing")
	}
	var items []string
	if err := json.Unmarshal(rawField, &items); err != nil {
		return nil, schemaErr(name, "expected array of strings")
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func requiredSteps(fields map[string]json.RawMessage) ([]domain.SolutionStep, error) {
	rawField, ok := fields["solutionSteps"]
	if !ok || isNull(rawField) {
		return nil, schemaErr("solutionSteps", "required field missing")
	}
	var rawSteps []map[string]json.RawMessage
	if err := json.Unmarshal(rawField, &rawSteps); err != nil {
		return nil, schemaErr("solutionSteps", "expected array of objects")
	}

	steps := make([]domain.SolutionStep, 0, len(rawSteps))
	for i, rawStep := range rawSteps {
		field := fmt.Sprintf("solutionSteps[%d]", i)

		n, err := requiredInt(rawStep, "stepNumber", field)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, schemaErr(field+".stepNumber", "expected positive integer")
		}
		title, err := requiredString(rawStep, "title")
		if err != nil {
			return nil, schemaErr(field+".title", err.(*SchemaError).Reason)
		}
		desc, err := requiredString(rawStep, "description")
		if err != nil {
			return nil, schemaErr(field+".description", err.(*SchemaError).Reason)
		}
		steps = append(steps, domain.SolutionStep{StepNumber: n, Title: title, Description: desc})
	}
	return steps, nil
}

func requiredInt(fields map[string]json.RawMessage, name, parent string) (int, error) {
	path := parent + "." + name
	rawField, ok := fields[name]
	if !ok || isNull(rawField) {
		return 0, schemaErr(path, "required field missing")
	}
	var num json.Number
	if err := json.Unmarshal(rawField, &num); err != nil {
		return 0, schemaErr(path, "expected integer")
	}
	n, err := num.Int64()
	if err != nil {
		return 0, schemaErr(path, "expected integer")
	}
	return int(n), nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
