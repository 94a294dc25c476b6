// Package analysis defines the structured response contract for the
// code-analysis task: the report shape the model must return, strict parsing
// of the model's free-text output, and defaulting rules for optional fields.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Defaults injected by Normalize when the model omits an optional field.
const (
	DefaultQualityScore         = 0
	DefaultMaintainabilityIndex = 50
	DefaultReadabilityScore     = 75
	DefaultTargetComplexity     = "O(n) - see complexity table"
)

// requiredKeys are the top-level keys a model response must carry to be
// accepted. A response missing any of them is schema-invalid and the
// orchestrator advances to the next candidate. The scored fields
// (quality_score, maintainability_index, readability_score) are deliberately
// not required: Normalize injects their defaults when a model omits them.
var requiredKeys = []string{
	"detected_language",
	"integrity_check",
	"plagiarism_check",
	"error_table",
	"final_code",
	"code_explanation",
	"complexity",
}

// ErrorEntry is one detected error tied to a source line.
type ErrorEntry struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ExplanationEntry explains one line of the corrected code.
type ExplanationEntry struct {
	Line        int    `json:"line"`
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// ComplexityBounds holds best/average/worst bounds plus a prose description.
type ComplexityBounds struct {
	Best    string `json:"best"`
	Average string `json:"average"`
	Worst   string `json:"worst"`
	Desc    string `json:"desc"`
}

// Complexity carries time and space complexity estimates.
type Complexity struct {
	Time  ComplexityBounds `json:"time"`
	Space ComplexityBounds `json:"space"`
}

// Report is the full analysis record. After Normalize it always carries the
// complete field set regardless of what the upstream model omitted.
type Report struct {
	DetectedLanguage     string             `json:"detected_language"`
	QualityScore         int                `json:"quality_score"`
	MaintainabilityIndex int                `json:"maintainability_index"`
	ReadabilityScore     int                `json:"readability_score"`
	IntegrityCheck       string             `json:"integrity_check"`
	PlagiarismCheck      string             `json:"plagiarism_check"`
	ErrorTable           []ErrorEntry       `json:"error_table"`
	FinalCode            string             `json:"final_code"`
	TargetComplexity     string             `json:"target_complexity"`
	CodeExplanation      []ExplanationEntry `json:"code_explanation"`
	Complexity           Complexity         `json:"complexity"`
}

// SchemaError reports a response that parsed as JSON but violated the
// structural contract. The orchestrator treats it like any other failure.
type SchemaError struct {
	Missing []string
	Detail  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("response missing required keys: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("response violates analysis schema: %s", e.Detail)
}

// Parse strips any surrounding code fences from the model output, decodes it
// as JSON, validates the required key set, and applies default values for the
// optional fields. Any failure is returned as an error; the caller decides
// whether to try another model.
func Parse(raw string) (*Report, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, &SchemaError{Detail: "empty response"}
	}

	// Decode into a key map first so absent optional fields can be
	// distinguished from explicit zero values.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &keys); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := keys[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	var report Report
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return nil, &SchemaError{Detail: err.Error()}
	}

	report.normalize(keys)
	return &report, nil
}

// normalize fills in defaults for the optional fields the model omitted, so
// downstream consumers always see the full field set.
func (r *Report) normalize(keys map[string]json.RawMessage) {
	if _, ok := keys["quality_score"]; !ok {
		r.QualityScore = DefaultQualityScore
	}
	if _, ok := keys["maintainability_index"]; !ok {
		r.MaintainabilityIndex = DefaultMaintainabilityIndex
	}
	if _, ok := keys["readability_score"]; !ok {
		r.ReadabilityScore = DefaultReadabilityScore
	}
	if _, ok := keys["target_complexity"]; !ok || r.TargetComplexity == "" {
		r.TargetComplexity = DefaultTargetComplexity
	}
}

// StripFences removes a surrounding markdown code fence (``` or ```json) from
// model output. Content without fences is returned trimmed and unchanged.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop a language tag such as "json" on the opening fence.
	if idx := strings.Index(s, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine != "" && !strings.HasPrefix(firstLine, "{") && !strings.HasPrefix(firstLine, "[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
