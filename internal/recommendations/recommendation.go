// Package recommendations asks a text model for a treatment recommendation
// for a classified leaf and validates the structured reply.
package recommendations

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/verdant/pkg/formatting"
)

// Severity rates how urgently a diagnosed condition needs treatment.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityNone     Severity = "None"
)

var severities = []Severity{SeverityCritical, SeverityMedium, SeverityLow, SeverityNone}

// Severities returns the valid severities, most urgent first.
func Severities() []Severity {
	return slices.Clone(severities)
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return slices.Contains(severities, s)
}

// Summary is the classification handed to the text model.
type Summary struct {
	UserID     *string `json:"user_id"`
	CropName   string  `json:"crop_name"`
	Confidence string  `json:"confidence"`
	Diagnosis  string  `json:"diagnosis"`
}

// Recommendation is the validated reply of the text model.
type Recommendation struct {
	Severity      Severity `json:"severity"`
	TreatmentPlan string   `json:"treatment_plan"`
	KeySymptoms   []string `json:"key_symptoms"`
}

type reply struct {
	Severity      *string   `json:"severity"`
	TreatmentPlan *string   `json:"treatment_plan"`
	KeySymptoms   *[]string `json:"key_symptoms"`
}

// Decode parses a model reply, bare or inside a markdown code fence, and
// requires every field. key_symptoms must be present but may be empty.
func Decode(text string) (*Recommendation, error) {
	r, err := formatting.Parse[reply](text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	switch {
	case r.Severity == nil:
		return nil, fmt.Errorf("%w: missing severity", ErrInvalidResponse)
	case r.TreatmentPlan == nil:
		return nil, fmt.Errorf("%w: missing treatment_plan", ErrInvalidResponse)
	case r.KeySymptoms == nil:
		return nil, fmt.Errorf("%w: missing key_symptoms", ErrInvalidResponse)
	}

	severity := Severity(strings.TrimSpace(*r.Severity))
	if !severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidResponse, formatting.Truncate(*r.Severity, 32))
	}

	plan := strings.TrimSpace(*r.TreatmentPlan)
	if plan == "" {
		return nil, fmt.Errorf("%w: empty treatment_plan", ErrInvalidResponse)
	}

	symptoms := make([]string, 0, len(*r.KeySymptoms))
	for _, s := range *r.KeySymptoms {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, s)
		}
	}

	return &Recommendation{
		Severity:      severity,
		TreatmentPlan: plan,
		KeySymptoms:   symptoms,
	}, nil
}
