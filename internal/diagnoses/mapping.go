package diagnoses

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/internal/recommendations"
	"github.com/JaimeStill/verdant/pkg/query"
	"github.com/JaimeStill/verdant/pkg/repository"
	"github.com/JaimeStill/verdant/pkg/storage"
)

const returning = `RETURNING id, user_id, crop_name, confidence, diagnosis, severity,
	treatment_plan, key_symptoms, image_key, model_name, created_at`

var projection = query.
	NewProjection("diagnoses", "d").
	Project("id", "id").
	Project("user_id", "user_id").
	Project("crop_name", "crop_name").
	Project("confidence", "confidence").
	Project("diagnosis", "diagnosis").
	Project("severity", "severity").
	Project("treatment_plan", "treatment_plan").
	Project("key_symptoms", "key_symptoms").
	Project("image_key", "image_key").
	Project("model_name", "model_name").
	Project("created_at", "created_at")

var defaultSort = query.SortField{Field: "created_at", Descending: true}

var repoErrors = repository.Errors{NotFound: ErrNotFound, Duplicate: ErrDuplicate, Invalid: ErrInvalid}

// Filters narrows diagnosis listings. Nil fields are ignored. CropName
// matches case-insensitively; Diagnosis matches by substring. CreatedAfter
// is inclusive and CreatedBefore exclusive.
type Filters struct {
	Severity      *recommendations.Severity `json:"severity,omitempty"`
	CropName      *string                   `json:"crop_name,omitempty"`
	Diagnosis     *string                   `json:"diagnosis,omitempty"`
	UserID        *string                   `json:"user_id,omitempty"`
	CreatedAfter  *time.Time                `json:"created_after,omitempty"`
	CreatedBefore *time.Time                `json:"created_before,omitempty"`
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("severity", f.Severity).
		WhereFold("crop_name", f.CropName).
		WhereSearch(f.Diagnosis, "diagnosis").
		WhereEquals("user_id", f.UserID).
		WhereRange("created_at", f.CreatedAfter, f.CreatedBefore)
}

// FiltersFromQuery reads the filter fields from URL query values. Dates
// accept RFC 3339 or YYYY-MM-DD; unparseable dates are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("severity"); s != "" {
		sev := recommendations.Severity(s)
		f.Severity = &sev
	}
	if c := values.Get("crop_name"); c != "" {
		f.CropName = &c
	}
	if d := values.Get("diagnosis"); d != "" {
		f.Diagnosis = &d
	}
	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}
	f.CreatedAfter = parseDate(values.Get("created_after"))
	f.CreatedBefore = parseDate(values.Get("created_before"))

	return f
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func scanDiagnosis(s repository.Scanner) (Diagnosis, error) {
	var (
		d        Diagnosis
		symptoms []byte
	)
	err := s.Scan(
		&d.ID,
		&d.UserID,
		&d.CropName,
		&d.Confidence,
		&d.Diagnosis,
		&d.Severity,
		&d.TreatmentPlan,
		&symptoms,
		&d.ImageKey,
		&d.ModelName,
		&d.CreatedAt,
	)
	if err != nil {
		return d, err
	}

	d.KeySymptoms = []string{}
	if len(symptoms) > 0 {
		if err := json.Unmarshal(symptoms, &d.KeySymptoms); err != nil {
			return d, fmt.Errorf("decode key_symptoms: %w", err)
		}
	}
	return d, nil
}

func imageKey(id uuid.UUID, filename string) string {
	return storage.Key("samples", id.String(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.ReplaceAll(name, "..", ".")
	if name == "." || name == "/" || name == "" {
		name = "sample"
	}
	return url.PathEscape(name)
}
