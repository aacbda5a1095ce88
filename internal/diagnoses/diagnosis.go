// Package diagnoses stores completed leaf analyses and serves the
// diagnosis history.
package diagnoses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/verdant/internal/recommendations"
)

// Diagnosis is one persisted analysis: the classification, the generated
// recommendation, and a reference to the stored sample image.
type Diagnosis struct {
	ID            uuid.UUID                `json:"id"`
	UserID        *string                  `json:"user_id"`
	CropName      string                   `json:"crop_name"`
	Confidence    decimal.Decimal          `json:"confidence"`
	Diagnosis     string                   `json:"diagnosis"`
	Severity      recommendations.Severity `json:"severity"`
	TreatmentPlan string                   `json:"treatment_plan"`
	KeySymptoms   []string                 `json:"key_symptoms"`
	ImageKey      *string                  `json:"image_key,omitempty"`
	ModelName     string                   `json:"model_name"`
	CreatedAt     time.Time                `json:"created_at"`
}

// Image is an uploaded sample photo kept with a diagnosis.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// CreateCommand carries a completed analysis. Image is optional; when set
// it is uploaded before the row is inserted.
type CreateCommand struct {
	UserID        *string
	CropName      string
	Confidence    decimal.Decimal
	Diagnosis     string
	Severity      recommendations.Severity
	TreatmentPlan string
	KeySymptoms   []string
	ModelName     string
	Image         *Image
}

func (c CreateCommand) validate() error {
	switch {
	case c.CropName == "":
		return ErrInvalid
	case c.Diagnosis == "":
		return ErrInvalid
	case !c.Severity.Valid():
		return ErrInvalid
	case c.TreatmentPlan == "":
		return ErrInvalid
	case c.Confidence.IsNegative() || c.Confidence.GreaterThan(decimal.NewFromInt(100)):
		return ErrInvalid
	}
	return nil
}
