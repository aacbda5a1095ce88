package pipeline

import (
	"image"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/verdant/internal/classifier"
	"github.com/JaimeStill/verdant/internal/recommendations"
)

// CropType is the crop a grower says the leaf came from.
type CropType string

const (
	CropMaize  CropType = "Maize"
	CropTomato CropType = "Tomato"
	CropWheat  CropType = "Wheat"
	CropPotato CropType = "Potato"
	CropOther  CropType = "Other"
)

// DefaultCropType is used when an upload names no crop.
const DefaultCropType = CropMaize

var cropTypes = []CropType{CropMaize, CropTomato, CropWheat, CropPotato, CropOther}

// CropTypes returns the supported crop types in display order.
func CropTypes() []CropType {
	return slices.Clone(cropTypes)
}

// ParseCropType matches s case-insensitively. An empty s yields the
// default crop type.
func ParseCropType(s string) (CropType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCropType, nil
	}
	for _, c := range cropTypes {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrInvalidCropType
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusPredicting Status = "predicting"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Stage names the step a session is in or failed at.
type Stage string

const (
	StageCapture  Stage = "capture"
	StageClassify Stage = "classify"
	StageGenerate Stage = "generate"
	StagePersist  Stage = "persist"
)

// Progress reached when each stage completes.
const (
	progressCaptured   = 25
	progressClassified = 50
	progressGenerated  = 75
	progressComplete   = 100
)

// FileStatus marks whether an uploaded file was analyzed.
type FileStatus string

const (
	FilePending  FileStatus = "pending"
	FileAnalyzed FileStatus = "analyzed"
	FileSkipped  FileStatus = "skipped"
)

// File is one uploaded file as shown to the grower.
type File struct {
	Name   string          `json:"name"`
	SizeMB decimal.Decimal `json:"size_mb"`
	Status FileStatus      `json:"status"`
}

// Upload is one file received with an analysis request.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

var mebibyte = decimal.NewFromInt(1 << 20)

func sizeMB(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n)).Div(mebibyte).Round(2)
}

type capturedImage struct {
	img         image.Image
	data        []byte
	filename    string
	contentType string
}

// Session is the state of one analysis. It is owned by the goroutine
// running the analysis and is not safe for concurrent use.
type Session struct {
	ID       uuid.UUID `json:"id"`
	CropType CropType  `json:"crop_type"`
	UserID   *string   `json:"user_id,omitempty"`
	Files    []File    `json:"files"`
	Status   Status    `json:"status"`
	Progress int       `json:"progress"`
	Stage    Stage     `json:"stage,omitempty"`

	Predictions    []classifier.Prediction         `json:"predictions,omitempty"`
	Result         *classifier.Result              `json:"result,omitempty"`
	Recommendation *recommendations.Recommendation `json:"recommendation,omitempty"`

	image *capturedImage
}

// NewSession returns an idle session for cropType.
func NewSession(cropType CropType, userID *string) *Session {
	return &Session{
		ID:       uuid.New(),
		CropType: cropType,
		UserID:   userID,
		Files:    []File{},
		Status:   StatusIdle,
	}
}

// Progress is the event sent to observers on each state transition.
type Progress struct {
	SessionID uuid.UUID `json:"session_id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Stage     Stage     `json:"stage,omitempty"`
}

func (s *Session) progress() Progress {
	return Progress{SessionID: s.ID, Status: s.Status, Progress: s.Progress, Stage: s.Stage}
}
