package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/JaimeStill/verdant/internal/classifier"
	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/formatting"
	"github.com/JaimeStill/verdant/pkg/handlers"
	"github.com/JaimeStill/verdant/pkg/openapi"
	"github.com/JaimeStill/verdant/pkg/routes"
)

// formFiles is the multipart field carrying the uploaded photos.
const formFiles = "file"

// Handler provides HTTP endpoints for running analyses and managing the
// classifier model.
type Handler struct {
	coordinator   *Coordinator
	classifier    Classifier
	logger        *slog.Logger
	maxUploadSize int64
}

// ModelStatus reports whether the classifier model is loaded.
type ModelStatus struct {
	Loaded bool              `json:"loaded"`
	Model  *classifier.Model `json:"model,omitempty"`
}

// NewHandler creates a Handler.
func NewHandler(coordinator *Coordinator, cls Classifier, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		coordinator:   coordinator,
		classifier:    cls,
		logger:        logger.With("handler", "pipeline"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the analysis route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/analyses",
		Tags:    []string{"Analyses"},
		Schemas: schemas,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Analyze, OpenAPI: &openapi.Operation{
				Summary:     "Analyze a leaf photo",
				Description: "Classifies the first image upload, generates a treatment recommendation, and saves the diagnosis. Further images are listed as skipped.",
				RequestBody: openapi.MultipartBody(map[string]*openapi.Schema{
					"crop_type": {Type: "string", Enum: cropEnum(), Default: string(DefaultCropType)},
					"file":      {Type: "array", Items: &openapi.Schema{Type: "string", Format: "binary"}},
				}, "file"),
				Responses: map[int]*openapi.Response{
					201: openapi.JSONResponse("Created", "AnalysisOutcome"),
					400: openapi.ResponseRef("BadRequest"),
					413: {Description: "Upload too large"},
					409: openapi.ResponseRef("Conflict"),
					502: openapi.ResponseRef("BadGateway"),
					503: openapi.ResponseRef("ServiceUnavailable"),
					504: openapi.ResponseRef("GatewayTimeout"),
				},
			}},
			{Method: "GET", Pattern: "/crops", Handler: h.Crops, OpenAPI: &openapi.Operation{
				Summary: "List supported crop types",
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("OK", "CropTypes"),
				},
			}},
			{Method: "GET", Pattern: "/model", Handler: h.ModelStatus, OpenAPI: &openapi.Operation{
				Summary: "Report classifier model status",
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("OK", "ModelStatus"),
				},
			}},
			{Method: "POST", Pattern: "/model", Handler: h.LoadModel, OpenAPI: &openapi.Operation{
				Summary: "Load the classifier model",
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("OK", "ModelStatus"),
					503: openapi.ResponseRef("ServiceUnavailable"),
					504: openapi.ResponseRef("GatewayTimeout"),
				},
			}},
		},
	}
}

// Analyze runs the full pipeline on a multipart upload.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w: limit %s", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize, 1)))
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrNoImages, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := readUploads(r.MultipartForm.File[formFiles])
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	outcome, err := h.coordinator.Analyze(r.Context(), r.FormValue("crop_type"), auth.UserID(r.Context()), files)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Location", outcome.Location)
	handlers.RespondJSON(w, http.StatusCreated, outcome)
}

// Crops returns the supported crop types.
func (h *Handler) Crops(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, CropTypes())
}

// ModelStatus reports the cached model without loading it.
func (h *Handler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	m := h.classifier.Model()
	handlers.RespondJSON(w, http.StatusOK, ModelStatus{Loaded: m != nil, Model: m})
}

// LoadModel loads the model if it is not cached yet.
func (h *Handler) LoadModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.classifier.Load(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, ModelStatus{Loaded: true, Model: m})
}

func readUploads(headers []*multipart.FileHeader) ([]Upload, error) {
	files := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
