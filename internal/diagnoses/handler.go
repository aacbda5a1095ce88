package diagnoses

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/handlers"
	"github.com/JaimeStill/verdant/pkg/openapi"
	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/routes"
)

var errInvalidID = errors.New("invalid diagnosis id")

// Handler provides HTTP endpoints for the diagnosis history. When the
// request carries an authenticated user, every endpoint is scoped to that
// user's records.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filters for POST /diagnoses/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "diagnoses"),
		pagination: pagination,
	}
}

// Routes returns the diagnosis route group.
func (h *Handler) Routes() routes.Group {
	id := openapi.PathParam("id", "Diagnosis ID")

	return routes.Group{
		Prefix:  "/diagnoses",
		Tags:    []string{"Diagnoses"},
		Schemas: schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: &openapi.Operation{
				Summary: "List diagnoses, newest first",
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("page", "Page number"),
					openapi.QueryParam("page_size", "Page size"),
					openapi.QueryParam("search", "Matches crop, diagnosis, treatment, or symptoms"),
					openapi.QueryParam("severity", "Critical, Medium, Low, or None"),
					openapi.QueryParam("crop_name", "Crop filter"),
					openapi.QueryParam("diagnosis", "Diagnosis contains"),
					openapi.QueryParam("created_after", "Created on or after (RFC 3339 or YYYY-MM-DD)"),
					openapi.QueryParam("created_before", "Created before (RFC 3339 or YYYY-MM-DD)"),
				},
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("OK", "DiagnosisPage"),
					401: openapi.ResponseRef("Unauthorized"),
				},
			}},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: &openapi.Operation{
				Summary:     "Search diagnoses",
				RequestBody: openapi.JSONBody("DiagnosisSearch"),
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("OK", "DiagnosisPage"),
					400: openapi.ResponseRef("BadRequest"),
				},
			}},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: &openapi.Operation{
				Summary:    "Find a diagnosis",
				Parameters: []*openapi.Parameter{id},
				Responses: map[int]*openapi.Response{
					200: openapi.JSONResponse("OK", "Diagnosis"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			}},
			{Method: "GET", Pattern: "/{id}/image", Handler: h.Image, OpenAPI: &openapi.Operation{
				Summary:    "Download the analyzed sample image",
				Parameters: []*openapi.Parameter{id},
				Responses: map[int]*openapi.Response{
					200: {Description: "Image bytes"},
					404: openapi.ResponseRef("NotFound"),
				},
			}},
		},
	}
}

// List returns a page of diagnoses filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := scope(r, FiltersFromQuery(r.URL.Query()))

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search lists diagnoses using a JSON body of pagination and filters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, scope(r, req.Filters))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns one diagnosis.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	d, ok := h.owned(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, d)
}

// Image streams the stored sample image of a diagnosis.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	d, ok := h.owned(w, r)
	if !ok {
		return
	}

	obj, err := h.sys.Image(r.Context(), d.ID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("image stream interrupted", "id", d.ID, "error", err)
	}
}

// owned loads the diagnosis named by the path and hides records that
// belong to another user.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*Diagnosis, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return nil, false
	}

	d, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}

	if uid := auth.UserID(r.Context()); uid != nil && (d.UserID == nil || *d.UserID != *uid) {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return nil, false
	}
	return d, true
}

func scope(r *http.Request, f Filters) Filters {
	if uid := auth.UserID(r.Context()); uid != nil {
		f.UserID = uid
	}
	return f
}
