package prompts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/pkg/handlers"
	"github.com/JaimeStill/verdant/pkg/openapi"
	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/routes"
)

// Handler provides HTTP endpoints for prompt overrides.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filters for POST /prompts/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// StageContent is the body of the per-stage instructions and spec endpoints.
type StageContent struct {
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}

// NewHandler creates a Handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "prompts"),
		pagination: pagination,
	}
}

// Routes returns the prompt route group.
func (h *Handler) Routes() routes.Group {
	id := openapi.PathParam("id", "Prompt ID")
	stage := openapi.PathParam("stage", "classify or recommend")
	ok := func(schema string) map[int]*openapi.Response {
		return map[int]*openapi.Response{
			200: openapi.JSONResponse("OK", schema),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		}
	}

	return routes.Group{
		Prefix:  "/prompts",
		Tags:    []string{"Prompts"},
		Schemas: schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: &openapi.Operation{
				Summary:    "List prompt overrides",
				Parameters: []*openapi.Parameter{openapi.QueryParam("stage", "Stage filter"), openapi.QueryParam("name", "Name contains"), openapi.QueryParam("active", "Active filter")},
				Responses:  ok("PromptPage"),
			}},
			{Method: "GET", Pattern: "/stages", Handler: h.Stages, OpenAPI: &openapi.Operation{
				Summary:   "List overridable stages",
				Responses: map[int]*openapi.Response{200: {Description: "Stage names"}},
			}},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: &openapi.Operation{
				Summary: "Find a prompt", Parameters: []*openapi.Parameter{id}, Responses: ok("Prompt"),
			}},
			{Method: "GET", Pattern: "/{stage}/instructions", Handler: h.Instructions, OpenAPI: &openapi.Operation{
				Summary: "Effective instructions for a stage", Parameters: []*openapi.Parameter{stage}, Responses: ok("StageContent"),
			}},
			{Method: "GET", Pattern: "/{stage}/spec", Handler: h.Spec, OpenAPI: &openapi.Operation{
				Summary: "Output specification for a stage", Parameters: []*openapi.Parameter{stage}, Responses: ok("StageContent"),
			}},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: &openapi.Operation{
				Summary:     "Create a prompt override",
				RequestBody: openapi.JSONBody("CreatePrompt"),
				Responses: map[int]*openapi.Response{
					201: openapi.JSONResponse("Created", "Prompt"),
					400: openapi.ResponseRef("BadRequest"),
					409: openapi.ResponseRef("Conflict"),
				},
			}},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update, OpenAPI: &openapi.Operation{
				Summary: "Update a prompt override", Parameters: []*openapi.Parameter{id},
				RequestBody: openapi.JSONBody("CreatePrompt"), Responses: ok("Prompt"),
			}},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: &openapi.Operation{
				Summary: "Delete a prompt override", Parameters: []*openapi.Parameter{id},
				Responses: map[int]*openapi.Response{204: {Description: "Deleted"}, 404: openapi.ResponseRef("NotFound")},
			}},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: &openapi.Operation{
				Summary: "Search prompt overrides", RequestBody: openapi.JSONBody("PageRequest"), Responses: ok("PromptPage"),
			}},
			{Method: "POST", Pattern: "/{id}/activate", Handler: h.Activate, OpenAPI: &openapi.Operation{
				Summary: "Make a prompt the active override for its stage", Parameters: []*openapi.Parameter{id}, Responses: ok("Prompt"),
			}},
			{Method: "POST", Pattern: "/{id}/deactivate", Handler: h.Deactivate, OpenAPI: &openapi.Operation{
				Summary: "Fall back to built-in instructions", Parameters: []*openapi.Parameter{id}, Responses: ok("Prompt"),
			}},
		},
	}
}

// List returns a page of prompts filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page, FiltersFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Stages returns the overridable stages.
func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Stages())
}

// Find returns one prompt.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	prompt, err := h.sys.Find(r.Context(), id)
	h.respond(w, http.StatusOK, prompt, err)
}

// Instructions returns the effective instructions for a stage.
func (h *Handler) Instructions(w http.ResponseWriter, r *http.Request) {
	h.stageContent(w, r, h.sys.Instructions)
}

// Spec returns the output specification for a stage.
func (h *Handler) Spec(w http.ResponseWriter, r *http.Request) {
	h.stageContent(w, r, h.sys.Spec)
}

// Create stores a new prompt override.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	prompt, err := h.sys.Create(r.Context(), cmd)
	h.respond(w, http.StatusCreated, prompt, err)
}

// Update replaces a prompt override.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd UpdateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	prompt, err := h.sys.Update(r.Context(), id, cmd)
	h.respond(w, http.StatusOK, prompt, err)
}

// Delete removes a prompt override.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search lists prompts using a JSON body of pagination and filters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Activate makes a prompt the active override for its stage.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	prompt, err := h.sys.Activate(r.Context(), id)
	h.respond(w, http.StatusOK, prompt, err)
}

// Deactivate clears a prompt's active flag.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	prompt, err := h.sys.Deactivate(r.Context(), id)
	h.respond(w, http.StatusOK, prompt, err)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, prompt *Prompt, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, status, prompt)
}

func (h *Handler) stageContent(
	w http.ResponseWriter,
	r *http.Request,
	resolve func(ctx context.Context, stage Stage) (string, error),
) {
	stage, err := ParseStage(r.PathValue("stage"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	text, err := resolve(r.Context(), stage)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, StageContent{Stage: stage, Content: text})
}
