package prompts

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/verdant/pkg/query"
	"github.com/JaimeStill/verdant/pkg/repository"
)

const returning = "RETURNING id, name, stage, instructions, description, active, created_at"

var projection = query.
	NewProjection("prompts", "p").
	Project("id", "id").
	Project("name", "name").
	Project("stage", "stage").
	Project("instructions", "instructions").
	Project("description", "description").
	Project("active", "active").
	Project("created_at", "created_at")

var defaultSort = query.SortField{Field: "name"}

var repoErrors = repository.Errors{NotFound: ErrNotFound, Duplicate: ErrDuplicate}

// Filters narrows prompt listings. Nil fields are ignored.
type Filters struct {
	Stage  *Stage  `json:"stage,omitempty"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("stage", f.Stage).
		WhereSearch(f.Name, "name").
		WhereEquals("active", f.Active)
}

// FiltersFromQuery reads stage, name, and active from URL query values.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("stage"); s != "" {
		stage := Stage(s)
		f.Stage = &stage
	}
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if a, err := strconv.ParseBool(values.Get("active")); err == nil {
		f.Active = &a
	}

	return f
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Stage,
		&p.Instructions,
		&p.Description,
		&p.Active,
		&p.CreatedAt,
	)
	return p, err
}
