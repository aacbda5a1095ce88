// Package prompts stores named instruction overrides for the model-backed
// pipeline stages and resolves the effective instructions for each stage.
package prompts

import (
	"time"

	"github.com/google/uuid"
)

// Prompt is a named instruction override for one stage. At most one prompt
// per stage is active; the active one replaces the built-in instructions.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to create a prompt override.
type CreateCommand struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// UpdateCommand replaces the editable fields of a prompt override.
type UpdateCommand = CreateCommand

func (c CreateCommand) validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Instructions == "" {
		return ErrInstructionsRequired
	}
	if _, err := ParseStage(string(c.Stage)); err != nil {
		return err
	}
	return nil
}
