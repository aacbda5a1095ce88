package diagnoses

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/storage"
)

// System manages persisted diagnoses. Records are created once by the
// analysis pipeline and never updated.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Diagnosis], error)
	Find(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	// Create uploads the sample image when present, then inserts the
	// record. A failed insert removes the uploaded image.
	Create(ctx context.Context, cmd CreateCommand) (*Diagnosis, error)
	// Image opens the stored sample image of a diagnosis.
	Image(ctx context.Context, id uuid.UUID) (*storage.Object, error)
}
