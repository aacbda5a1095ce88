package diagnoses

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/query"
	"github.com/JaimeStill/verdant/pkg/repository"
	"github.com/JaimeStill/verdant/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the SQL and blob backed diagnosis System.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "diagnoses"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Diagnosis], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "crop_name", "diagnosis", "treatment_plan", "key_symptoms")
	filters.Apply(qb).OrderBy(page.Sort)

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryCount(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count diagnoses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDiagnosis)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	q, args := query.NewBuilder(projection).BuildSingle("id", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDiagnosis)
	if err != nil {
		return nil, repoErrors.Map(err)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Diagnosis, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	symptoms := cmd.KeySymptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	symptomsJSON, err := json.Marshal(symptoms)
	if err != nil {
		return nil, fmt.Errorf("encode key_symptoms: %w", err)
	}

	id := uuid.New()

	var key *string
	if cmd.Image != nil {
		k := imageKey(id, cmd.Image.Filename)
		if err := r.storage.Upload(ctx, k, bytes.NewReader(cmd.Image.Data), cmd.Image.ContentType); err != nil {
			return nil, fmt.Errorf("upload sample image: %w", err)
		}
		key = &k
	}

	q := `INSERT INTO diagnoses (id, user_id, crop_name, confidence, diagnosis, severity,
			treatment_plan, key_symptoms, image_key, model_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10) ` + returning

	args := []any{
		id,
		cmd.UserID,
		cmd.CropName,
		cmd.Confidence,
		cmd.Diagnosis,
		string(cmd.Severity),
		cmd.TreatmentPlan,
		string(symptomsJSON),
		key,
		cmd.ModelName,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Diagnosis, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDiagnosis)
	})
	if err != nil {
		if key != nil {
			// cleanup runs even when ctx is done
			cleanup := context.WithoutCancel(ctx)
			if delErr := r.storage.Delete(cleanup, *key); delErr != nil {
				r.logger.Warn("compensating blob delete failed", "key", *key, "error", delErr)
			}
		}
		return nil, repoErrors.Map(err)
	}

	r.logger.Info("diagnosis created",
		"id", d.ID,
		"crop", d.CropName,
		"diagnosis", d.Diagnosis,
		"severity", d.Severity,
	)
	return &d, nil
}

func (r *repo) Image(ctx context.Context, id uuid.UUID) (*storage.Object, error) {
	d, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.ImageKey == nil {
		return nil, ErrNoImage
	}
	return r.storage.Download(ctx, *d.ImageKey)
}
