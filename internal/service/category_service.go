package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type categoryRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	ReorderBatch(ctx context.Context, teamID string, orderedIDs []string) error
}

// CategoryService owns the team-scoped category registry and its dense
// display order.
type CategoryService struct {
	repo     categoryRepository
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCategoryService(repo categoryRepository, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, validate: validate, logger: logger}
}

type CreateCategoryRequest struct {
	Name         string `json:"name" validate:"required,max=60"`
	IsSchoolOnly bool   `json:"isSchoolOnly"`
}

type UpdateCategoryRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=60"`
	IsSchoolOnly *bool   `json:"isSchoolOnly,omitempty"`
}

// ReorderRequest carries the full desired ordering, first id on top.
type ReorderRequest struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1,dive,uuid"`
}

// List returns the team's categories in display order.
func (s *CategoryService) List(ctx context.Context, teamID string) ([]models.Category, error) {
	categories, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return categories, nil
}

// Create appends a new category at the end of the display order.
func (s *CategoryService) Create(ctx context.Context, teamID string, req *CreateCategoryRequest) (*models.Category, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}
	category := &models.Category{
		TeamID:       teamID,
		Name:         req.Name,
		IsSchoolOnly: req.IsSchoolOnly,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return category, nil
}

// Update renames a category or toggles its school-only flag.
func (s *CategoryService) Update(ctx context.Context, teamID, id string, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if category.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.IsSchoolOnly != nil {
		category.IsSchoolOnly = *req.IsSchoolOnly
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return category, nil
}

// Delete removes a category and compacts the remaining display order.
// Schedules and students keep referencing the deleted id until their next
// edit; the filter treats a dangling id as no match.
func (s *CategoryService) Delete(ctx context.Context, teamID, id string) error {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return appErrors.ErrNotFound
	}
	if category.TeamID != teamID {
		return appErrors.ErrCrossTeam
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return nil
}

// Reorder atomically rewrites the display order. The request must be an
// exact permutation of the team's current category ids; anything else is
// rejected and the stored order stays intact.
func (s *CategoryService) Reorder(ctx context.Context, teamID string, req *ReorderRequest) ([]models.Category, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	existing, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	if len(req.OrderedIDs) != len(existing) {
		return nil, appErrors.New("VALIDATION_ERROR", "ordering must include every category exactly once", 400)
	}

	known := make(map[string]bool, len(existing))
	for i := range existing {
		known[existing[i].ID] = true
	}
	seen := make(map[string]bool, len(req.OrderedIDs))
	for _, id := range req.OrderedIDs {
		if !known[id] || seen[id] {
			return nil, appErrors.New("VALIDATION_ERROR", "ordering must include every category exactly once", 400)
		}
		seen[id] = true
	}

	if err := s.repo.ReorderBatch(ctx, teamID, req.OrderedIDs); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	s.logger.Info("categories reordered", zap.String("team_id", teamID), zap.Int("count", len(req.OrderedIDs)))
	return s.List(ctx, teamID)
}
