package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type documentRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
}

// DocumentService manages shared team material metadata. Student reads go
// through the visibility filter.
type DocumentService struct {
	repo       documentRepository
	visibility *VisibilityService
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewDocumentService(repo documentRepository, visibility *VisibilityService, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, visibility: visibility, validate: validate, logger: logger}
}

type CreateDocumentRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	FileURL     string   `json:"fileUrl" validate:"required,url"`
	CategoryIDs []string `json:"categoryIds,omitempty" validate:"omitempty,dive,uuid"`
}

// List returns the team's documents. When studentID is non-empty the list is
// narrowed to what that student may see.
func (s *DocumentService) List(ctx context.Context, teamID, studentID string) ([]models.Document, error) {
	docs, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	if studentID == "" || s.visibility == nil {
		return docs, nil
	}
	return s.visibility.FilterDocuments(ctx, studentID, docs)
}

// Create stores document metadata shared with the team.
func (s *DocumentService) Create(ctx context.Context, teamID, createdBy string, req *CreateDocumentRequest) (*models.Document, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}
	doc := &models.Document{
		TeamID:      teamID,
		Title:       req.Title,
		FileURL:     req.FileURL,
		CategoryIDs: pq.StringArray(req.CategoryIDs),
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return doc, nil
}

// Delete removes a document's metadata row. The underlying file in object
// storage is not touched here.
func (s *DocumentService) Delete(ctx context.Context, teamID, id string) error {
	docs, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err)
	}
	for i := range docs {
		if docs[i].ID == id {
			if err := s.repo.Delete(ctx, id); err != nil {
				return appErrors.Wrap(appErrors.ErrInternal, err)
			}
			return nil
		}
	}
	return appErrors.ErrNotFound
}
