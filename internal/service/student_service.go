package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type studentRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdatePlayerType(ctx context.Context, id string, playerType models.PlayerType) error
	ReplaceCategories(ctx context.Context, studentID string, categoryIDs []string) error
}

// StudentService manages player type and category subscriptions. Both feed
// downstream layers: player type drives billing, subscriptions drive the
// visibility filter.
type StudentService struct {
	repo     studentRepository
	activity *ActivityService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewStudentService(repo studentRepository, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, activity: activity, validate: validate, logger: logger}
}

type UpdatePlayerTypeRequest struct {
	PlayerType string `json:"playerType" validate:"required"`
}

type ReplaceCategoriesRequest struct {
	CategoryIDs []string `json:"categoryIds" validate:"dive,uuid"`
}

// List returns the team's players with their category subscriptions.
func (s *StudentService) List(ctx context.Context, teamID string) ([]models.Student, error) {
	students, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return students, nil
}

// Get returns one player with the team guard applied.
func (s *StudentService) Get(ctx context.Context, teamID, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if student.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}
	return student, nil
}

// UpdatePlayerType changes a player's billing classification. The change
// affects only future generation passes; existing payment rows keep the
// amounts they were generated with.
func (s *StudentService) UpdatePlayerType(ctx context.Context, teamID, id string, actorID *string, req *UpdatePlayerTypeRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}
	playerType := models.PlayerType(req.PlayerType)
	if !playerType.Valid() {
		return nil, appErrors.New("VALIDATION_ERROR", "playerType must be TEAM, SCHOOL, INACTIVE, or UNSET", 400)
	}

	student, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePlayerType(ctx, id, playerType); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	student.PlayerType = playerType

	if s.activity != nil {
		s.activity.Record(ctx, teamID, actorID, "student.player_type", "student", id, map[string]string{
			"player_type": string(playerType),
		})
	}
	return student, nil
}

// ReplaceCategories rewrites a player's category subscriptions.
func (s *StudentService) ReplaceCategories(ctx context.Context, teamID, id string, req *ReplaceCategoriesRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	student, err := s.Get(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceCategories(ctx, id, req.CategoryIDs); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	student.CategoryIDs = pq.StringArray(req.CategoryIDs)
	return student, nil
}
