package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type activityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListRecent(ctx context.Context, teamID string, limit int) ([]models.ActivityLog, error)
}

// ActivityService records and serves the team activity feed. Recording is
// best effort; a failed write is logged and never fails the calling
// operation.
type ActivityService struct {
	repo   activityRepository
	logger *zap.Logger
}

func NewActivityService(repo activityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, logger: logger}
}

// Record appends one feed entry. Detail must be JSON-serializable.
func (s *ActivityService) Record(ctx context.Context, teamID string, actorID *string, action, resource, resourceID string, detail interface{}) {
	if s.repo == nil {
		return
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		s.logger.Warn("activity detail not serializable", zap.String("action", action), zap.Error(err))
		raw = json.RawMessage(`{}`)
	}
	entry := &models.ActivityLog{
		TeamID:   teamID,
		ActorID:  actorID,
		Action:   action,
		Resource: resource,
		Detail:   raw,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("activity record failed", zap.String("action", action), zap.Error(err))
	}
}

// ListRecent returns the newest feed entries for a team.
func (s *ActivityService) ListRecent(ctx context.Context, teamID string, limit int) ([]models.ActivityLog, error) {
	entries, err := s.repo.ListRecent(ctx, teamID, limit)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return entries, nil
}
