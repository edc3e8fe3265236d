package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type teamRepository interface {
	FindByID(ctx context.Context, id string) (*models.Team, error)
	UpdateFees(ctx context.Context, team *models.Team) error
}

// TeamService exposes the team's fee configuration read by the billing
// engine.
type TeamService struct {
	repo     teamRepository
	activity *ActivityService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewTeamService(repo teamRepository, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *TeamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{repo: repo, activity: activity, validate: validate, logger: logger}
}

// UpdateFeesRequest carries the full fee configuration. Omitted fees clear
// the stored value; generation bills zero for a cleared fee.
type UpdateFeesRequest struct {
	MonthlyFeeMember  *int `json:"monthlyFeeMember,omitempty" validate:"omitempty,min=0"`
	MonthlyFeeSchool  *int `json:"monthlyFeeSchool,omitempty" validate:"omitempty,min=0"`
	SiblingDiscount   *int `json:"siblingDiscount,omitempty" validate:"omitempty,min=0"`
	AnnualFee         *int `json:"annualFee,omitempty" validate:"omitempty,min=0"`
	EntranceFee       *int `json:"entranceFee,omitempty" validate:"omitempty,min=0"`
	InsuranceFee      *int `json:"insuranceFee,omitempty" validate:"omitempty,min=0"`
	AnnualFeeMonth    int  `json:"annualFeeMonth" validate:"required,min=1,max=12"`
	InsuranceFeeMonth int  `json:"insuranceFeeMonth" validate:"required,min=1,max=12"`
}

// Get returns the caller's team with its fee configuration.
func (s *TeamService) Get(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	return team, nil
}

// UpdateFees replaces the fee configuration. Existing tuition rows keep the
// amounts they were generated with; only reset-unpaid reapplies the new
// schedule.
func (s *TeamService) UpdateFees(ctx context.Context, teamID string, actorID *string, req *UpdateFeesRequest) (*models.Team, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	team, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}

	team.MonthlyFeeMember = req.MonthlyFeeMember
	team.MonthlyFeeSchool = req.MonthlyFeeSchool
	team.SiblingDiscount = req.SiblingDiscount
	team.AnnualFee = req.AnnualFee
	team.EntranceFee = req.EntranceFee
	team.InsuranceFee = req.InsuranceFee
	team.AnnualFeeMonth = req.AnnualFeeMonth
	team.InsuranceFeeMonth = req.InsuranceFeeMonth

	if err := s.repo.UpdateFees(ctx, team); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	s.logger.Info("team fees updated", zap.String("team_id", teamID))
	if s.activity != nil {
		s.activity.Record(ctx, teamID, actorID, "team.update_fees", "team", teamID, req)
	}
	return team, nil
}
