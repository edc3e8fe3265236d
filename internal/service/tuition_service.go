package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type tuitionRepository interface {
	FindByID(ctx context.Context, id string) (*models.TuitionPayment, error)
	ListByMonth(ctx context.Context, teamID string, year, month int) ([]models.TuitionPayment, error)
	InsertBatch(ctx context.Context, payments []models.TuitionPayment) (inserted, skipped int, err error)
	ResetAndInsert(ctx context.Context, teamID string, year, month int, payments []models.TuitionPayment) (deleted, preserved, inserted, skipped int, err error)
	UpdateFees(ctx context.Context, p *models.TuitionPayment) (bool, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

type tuitionStudentReader interface {
	ListBillable(ctx context.Context, teamID string) ([]models.Student, error)
	ApprovedSiblings(ctx context.Context, teamID string) (map[string][]string, error)
}

type tuitionTeamReader interface {
	FindByID(ctx context.Context, id string) (*models.Team, error)
}

// TuitionService runs monthly billing generation and guards paid rows
// against any later mutation.
type TuitionService struct {
	repo     tuitionRepository
	students tuitionStudentReader
	teams    tuitionTeamReader
	activity *ActivityService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewTuitionService(repo tuitionRepository, students tuitionStudentReader, teams tuitionTeamReader, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *TuitionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TuitionService{
		repo:     repo,
		students: students,
		teams:    teams,
		activity: activity,
		validate: validate,
		logger:   logger,
	}
}

// GenerateRequest selects the billing month.
type GenerateRequest struct {
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// UpdatePaymentRequest edits the fee components of one unpaid row. Amount,
// when set, overrides the computed total.
type UpdatePaymentRequest struct {
	BaseAmount   *int `json:"baseAmount,omitempty" validate:"omitempty,min=0"`
	Discount     *int `json:"discount,omitempty" validate:"omitempty,min=0"`
	AnnualFee    *int `json:"annualFee,omitempty" validate:"omitempty,min=0"`
	EntranceFee  *int `json:"entranceFee,omitempty" validate:"omitempty,min=0"`
	InsuranceFee *int `json:"insuranceFee,omitempty" validate:"omitempty,min=0"`
	SpotFee      *int `json:"spotFee,omitempty" validate:"omitempty,min=0"`
	Amount       *int `json:"amount,omitempty" validate:"omitempty,min=0"`
}

// Generate bills every TEAM and SCHOOL student for (year, month). Students
// already holding a row for the month are skipped, so the operation is
// idempotent. The sibling discount applies when an approved sibling is also
// billable this month; annual and insurance fees apply only in the team's
// configured months.
func (s *TuitionService) Generate(ctx context.Context, teamID string, req *GenerateRequest) (*models.TuitionGenerationResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	payments, err := s.monthPayments(ctx, teamID, req)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return &models.TuitionGenerationResult{}, nil
	}

	inserted, skipped, err := s.repo.InsertBatch(ctx, payments)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	s.logger.Info("tuition generated",
		zap.String("team_id", teamID),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("inserted", inserted),
		zap.Int("skipped", skipped))
	if s.activity != nil {
		s.activity.Record(ctx, teamID, nil, "tuition.generate", "tuition", "", map[string]int{
			"year": req.Year, "month": req.Month, "generated": inserted, "skipped": skipped,
		})
	}
	return &models.TuitionGenerationResult{Generated: inserted, Skipped: skipped}, nil
}

// monthPayments resolves the team's fee configuration and builds the full
// regenerated row set for (year, month). Nothing is written; callers choose
// how the rows reach the repository.
func (s *TuitionService) monthPayments(ctx context.Context, teamID string, req *GenerateRequest) ([]models.TuitionPayment, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}

	students, err := s.students.ListBillable(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	if len(students) == 0 {
		return nil, nil
	}

	siblings, err := s.students.ApprovedSiblings(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	billable := make(map[string]bool, len(students))
	for i := range students {
		billable[students[i].ID] = true
	}

	payments := make([]models.TuitionPayment, 0, len(students))
	for i := range students {
		payments = append(payments, s.buildPayment(team, &students[i], req.Year, req.Month, siblings, billable))
	}
	return payments, nil
}

func (s *TuitionService) buildPayment(team *models.Team, student *models.Student, year, month int, siblings map[string][]string, billable map[string]bool) models.TuitionPayment {
	p := models.TuitionPayment{
		StudentID: student.ID,
		TeamID:    team.ID,
		Year:      year,
		Month:     month,
	}

	playerType := string(student.PlayerType)
	p.Category = &playerType
	switch student.PlayerType {
	case models.PlayerTypeSchool:
		p.BaseAmount = models.FeeOrZero(team.MonthlyFeeSchool)
	default:
		p.BaseAmount = models.FeeOrZero(team.MonthlyFeeMember)
	}

	for _, partner := range siblings[student.ID] {
		if billable[partner] {
			p.Discount = models.FeeOrZero(team.SiblingDiscount)
			break
		}
	}
	if month == team.AnnualFeeMonth {
		p.AnnualFee = models.FeeOrZero(team.AnnualFee)
	}
	if month == team.InsuranceFeeMonth {
		p.InsuranceFee = models.FeeOrZero(team.InsuranceFee)
	}

	p.Amount = p.ComputeAmount()
	return p
}

// ResetUnpaid deletes the month's unpaid rows and regenerates from current
// team fees and player types in one repository transaction: a failure at any
// point leaves every existing row in place. Paid rows survive untouched and
// block regeneration for their students through the (student, year, month)
// unique key. Manual edits on unpaid rows are lost.
func (s *TuitionService) ResetUnpaid(ctx context.Context, teamID string, req *GenerateRequest) (*models.TuitionGenerationResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	// Regenerated rows are built before anything is deleted so a failing
	// read cannot leave the month partially reset.
	payments, err := s.monthPayments(ctx, teamID, req)
	if err != nil {
		return nil, err
	}

	deleted, preserved, inserted, skipped, err := s.repo.ResetAndInsert(ctx, teamID, req.Year, req.Month, payments)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	s.logger.Info("tuition reset",
		zap.String("team_id", teamID),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("deleted", deleted),
		zap.Int("preserved", preserved),
		zap.Int("generated", inserted))
	if s.activity != nil {
		s.activity.Record(ctx, teamID, nil, "tuition.reset_unpaid", "tuition", "", map[string]int{
			"year": req.Year, "month": req.Month, "deleted": deleted, "preserved": preserved,
		})
	}
	return &models.TuitionGenerationResult{
		Generated: inserted,
		Skipped:   skipped,
		Deleted:   deleted,
		Preserved: preserved,
	}, nil
}

// List returns the month's payment rows for a team.
func (s *TuitionService) List(ctx context.Context, teamID string, year, month int) ([]models.TuitionPayment, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.New("VALIDATION_ERROR", "month must be between 1 and 12", 400)
	}
	rows, err := s.repo.ListByMonth(ctx, teamID, year, month)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return rows, nil
}

// Update edits fee components of one unpaid row. Paid rows are immutable.
func (s *TuitionService) Update(ctx context.Context, teamID, id string, req *UpdatePaymentRequest) (*models.TuitionPayment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if row.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}
	if row.IsPaid {
		return nil, appErrors.ErrPaymentLocked
	}

	if req.BaseAmount != nil {
		row.BaseAmount = *req.BaseAmount
	}
	if req.Discount != nil {
		row.Discount = *req.Discount
	}
	if req.AnnualFee != nil {
		row.AnnualFee = *req.AnnualFee
	}
	if req.EntranceFee != nil {
		row.EntranceFee = *req.EntranceFee
	}
	if req.InsuranceFee != nil {
		row.InsuranceFee = *req.InsuranceFee
	}
	if req.SpotFee != nil {
		row.SpotFee = *req.SpotFee
	}
	if req.Amount != nil {
		row.Amount = *req.Amount
	} else {
		row.Amount = row.ComputeAmount()
	}

	updated, err := s.repo.UpdateFees(ctx, row)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	if !updated {
		// Row was marked paid between the read and the write.
		return nil, appErrors.ErrPaymentLocked
	}
	return row, nil
}

// MarkPaid flags a row as settled. Marking an already-paid row again is a
// no-op that returns the row unchanged.
func (s *TuitionService) MarkPaid(ctx context.Context, teamID, id string) (*models.TuitionPayment, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if row.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}
	if row.IsPaid {
		return row, nil
	}

	now := time.Now().UTC()
	if err := s.repo.MarkPaid(ctx, id, now); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	row.IsPaid = true
	row.PaidAt = &now

	if s.activity != nil {
		s.activity.Record(ctx, teamID, nil, "tuition.mark_paid", "tuition", id, nil)
	}
	return row, nil
}
