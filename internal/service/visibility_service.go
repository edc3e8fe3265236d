package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type visibilityCategoryReader interface {
	ListByTeam(ctx context.Context, teamID string) ([]models.Category, error)
}

type visibilityStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// VisibilityService decides, per student, which schedule instances and
// documents are visible and which instances accept self-registration.
// Coaches and admins bypass it entirely.
type VisibilityService struct {
	categories visibilityCategoryReader
	students   visibilityStudentReader
	logger     *zap.Logger
}

func NewVisibilityService(categories visibilityCategoryReader, students visibilityStudentReader, logger *zap.Logger) *VisibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityService{categories: categories, students: students, logger: logger}
}

// effectiveCategories returns the category ids the student may match
// against. A school-only category counts only when the student's player
// type is SCHOOL; for everyone else it is stripped from their subscription
// before matching, so a school-only instance stays hidden even from a
// subscribed non-school student.
func (s *VisibilityService) effectiveCategories(student *models.Student, all []models.Category) map[string]bool {
	schoolOnly := make(map[string]bool, len(all))
	for i := range all {
		if all[i].IsSchoolOnly {
			schoolOnly[all[i].ID] = true
		}
	}

	effective := make(map[string]bool, len(student.CategoryIDs))
	for _, id := range student.CategoryIDs {
		if schoolOnly[id] && student.PlayerType != models.PlayerTypeSchool {
			continue
		}
		effective[id] = true
	}
	return effective
}

// visible reports whether a row tagged with categoryIDs is shown to a
// student holding the effective set. Untagged rows are visible to the whole
// team. A dangling category id on the row never matches.
func visible(categoryIDs []string, effective map[string]bool) bool {
	if len(categoryIDs) == 0 {
		return true
	}
	for _, id := range categoryIDs {
		if effective[id] {
			return true
		}
	}
	return false
}

// FilterInstances narrows a merged instance list to what one student may
// see, and marks each surviving instance editable only when the instance
// allows self-registration.
func (s *VisibilityService) FilterInstances(ctx context.Context, studentID string, instances []models.ScheduleInstance) ([]models.ScheduleInstance, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	all, err := s.categories.ListByTeam(ctx, student.TeamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	effective := s.effectiveCategories(student, all)

	out := make([]models.ScheduleInstance, 0, len(instances))
	for i := range instances {
		if !visible(instances[i].CategoryIDs, effective) {
			continue
		}
		inst := instances[i]
		inst.Editable = inst.StudentCanRegister
		out = append(out, inst)
	}
	return out, nil
}

// CanRespond reports whether the student may register a response on the
// given schedule: the instance must be visible to them and must allow
// self-registration.
func (s *VisibilityService) CanRespond(ctx context.Context, studentID string, schedule *models.Schedule) (bool, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return false, appErrors.ErrNotFound
	}
	all, err := s.categories.ListByTeam(ctx, student.TeamID)
	if err != nil {
		return false, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	effective := s.effectiveCategories(student, all)
	return visible(schedule.CategoryIDs, effective) && schedule.StudentCanRegister, nil
}

// FilterDocuments narrows shared documents to what one student may see,
// applying the same category rules as schedules.
func (s *VisibilityService) FilterDocuments(ctx context.Context, studentID string, docs []models.Document) ([]models.Document, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	all, err := s.categories.ListByTeam(ctx, student.TeamID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	effective := s.effectiveCategories(student, all)

	out := make([]models.Document, 0, len(docs))
	for i := range docs {
		if visible(docs[i].CategoryIDs, effective) {
			out = append(out, docs[i])
		}
	}
	return out, nil
}
