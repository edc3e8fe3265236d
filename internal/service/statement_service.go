package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/export"
	"github.com/fieldside/clubcal-api/pkg/jobs"
	"github.com/fieldside/clubcal-api/pkg/storage"
)

// Export lifecycle states.
const (
	ExportStatusPending   = "PENDING"
	ExportStatusCompleted = "COMPLETED"
	ExportStatusFailed    = "FAILED"
)

// StatementExport tracks one asynchronous statement render.
type StatementExport struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	Year        int        `json:"year"`
	Month       int        `json:"month"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type statementPayload struct {
	ExportID string
	TeamID   string
	Year     int
	Month    int
	Format   string
}

type statementRenderer interface {
	Render(stmt export.Statement) ([]byte, error)
}

type statementStudentReader interface {
	ListByTeam(ctx context.Context, teamID string) ([]models.Student, error)
}

// StatementService renders monthly tuition statements to CSV or PDF in the
// background and hands out signed download tokens. Export state lives in
// memory; a restart drops pending exports, which callers simply re-request.
type StatementService struct {
	tuition  tuitionRepository
	students statementStudentReader
	teams    tuitionTeamReader
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger

	queue     *jobs.Queue
	renderers map[string]statementRenderer

	mu      sync.RWMutex
	exports map[string]*StatementExport
}

func NewStatementService(tuition tuitionRepository, students statementStudentReader, teams tuitionTeamReader, store *storage.LocalStorage, signer *storage.SignedURLSigner, workers, retries int, logger *zap.Logger) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StatementService{
		tuition:  tuition,
		students: students,
		teams:    teams,
		store:    store,
		signer:   signer,
		logger:   logger,
		renderers: map[string]statementRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		exports: make(map[string]*StatementExport),
	}
	s.queue = jobs.NewQueue("statements", s.process, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the render workers. Files older than the signed-URL TTL
// can no longer be downloaded, so they are purged first.
func (s *StatementService) Start(ctx context.Context) {
	if removed, err := s.store.CleanupOlderThan(s.signer.TTL()); err != nil {
		s.logger.Warn("statement cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("expired statements removed", zap.Int("count", len(removed)))
	}
	s.queue.Start(ctx)
}

// Stop drains the render workers.
func (s *StatementService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a statement render and returns its tracking record.
func (s *StatementService) Enqueue(ctx context.Context, teamID string, year, month int, format string) (*StatementExport, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.New("VALIDATION_ERROR", "month must be between 1 and 12", 400)
	}
	if _, ok := s.renderers[format]; !ok {
		return nil, appErrors.New("VALIDATION_ERROR", "format must be csv or pdf", 400)
	}
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return nil, appErrors.ErrNotFound
	}

	exp := &StatementExport{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		Year:      year,
		Month:     month,
		Format:    format,
		Status:    ExportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.exports[exp.ID] = exp
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:   exp.ID,
		Type: "statement.render",
		Payload: statementPayload{
			ExportID: exp.ID,
			TeamID:   teamID,
			Year:     year,
			Month:    month,
			Format:   format,
		},
	})
	if err != nil {
		s.fail(exp.ID, err)
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return exp, nil
}

// Get returns the tracking record for one export.
func (s *StatementService) Get(teamID, exportID string) (*StatementExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.exports[exportID]
	if !ok || exp.TeamID != teamID {
		return nil, appErrors.ErrNotFound
	}
	copied := *exp
	return &copied, nil
}

// OpenByToken validates a signed download token and opens the stored file.
func (s *StatementService) OpenByToken(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(appErrors.ErrUnauthorized, err)
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.ErrNotFound
	}
	return file, relPath, nil
}

func (s *StatementService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(statementPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	stmt, err := s.buildStatement(ctx, payload.TeamID, payload.Year, payload.Month)
	if err != nil {
		s.fail(payload.ExportID, err)
		return err
	}

	data, err := s.renderers[payload.Format].Render(*stmt)
	if err != nil {
		s.fail(payload.ExportID, err)
		return err
	}

	relPath := fmt.Sprintf("%s/%d-%02d-%s.%s", payload.TeamID, payload.Year, payload.Month, payload.ExportID, payload.Format)
	if _, err := s.store.Save(relPath, data); err != nil {
		s.fail(payload.ExportID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(payload.ExportID, relPath)
	if err != nil {
		s.fail(payload.ExportID, err)
		return err
	}

	s.mu.Lock()
	if exp, ok := s.exports[payload.ExportID]; ok {
		exp.Status = ExportStatusCompleted
		exp.DownloadURL = fmt.Sprintf("/tuition-payments/statements/download?token=%s", token)
		exp.ExpiresAt = &expiresAt
	}
	s.mu.Unlock()

	s.logger.Info("statement rendered",
		zap.String("export_id", payload.ExportID),
		zap.String("team_id", payload.TeamID),
		zap.String("format", payload.Format),
		zap.Int("rows", len(stmt.Rows)))
	return nil
}

func (s *StatementService) buildStatement(ctx context.Context, teamID string, year, month int) (*export.Statement, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	payments, err := s.tuition.ListByMonth(ctx, teamID, year, month)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	students, err := s.students.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	names := make(map[string]string, len(students))
	for i := range students {
		names[students[i].ID] = students[i].FullName
	}

	stmt := &export.Statement{TeamName: team.Name, Year: year, Month: month}
	for i := range payments {
		p := payments[i]
		name := names[p.StudentID]
		if name == "" {
			name = p.StudentID
		}
		playerType := ""
		if p.Category != nil {
			playerType = *p.Category
		}
		stmt.Rows = append(stmt.Rows, export.StatementRow{
			StudentName: name,
			PlayerType:  playerType,
			BaseAmount:  p.BaseAmount,
			Discount:    p.Discount,
			AnnualFee:   p.AnnualFee,
			EntranceFee: p.EntranceFee,
			Insurance:   p.InsuranceFee,
			SpotFee:     p.SpotFee,
			Amount:      p.Amount,
			Paid:        p.IsPaid,
		})
	}
	return stmt, nil
}

func (s *StatementService) fail(exportID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.exports[exportID]; ok {
		exp.Status = ExportStatusFailed
		exp.Error = err.Error()
	}
}
