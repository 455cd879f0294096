package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/access"
	"city_report_service/internal/domain/category"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// CreateReportInput is the payload a citizen submits for a new report.
type CreateReportInput struct {
	CategoryID  int64
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
	Anonymous   bool
	Photos      []string
}

// ReportService owns the report lifecycle: creation, the approval/rejection
// gate, working-status changes and the audit/notification side effects of
// every committed transition.
type ReportService interface {
	Create(ctx context.Context, reporterID int64, input CreateReportInput) (*report.Report, error)
	Get(ctx context.Context, actorID int64, role user.Role, reportID int64) (*report.Report, error)
	ListByReporter(ctx context.Context, reporterID int64) ([]*report.Report, error)
	ListByAssignee(ctx context.Context, assigneeID int64) ([]*report.Report, error)
	ListByMaintainer(ctx context.Context, maintainerID int64) ([]*report.Report, error)

	Approve(ctx context.Context, actorID int64, role user.Role, reportID int64) (*report.Report, error)
	Reject(ctx context.Context, actorID int64, role user.Role, reportID int64, reason string) (*report.Report, error)
	ChangeStatus(ctx context.Context, actorID int64, role user.Role, reportID int64, newStatus report.Status) (*report.Report, error)

	ListAudit(ctx context.Context, actorID int64, role user.Role, reportID int64) ([]*report.AuditEntry, error)
}

type ReportServiceImpl struct {
	reports    report.Repository
	categories category.Repository
	users      user.Directory
	notifier   Notifier
	logger     *logrus.Entry
}

func NewReportService(
	reports report.Repository,
	categories category.Repository,
	users user.Directory,
	notifier Notifier,
	logger *logrus.Entry,
) *ReportServiceImpl {
	return &ReportServiceImpl{
		reports:    reports,
		categories: categories,
		users:      users,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *ReportServiceImpl) Create(ctx context.Context, reporterID int64, input CreateReportInput) (*report.Report, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("report title: %w", apperr.ErrEmptyContent)
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		return nil, fmt.Errorf("resolving category %d: %w", input.CategoryID, err)
	}

	rep := &report.Report{
		CategoryID:  input.CategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Anonymous:   input.Anonymous,
		Photos:      input.Photos,
		Status:      report.StatusPendingApproval,
		ReporterID:  reporterID,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":   rep.ID,
		"reporter_id": reporterID,
		"anonymous":   rep.Anonymous,
	}).Info("report created")
	return rep, nil
}

func (s *ReportServiceImpl) Get(ctx context.Context, actorID int64, role user.Role, reportID int64) (*report.Report, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !access.CanView(actorID, role, rep) {
		return nil, fmt.Errorf("viewing report %d as %s: %w", reportID, role, apperr.ErrForbidden)
	}
	return rep, nil
}

func (s *ReportServiceImpl) ListByReporter(ctx context.Context, reporterID int64) ([]*report.Report, error) {
	return s.reports.ListByReporter(ctx, reporterID)
}

func (s *ReportServiceImpl) ListByAssignee(ctx context.Context, assigneeID int64) ([]*report.Report, error) {
	return s.reports.ListByAssignee(ctx, assigneeID)
}

func (s *ReportServiceImpl) ListByMaintainer(ctx context.Context, maintainerID int64) ([]*report.Report, error) {
	return s.reports.ListByMaintainer(ctx, maintainerID)
}

// Approve moves a pending report to Assigned: it resolves the technical
// office from the category, picks the least-loaded technician of that office
// and clears any prior rejection reason, all committed with the audit entry.
func (s *ReportServiceImpl) Approve(ctx context.Context, actorID int64, role user.Role, reportID int64) (*report.Report, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	required, err := report.RequiredCapability(rep.Status, report.StatusAssigned)
	if err != nil {
		return nil, err
	}
	if !access.Resolve(actorID, role, rep).Has(required) {
		return nil, fmt.Errorf("approve requires %s: %w", required, apperr.ErrForbidden)
	}

	cat, err := s.categories.GetByID(ctx, rep.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("resolving category %d: %w", rep.CategoryID, err)
	}
	technician, err := s.users.PickTechnician(ctx, cat.TechnicalOfficeID)
	if err != nil {
		return nil, fmt.Errorf("picking technician for office %d: %w", cat.TechnicalOfficeID, err)
	}

	from := rep.Status
	rep.Status = report.StatusAssigned
	rep.AssigneeID = sql.NullInt64{Int64: technician.ID, Valid: true}
	rep.TechnicalOfficeID = sql.NullInt64{Int64: cat.TechnicalOfficeID, Valid: true}
	rep.RejectionReason = sql.NullString{}

	entry := &report.AuditEntry{
		ReportID:   rep.ID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   rep.Status,
		Detail:     fmt.Sprintf("assigned to technician %d (office %d)", technician.ID, cat.TechnicalOfficeID),
	}
	if err := s.reports.UpdateWithAudit(ctx, rep, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":   rep.ID,
		"actor_id":    actorID,
		"assignee_id": technician.ID,
		"office_id":   cat.TechnicalOfficeID,
	}).Info("report approved and assigned")

	s.notifier.StatusChanged(rep, from)
	s.notifier.Assigned(rep)
	return rep, nil
}

// Reject moves a pending report to the terminal Rejected state. The reason is
// mandatory and stored on the report.
func (s *ReportServiceImpl) Reject(ctx context.Context, actorID int64, role user.Role, reportID int64, reason string) (*report.Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.ErrMissingRejectionReason
	}

	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	required, err := report.RequiredCapability(rep.Status, report.StatusRejected)
	if err != nil {
		return nil, err
	}
	if !access.Resolve(actorID, role, rep).Has(required) {
		return nil, fmt.Errorf("reject requires %s: %w", required, apperr.ErrForbidden)
	}

	from := rep.Status
	rep.Status = report.StatusRejected
	rep.RejectionReason = sql.NullString{String: strings.TrimSpace(reason), Valid: true}

	entry := &report.AuditEntry{
		ReportID:   rep.ID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   rep.Status,
		Detail:     "rejected: " + rep.RejectionReason.String,
	}
	if err := s.reports.UpdateWithAudit(ctx, rep, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": rep.ID,
		"actor_id":  actorID,
	}).Info("report rejected")

	s.notifier.StatusChanged(rep, from)
	return rep, nil
}

// ChangeStatus drives a report through the working states per the transition
// table. External maintainers may work the report but not resolve it; final
// sign-off stays with the accountable technician.
func (s *ReportServiceImpl) ChangeStatus(ctx context.Context, actorID int64, role user.Role, reportID int64, newStatus report.Status) (*report.Report, error) {
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("unknown target status %q: %w", newStatus, apperr.ErrInvalidTransition)
	}

	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	required, err := report.RequiredCapability(rep.Status, newStatus)
	if err != nil {
		return nil, err
	}
	if !access.Resolve(actorID, role, rep).Has(required) {
		return nil, fmt.Errorf("status change requires %s: %w", required, apperr.ErrForbidden)
	}
	if !access.CanSetStatus(role, newStatus) {
		return nil, fmt.Errorf("role %s may not set %s: %w", role, newStatus, apperr.ErrForbidden)
	}

	from := rep.Status
	rep.Status = newStatus

	entry := &report.AuditEntry{
		ReportID:   rep.ID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   newStatus,
	}
	if err := s.reports.UpdateWithAudit(ctx, rep, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": rep.ID,
		"actor_id":  actorID,
		"from":      from,
		"to":        newStatus,
	}).Info("report status changed")

	s.notifier.StatusChanged(rep, from)
	return rep, nil
}

func (s *ReportServiceImpl) ListAudit(ctx context.Context, actorID int64, role user.Role, reportID int64) ([]*report.AuditEntry, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	// The audit trail is staff-facing.
	switch role {
	case user.RoleMunicipalOfficer:
	case user.RoleTechnician:
		if !rep.IsAssignee(actorID) {
			return nil, fmt.Errorf("audit of report %d: %w", reportID, apperr.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("audit of report %d: %w", reportID, apperr.ErrForbidden)
	}
	return s.reports.ListAudit(ctx, reportID)
}
