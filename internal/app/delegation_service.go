package app

import (
	"context"
	"database/sql"
	"fmt"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/company"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// DelegationService hands a report's remediation work to an external company
// while the assigned technician keeps ownership. Delegation state is the pair
// (company, maintainer): both set or both null, which is also what defines the
// internal channel's existence.
type DelegationService interface {
	Delegate(ctx context.Context, actorID int64, role user.Role, reportID, companyID int64) (*report.Report, error)
	Revoke(ctx context.Context, actorID int64, role user.Role, reportID int64) (*report.Report, error)
}

type DelegationServiceImpl struct {
	reports   report.Repository
	companies company.Repository
	users     user.Directory
	notifier  Notifier
	logger    *logrus.Entry
}

func NewDelegationService(
	reports report.Repository,
	companies company.Repository,
	users user.Directory,
	notifier Notifier,
	logger *logrus.Entry,
) *DelegationServiceImpl {
	return &DelegationServiceImpl{
		reports:   reports,
		companies: companies,
		users:     users,
		notifier:  notifier,
		logger:    logger,
	}
}

// checkOwnership enforces that only the owning technician operates the
// delegation while the report is actively worked. An external maintainer can
// never re-delegate.
func checkOwnership(actorID int64, role user.Role, rep *report.Report) error {
	if role != user.RoleTechnician {
		return fmt.Errorf("delegation is a technician action: %w", apperr.ErrForbidden)
	}
	if !rep.IsAssignee(actorID) {
		return fmt.Errorf("actor %d is not the assignee of report %d: %w", actorID, rep.ID, apperr.ErrDelegationPrecondition)
	}
	if rep.Status != report.StatusAssigned && rep.Status != report.StatusInProgress {
		return fmt.Errorf("report %d is %s: %w", rep.ID, rep.Status, apperr.ErrDelegationPrecondition)
	}
	return nil
}

func (s *DelegationServiceImpl) Delegate(ctx context.Context, actorID int64, role user.Role, reportID, companyID int64) (*report.Report, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(actorID, role, rep); err != nil {
		return nil, err
	}
	if rep.HasDelegation() {
		return nil, fmt.Errorf("report %d already delegated to company %d: %w", rep.ID, rep.CompanyID.Int64, apperr.ErrDelegationPrecondition)
	}

	comp, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("resolving company %d: %w", companyID, err)
	}
	maintainer, err := s.users.PickMaintainer(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("picking maintainer for company %d: %w", companyID, err)
	}

	// Both fields flip together; the internal channel opens implicitly.
	rep.CompanyID = sql.NullInt64{Int64: comp.ID, Valid: true}
	rep.ExternalMaintainerID = sql.NullInt64{Int64: maintainer.ID, Valid: true}

	entry := &report.AuditEntry{
		ReportID:   rep.ID,
		ActorID:    actorID,
		FromStatus: rep.Status,
		ToStatus:   rep.Status,
		Detail:     fmt.Sprintf("delegated to company %d, maintainer %d", comp.ID, maintainer.ID),
	}
	if err := s.reports.UpdateWithAudit(ctx, rep, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":     rep.ID,
		"technician_id": actorID,
		"company_id":    comp.ID,
		"maintainer_id": maintainer.ID,
	}).Info("report delegated")

	s.notifier.Delegated(rep)
	return rep, nil
}

func (s *DelegationServiceImpl) Revoke(ctx context.Context, actorID int64, role user.Role, reportID int64) (*report.Report, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(actorID, role, rep); err != nil {
		return nil, err
	}
	if !rep.HasDelegation() {
		return nil, fmt.Errorf("report %d has no active delegation: %w", rep.ID, apperr.ErrDelegationPrecondition)
	}

	formerMaintainerID := rep.ExternalMaintainerID.Int64
	formerCompanyID := rep.CompanyID.Int64

	// Internal channel history stays in place for audit; with the pair
	// cleared it becomes readable by the technician only.
	rep.CompanyID = sql.NullInt64{}
	rep.ExternalMaintainerID = sql.NullInt64{}

	entry := &report.AuditEntry{
		ReportID:   rep.ID,
		ActorID:    actorID,
		FromStatus: rep.Status,
		ToStatus:   rep.Status,
		Detail:     fmt.Sprintf("delegation to company %d (maintainer %d) revoked", formerCompanyID, formerMaintainerID),
	}
	if err := s.reports.UpdateWithAudit(ctx, rep, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":     rep.ID,
		"technician_id": actorID,
		"company_id":    formerCompanyID,
		"maintainer_id": formerMaintainerID,
	}).Info("delegation revoked")

	s.notifier.DelegationRevoked(rep, formerMaintainerID)
	return rep, nil
}
