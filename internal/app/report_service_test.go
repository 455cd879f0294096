package app

import (
	"context"
	"testing"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/notification"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReportStartsPending(t *testing.T) {
	env := newTestEnv()
	rep := env.createReport(t)

	assert.Equal(t, report.StatusPendingApproval, rep.Status)
	assert.Equal(t, citizenID, rep.ReporterID)
	assert.False(t, rep.AssigneeID.Valid)
	assert.False(t, rep.TechnicalOfficeID.Valid)
}

func TestCreateReportRequiresTitle(t *testing.T) {
	env := newTestEnv()
	_, err := env.reportSvc.Create(context.Background(), citizenID, CreateReportInput{
		CategoryID: categoryID,
		Title:      "   ",
	})
	assert.ErrorIs(t, err, apperr.ErrEmptyContent)
}

func TestApproveAssignsTechnicianAndOffice(t *testing.T) {
	env := newTestEnv()
	rep := env.createReport(t)

	rep, err := env.reportSvc.Approve(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID)
	require.NoError(t, err)

	assert.Equal(t, report.StatusAssigned, rep.Status)
	require.True(t, rep.AssigneeID.Valid)
	assert.Equal(t, techAID, rep.AssigneeID.Int64) // equal loads, lowest id wins
	require.True(t, rep.TechnicalOfficeID.Valid)
	assert.Equal(t, officeID, rep.TechnicalOfficeID.Int64)

	// Reporter is told about the status change, technician about the work.
	reporterNotifs, err := env.notifSvc.ListNotifications(context.Background(), citizenID, false)
	require.NoError(t, err)
	require.Len(t, reporterNotifs, 1)
	assert.Equal(t, notification.TypeStatusChange, reporterNotifs[0].Type)

	techNotifs, err := env.notifSvc.ListNotifications(context.Background(), techAID, false)
	require.NoError(t, err)
	require.Len(t, techNotifs, 1)
	assert.Equal(t, notification.TypeAssignment, techNotifs[0].Type)
}

func TestApproveTieBreakPrefersLeastLoadedThenLowestID(t *testing.T) {
	env := newTestEnv()
	env.users.activeLoads[techAID] = 3
	env.users.activeLoads[techBID] = 1

	rep := env.createReport(t)
	rep, err := env.reportSvc.Approve(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, techBID, rep.AssigneeID.Int64)

	// Same inputs, same pick.
	other := env.createReport(t)
	other, err = env.reportSvc.Approve(context.Background(), officerID, user.RoleMunicipalOfficer, other.ID)
	require.NoError(t, err)
	assert.Equal(t, techBID, other.AssigneeID.Int64)
}

func TestApproveTwiceIsInvalidTransition(t *testing.T) {
	env := newTestEnv()
	rep := env.approvedReport(t)

	_, err := env.reportSvc.Approve(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestApproveByCitizenIsForbidden(t *testing.T) {
	env := newTestEnv()
	rep := env.createReport(t)

	_, err := env.reportSvc.Approve(context.Background(), citizenID, user.RoleCitizen, rep.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv()
	rep := env.createReport(t)

	_, err := env.reportSvc.Reject(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID, "  ")
	assert.ErrorIs(t, err, apperr.ErrMissingRejectionReason)
}

func TestRejectIsTerminal(t *testing.T) {
	env := newTestEnv()
	rep := env.createReport(t)

	rep, err := env.reportSvc.Reject(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID, "duplicate of #12")
	require.NoError(t, err)
	assert.Equal(t, report.StatusRejected, rep.Status)
	require.True(t, rep.RejectionReason.Valid)
	assert.Equal(t, "duplicate of #12", rep.RejectionReason.String)

	_, err = env.reportSvc.Approve(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID)
	assert.ErrorIs(t, err, apperr.ErrTerminalState)
}

func TestChangeStatusFollowsTable(t *testing.T) {
	env := newTestEnv()
	rep := env.approvedReport(t)
	ctx := context.Background()
	tech := rep.AssigneeID.Int64

	rep, err := env.reportSvc.ChangeStatus(ctx, tech, user.RoleTechnician, rep.ID, report.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, report.StatusInProgress, rep.Status)

	rep, err = env.reportSvc.ChangeStatus(ctx, tech, user.RoleTechnician, rep.ID, report.StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, report.StatusSuspended, rep.Status)

	rep, err = env.reportSvc.ChangeStatus(ctx, tech, user.RoleTechnician, rep.ID, report.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, report.StatusResolved, rep.Status)

	// Terminal: nothing moves anymore.
	_, err = env.reportSvc.ChangeStatus(ctx, tech, user.RoleTechnician, rep.ID, report.StatusInProgress)
	assert.ErrorIs(t, err, apperr.ErrTerminalState)
}

func TestAssignedToResolvedSkippingInProgressFails(t *testing.T) {
	env := newTestEnv()
	rep := env.approvedReport(t)

	_, err := env.reportSvc.ChangeStatus(context.Background(), rep.AssigneeID.Int64, user.RoleTechnician, rep.ID, report.StatusResolved)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestChangeStatusByNonAssigneeIsForbidden(t *testing.T) {
	env := newTestEnv()
	rep := env.approvedReport(t)

	// techB is a real technician but not the assignee.
	_, err := env.reportSvc.ChangeStatus(context.Background(), techBID, user.RoleTechnician, rep.ID, report.StatusInProgress)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestExternalMaintainerMayWorkButNotResolve(t *testing.T) {
	env := newTestEnv()
	rep := env.delegatedReport(t)
	ctx := context.Background()

	rep, err := env.reportSvc.ChangeStatus(ctx, maintAID, user.RoleExternalMaintainer, rep.ID, report.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, report.StatusInProgress, rep.Status)

	_, err = env.reportSvc.ChangeStatus(ctx, maintAID, user.RoleExternalMaintainer, rep.ID, report.StatusResolved)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestConcurrentApproveLoserFails(t *testing.T) {
	env := newTestEnv()
	rep := env.createReport(t)
	ctx := context.Background()

	// Simulate the race: a second writer commits between this read and the
	// update by bumping the stored version underneath.
	stale, err := env.reports.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	winner, err := env.reports.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	require.NoError(t, env.reports.UpdateWithAudit(ctx, winner, &report.AuditEntry{ReportID: rep.ID}))

	err = env.reports.UpdateWithAudit(ctx, stale, &report.AuditEntry{ReportID: rep.ID})
	assert.ErrorIs(t, err, apperr.ErrConcurrentModification)
}

func TestEveryTransitionLeavesAnAuditEntry(t *testing.T) {
	env := newTestEnv()
	rep := env.approvedReport(t)
	ctx := context.Background()

	_, err := env.reportSvc.ChangeStatus(ctx, rep.AssigneeID.Int64, user.RoleTechnician, rep.ID, report.StatusInProgress)
	require.NoError(t, err)

	entries, err := env.reportSvc.ListAudit(ctx, officerID, user.RoleMunicipalOfficer, rep.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, report.StatusPendingApproval, entries[0].FromStatus)
	assert.Equal(t, report.StatusAssigned, entries[0].ToStatus)
	assert.Equal(t, report.StatusAssigned, entries[1].FromStatus)
	assert.Equal(t, report.StatusInProgress, entries[1].ToStatus)
}

func TestAuditIsStaffOnly(t *testing.T) {
	env := newTestEnv()
	rep := env.approvedReport(t)

	_, err := env.reportSvc.ListAudit(context.Background(), citizenID, user.RoleCitizen, rep.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetHidesAnonymousReportsFromOtherCitizens(t *testing.T) {
	env := newTestEnv()
	rep, err := env.reportSvc.Create(context.Background(), citizenID, CreateReportInput{
		CategoryID: categoryID,
		Title:      "Graffiti",
		Anonymous:  true,
	})
	require.NoError(t, err)

	_, err = env.reportSvc.Get(context.Background(), otherCitizenID, user.RoleCitizen, rep.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// The owner and the officers still see it.
	_, err = env.reportSvc.Get(context.Background(), citizenID, user.RoleCitizen, rep.ID)
	assert.NoError(t, err)
	_, err = env.reportSvc.Get(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID)
	assert.NoError(t, err)
}

func TestGetUnknownReportIsNotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.reportSvc.Get(context.Background(), citizenID, user.RoleCitizen, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListByMaintainerReturnsDelegatedReports(t *testing.T) {
	env := newTestEnv()
	delegated := env.delegatedReport(t)
	env.approvedReport(t) // assigned but never delegated

	reports, err := env.reportSvc.ListByMaintainer(context.Background(), maintAID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, delegated.ID, reports[0].ID)

	// The maintainer's worklist empties again after a revoke.
	_, err = env.delegationSvc.Revoke(context.Background(), delegated.AssigneeID.Int64, user.RoleTechnician, delegated.ID)
	require.NoError(t, err)
	reports, err = env.reportSvc.ListByMaintainer(context.Background(), maintAID)
	require.NoError(t, err)
	assert.Empty(t, reports)

	// Delegation never puts the report on the assignee list.
	assigned, err := env.reportSvc.ListByAssignee(context.Background(), maintAID)
	require.NoError(t, err)
	assert.Empty(t, assigned)
}
