package app

import (
	"context"
	"testing"
	"time"

	"city_report_service/internal/domain/category"
	"city_report_service/internal/domain/company"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"

	"github.com/stretchr/testify/require"
)

// Fixture ids shared across service tests.
const (
	citizenID      = int64(1)
	otherCitizenID = int64(2)
	officerID      = int64(3)
	techAID        = int64(10)
	techBID        = int64(11)
	maintAID       = int64(20)
	maintBID       = int64(21)
	categoryID     = int64(5)
	officeID       = int64(100)
	companyID      = int64(200)
)

type testEnv struct {
	reports       *fakeReportRepo
	messages      *fakeMessageRepo
	notifications *fakeNotificationRepo
	users         *fakeUserDirectory

	reportSvc     *ReportServiceImpl
	delegationSvc *DelegationServiceImpl
	messageSvc    *MessageServiceImpl
	notifSvc      *NotificationServiceImpl
}

func newTestEnv() *testEnv {
	env := &testEnv{
		reports:       newFakeReportRepo(),
		messages:      newFakeMessageRepo(),
		notifications: newFakeNotificationRepo(),
		users: newFakeUserDirectory(
			&user.User{ID: citizenID, DisplayName: "Ada Citizen", Role: user.RoleCitizen},
			&user.User{ID: otherCitizenID, DisplayName: "Bob Citizen", Role: user.RoleCitizen},
			&user.User{ID: officerID, DisplayName: "Olive Officer", Role: user.RoleMunicipalOfficer},
			&user.User{ID: techAID, DisplayName: "Tina Tech", Role: user.RoleTechnician, TechnicalOfficeID: officeID},
			&user.User{ID: techBID, DisplayName: "Tom Tech", Role: user.RoleTechnician, TechnicalOfficeID: officeID},
			&user.User{ID: maintAID, DisplayName: "Max Maintainer", Role: user.RoleExternalMaintainer, CompanyID: companyID},
			&user.User{ID: maintBID, DisplayName: "Mia Maintainer", Role: user.RoleExternalMaintainer, CompanyID: companyID},
		),
	}

	categories := &fakeCategoryRepo{categories: map[int64]*category.Category{
		categoryID: {ID: categoryID, Name: "Potholes", TechnicalOfficeID: officeID},
	}}
	companies := &fakeCompanyRepo{companies: map[int64]*company.Company{
		companyID: {ID: companyID, Name: "RoadWorks Ltd"},
	}}

	env.notifSvc = NewNotificationService(env.notifications, nil, time.Second, 24*time.Hour, testLogger())
	env.reportSvc = NewReportService(env.reports, categories, env.users, env.notifSvc, testLogger())
	env.delegationSvc = NewDelegationService(env.reports, companies, env.users, env.notifSvc, testLogger())
	env.messageSvc = NewMessageService(env.messages, env.reports, env.users, env.notifSvc, testLogger())
	return env
}

// createReport files a plain non-anonymous report owned by citizenID.
func (env *testEnv) createReport(t *testing.T) *report.Report {
	t.Helper()
	rep, err := env.reportSvc.Create(context.Background(), citizenID, CreateReportInput{
		CategoryID:  categoryID,
		Title:       "Broken streetlight",
		Description: "Lamp flickers all night",
		Latitude:    45.07,
		Longitude:   7.68,
		Photos:      []string{"https://cdn.example/p1.jpg"},
	})
	require.NoError(t, err)
	return rep
}

// approvedReport files a report and walks it to Assigned via the officer.
func (env *testEnv) approvedReport(t *testing.T) *report.Report {
	t.Helper()
	rep := env.createReport(t)
	rep, err := env.reportSvc.Approve(context.Background(), officerID, user.RoleMunicipalOfficer, rep.ID)
	require.NoError(t, err)
	return rep
}

// delegatedReport walks a report to Assigned and delegates it to the company.
func (env *testEnv) delegatedReport(t *testing.T) *report.Report {
	t.Helper()
	rep := env.approvedReport(t)
	rep, err := env.delegationSvc.Delegate(context.Background(), rep.AssigneeID.Int64, user.RoleTechnician, rep.ID, companyID)
	require.NoError(t, err)
	return rep
}
