package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/category"
	"city_report_service/internal/domain/company"
	"city_report_service/internal/domain/message"
	"city_report_service/internal/domain/notification"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// --- report repository ---

type fakeReportRepo struct {
	mu      sync.Mutex
	nextID  int64
	reports map[int64]*report.Report
	audits  []*report.AuditEntry
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{nextID: 1, reports: map[int64]*report.Report{}}
}

func copyReport(r *report.Report) *report.Report {
	cp := *r
	cp.Photos = append([]string(nil), r.Photos...)
	return &cp
}

func (f *fakeReportRepo) Create(_ context.Context, r *report.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.nextID
	f.nextID++
	r.Version = 1
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	f.reports[r.ID] = copyReport(r)
	return nil
}

func (f *fakeReportRepo) GetByID(_ context.Context, id int64) (*report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %d: %w", id, apperr.ErrNotFound)
	}
	return copyReport(stored), nil
}

func (f *fakeReportRepo) UpdateWithAudit(_ context.Context, r *report.Report, entry *report.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.reports[r.ID]
	if !ok {
		return fmt.Errorf("report %d: %w", r.ID, apperr.ErrNotFound)
	}
	if stored.Version != r.Version {
		return fmt.Errorf("report %d version %d: %w", r.ID, r.Version, apperr.ErrConcurrentModification)
	}
	r.Version++
	r.UpdatedAt = time.Now()
	f.reports[r.ID] = copyReport(r)

	entry.ID = int64(len(f.audits) + 1)
	entry.CreatedAt = time.Now()
	f.audits = append(f.audits, entry)
	return nil
}

func (f *fakeReportRepo) ListByReporter(_ context.Context, reporterID int64) ([]*report.Report, error) {
	return f.list(func(r *report.Report) bool { return r.ReporterID == reporterID })
}

func (f *fakeReportRepo) ListByAssignee(_ context.Context, assigneeID int64) ([]*report.Report, error) {
	return f.list(func(r *report.Report) bool { return r.IsAssignee(assigneeID) })
}

func (f *fakeReportRepo) ListByMaintainer(_ context.Context, maintainerID int64) ([]*report.Report, error) {
	return f.list(func(r *report.Report) bool { return r.IsExternalMaintainer(maintainerID) })
}

func (f *fakeReportRepo) list(match func(*report.Report) bool) ([]*report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*report.Report, 0)
	for _, r := range f.reports {
		if match(r) {
			out = append(out, copyReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReportRepo) ListAudit(_ context.Context, reportID int64) ([]*report.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*report.AuditEntry, 0)
	for _, entry := range f.audits {
		if entry.ReportID == reportID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// --- user directory ---

type fakeUserDirectory struct {
	users map[int64]*user.User
	// activeLoads seeds the pick's non-terminal report count per staff id.
	activeLoads map[int64]int
}

func newFakeUserDirectory(users ...*user.User) *fakeUserDirectory {
	dir := &fakeUserDirectory{users: map[int64]*user.User{}, activeLoads: map[int64]int{}}
	for _, u := range users {
		dir.users[u.ID] = u
	}
	return dir
}

func (f *fakeUserDirectory) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserDirectory) pick(role user.Role, match func(*user.User) bool) (*user.User, error) {
	var best *user.User
	for _, u := range f.users {
		if u.Role != role || !match(u) {
			continue
		}
		if best == nil {
			best = u
			continue
		}
		uLoad, bestLoad := f.activeLoads[u.ID], f.activeLoads[best.ID]
		if uLoad < bestLoad || (uLoad == bestLoad && u.ID < best.ID) {
			best = u
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no %s matched: %w", role, apperr.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

func (f *fakeUserDirectory) PickTechnician(_ context.Context, officeID int64) (*user.User, error) {
	return f.pick(user.RoleTechnician, func(u *user.User) bool { return u.TechnicalOfficeID == officeID })
}

func (f *fakeUserDirectory) PickMaintainer(_ context.Context, companyID int64) (*user.User, error) {
	return f.pick(user.RoleExternalMaintainer, func(u *user.User) bool { return u.CompanyID == companyID })
}

// --- lookup repositories ---

type fakeCategoryRepo struct {
	categories map[int64]*category.Category
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id int64) (*category.Category, error) {
	cat, ok := f.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, apperr.ErrNotFound)
	}
	return cat, nil
}

type fakeCompanyRepo struct {
	companies map[int64]*company.Company
}

func (f *fakeCompanyRepo) GetByID(_ context.Context, id int64) (*company.Company, error) {
	comp, ok := f.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %d: %w", id, apperr.ErrNotFound)
	}
	return comp, nil
}

// --- message repository ---

type markerKey struct {
	userID   int64
	reportID int64
	channel  message.Channel
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   int64
	messages []*message.Message
	markers  map[markerKey]int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1, markers: map[markerKey]int64{}}
}

func (f *fakeMessageRepo) Insert(_ context.Context, m *message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = f.nextID
	f.nextID++
	m.CreatedAt = time.Now()
	cp := *m
	f.messages = append(f.messages, &cp)
	return nil
}

func (f *fakeMessageRepo) ListByChannel(_ context.Context, reportID int64, channel message.Channel) ([]*message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*message.Message, 0)
	for _, m := range f.messages {
		if m.ReportID == reportID && m.Channel == channel {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) LatestMessageID(_ context.Context, reportID int64, channel message.Channel) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest int64
	for _, m := range f.messages {
		if m.ReportID == reportID && m.Channel == channel && m.ID > latest {
			latest = m.ID
		}
	}
	return latest, nil
}

func (f *fakeMessageRepo) UpsertMarker(_ context.Context, userID, reportID int64, channel message.Channel, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := markerKey{userID, reportID, channel}
	if messageID > f.markers[key] {
		f.markers[key] = messageID
	}
	return nil
}

func (f *fakeMessageRepo) GetMarker(_ context.Context, userID, reportID int64, channel message.Channel) (*message.ReadMarker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	position, ok := f.markers[markerKey{userID, reportID, channel}]
	if !ok {
		return nil, fmt.Errorf("read marker: %w", apperr.ErrNotFound)
	}
	marker := &message.ReadMarker{UserID: userID, ReportID: reportID, Channel: channel}
	marker.LastReadMessageID.Int64 = position
	marker.LastReadMessageID.Valid = true
	return marker, nil
}

func (f *fakeMessageRepo) CountUnread(_ context.Context, userID, reportID int64, channel message.Channel) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	position := f.markers[markerKey{userID, reportID, channel}]
	count := 0
	for _, m := range f.messages {
		if m.ReportID == reportID && m.Channel == channel && m.AuthorID != userID && m.ID > position {
			count++
		}
	}
	return count, nil
}

// --- notification repository ---

type fakeNotificationRepo struct {
	mu            sync.Mutex
	nextID        int64
	notifications []*notification.Notification
	failCreate    bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return fmt.Errorf("insert failed: %w", apperr.ErrUnavailable)
	}
	n.ID = f.nextID
	f.nextID++
	n.CreatedAt = time.Now()
	cp := *n
	f.notifications = append(f.notifications, &cp)
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID int64, unreadOnly bool) ([]*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*notification.Notification, 0)
	for _, n := range f.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, recipientID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %d: %w", id, apperr.ErrNotFound)
}

func (f *fakeNotificationRepo) Delete(_ context.Context, recipientID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			f.notifications = append(f.notifications[:i], f.notifications[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification %d: %w", id, apperr.ErrNotFound)
}

func (f *fakeNotificationRepo) PurgeRead(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.notifications[:0]
	var purged int64
	for _, n := range f.notifications {
		if n.IsRead && n.CreatedAt.Before(olderThan) {
			purged++
			continue
		}
		kept = append(kept, n)
	}
	f.notifications = kept
	return purged, nil
}

// --- sink ---

type fakeSink struct {
	mu        sync.Mutex
	delivered []*notification.Notification
	failWith  error
}

func (f *fakeSink) Deliver(_ context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.delivered = append(f.delivered, n)
	return nil
}
