package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"flockmanager/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMemberRepo is an in-memory MemberRepository for tests.
type fakeMemberRepo struct {
	members []*domain.Member
	err     error
}

func (f *fakeMemberRepo) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMemberRepo) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.members {
		if strings.EqualFold(m.Email, email) {
			return m, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMemberRepo) ListByNormalizedName(ctx context.Context, name string, limit int) ([]*domain.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Member
	for _, m := range f.members {
		if strings.EqualFold(strings.Join(strings.Fields(m.Name), " "), name) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	events map[int64]*domain.Event
	err    error
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	ev, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

// fakeAttendanceRepo enforces (member_id, event_id) uniqueness on Create the
// way the database constraint does.
type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records []*domain.Attendance
	nextID  int64
	// beforeExists, when set, runs at the start of every Exists call.
	beforeExists func()
	existsErr    error
	createErr    error
}

func (f *fakeAttendanceRepo) Exists(ctx context.Context, memberID, eventID int64) (bool, error) {
	if f.beforeExists != nil {
		f.beforeExists()
	}
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.MemberID == memberID && r.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, a *domain.Attendance) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.MemberID == a.MemberID && r.EventID == a.EventID {
			return domain.ErrAlreadyCheckedIn
		}
	}
	f.nextID++
	a.ID = f.nextID
	a.CheckInTime = time.Now()
	f.records = append(f.records, a)
	return nil
}

func (f *fakeAttendanceRepo) ListByEvent(ctx context.Context, eventID int64, params domain.PaginationParams) (*domain.AttendancePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &domain.AttendancePage{}
	var all []*domain.AttendanceEntry
	for _, r := range f.records {
		if r.EventID != eventID {
			continue
		}
		all = append(all, &domain.AttendanceEntry{Attendance: *r})
		at := r.CheckInTime
		if page.Summary.FirstCheckIn == nil || at.Before(*page.Summary.FirstCheckIn) {
			page.Summary.FirstCheckIn = &at
		}
		if page.Summary.LastCheckIn == nil || at.After(*page.Summary.LastCheckIn) {
			page.Summary.LastCheckIn = &at
		}
	}
	start, end := params.Window(len(all))
	page.Items = all[start:end]
	page.Summary.Total = len(all)
	return page, nil
}

func (f *fakeAttendanceRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeEmailService records what would have been sent.
type fakeEmailService struct {
	mu           sync.Mutex
	magicLinks   []*domain.MagicLinkEmailData
	confirmation []*domain.CheckInConfirmationEmailData
	err          error
}

func (f *fakeEmailService) SendMagicLink(ctx context.Context, data *domain.MagicLinkEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.magicLinks = append(f.magicLinks, data)
	return f.err
}

func (f *fakeEmailService) SendCheckInConfirmation(ctx context.Context, data *domain.CheckInConfirmationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmation = append(f.confirmation, data)
	return f.err
}

func (f *fakeEmailService) sentMagicLinks() []*domain.MagicLinkEmailData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.MagicLinkEmailData(nil), f.magicLinks...)
}

func (f *fakeEmailService) sentConfirmations() []*domain.CheckInConfirmationEmailData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.CheckInConfirmationEmailData(nil), f.confirmation...)
}

type fakeProvider struct {
	status    domain.ProviderStatus
	link      string
	linkErr   error
	email     string
	verifyErr error
	linkCalls int
}

func (f *fakeProvider) Status(context.Context) domain.ProviderStatus { return f.status }

func (f *fakeProvider) SignInLink(ctx context.Context, email, continueURL string) (string, error) {
	f.linkCalls++
	return f.link, f.linkErr
}

func (f *fakeProvider) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	return f.email, f.verifyErr
}

type fakeSessionIssuer struct {
	n int
}

func (f *fakeSessionIssuer) Issue(member *domain.Member) (string, error) {
	f.n++
	return "session-" + strings.Repeat("x", f.n), nil
}
