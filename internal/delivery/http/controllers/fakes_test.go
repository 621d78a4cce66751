package controllers

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"flockmanager/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeCheckInService implements domain.CheckInService for handler tests.
type fakeCheckInService struct {
	mu sync.Mutex

	checkInResult *domain.CheckInResult
	checkInErr    error
	lastCheckIn   domain.CheckInRequest

	ticket        *domain.CheckInTicket
	ticketErr     error
	lastTicketID  string
	lastTTLHours  *float64
	ticketCalls   int
	attendance    []*domain.AttendanceEntry
	total         int
	event         *domain.Event
	attendanceErr error
	lastParams    domain.PaginationParams
}

func (f *fakeCheckInService) CheckIn(_ context.Context, req domain.CheckInRequest) (*domain.CheckInResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCheckIn = req
	return f.checkInResult, f.checkInErr
}

func (f *fakeCheckInService) IssueTicket(_ context.Context, eventID string, ttlHours *float64) (*domain.CheckInTicket, error) {
	f.ticketCalls++
	f.lastTicketID = eventID
	f.lastTTLHours = ttlHours
	return f.ticket, f.ticketErr
}

func (f *fakeCheckInService) ListAttendance(_ context.Context, _ string, params domain.PaginationParams) (*domain.AttendancePage, error) {
	f.lastParams = params
	if f.attendanceErr != nil {
		return nil, f.attendanceErr
	}
	return &domain.AttendancePage{
		Items:   f.attendance,
		Summary: domain.AttendanceSummary{Event: f.event, Total: f.total},
	}, nil
}

// fakeQR implements domain.QRCodeRenderer.
type fakeQR struct {
	err         error
	lastContent string
}

func (f *fakeQR) PNG(content string) ([]byte, error) {
	f.lastContent = content
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG"), nil
}

func (f *fakeQR) DataURL(content string) (string, error) {
	f.lastContent = content
	if f.err != nil {
		return "", f.err
	}
	return "data:image/png;base64,AAAA", nil
}

// fakeAuthService implements domain.AuthService.
type fakeAuthService struct {
	requestErr   error
	lastEmail    string
	verifyResult *domain.LoginResult
	verifyErr    error
	lastVerify   domain.VerifyLoginRequest
	member       *domain.Member
	memberErr    error
	lastMemberID int64
}

func (f *fakeAuthService) RequestLogin(_ context.Context, email string) error {
	f.lastEmail = email
	return f.requestErr
}

func (f *fakeAuthService) VerifyLogin(_ context.Context, req domain.VerifyLoginRequest) (*domain.LoginResult, error) {
	f.lastVerify = req
	return f.verifyResult, f.verifyErr
}

func (f *fakeAuthService) CurrentMember(_ context.Context, memberID int64) (*domain.Member, error) {
	f.lastMemberID = memberID
	return f.member, f.memberErr
}
