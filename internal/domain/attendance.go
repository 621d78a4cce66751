package domain

import (
	"context"
	"time"
)

// MaxStoredTokenLength is the width of attendance.qr_code_token.
const MaxStoredTokenLength = 500

// Attendance is one member's check-in to one event. (member_id, event_id) is
// unique in storage.
// swagger:model Attendance
type Attendance struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	EventID     int64     `json:"event_id"`
	QRCodeToken string    `json:"qr_code_token,omitempty"`
	CheckInTime time.Time `json:"check_in_time"`
}

// AttendanceEntry is an attendance row joined with the member it belongs to.
type AttendanceEntry struct {
	Attendance
	MemberName  string `json:"member_name"`
	MemberEmail string `json:"member_email"`
}

// AttendanceSummary describes an event's attendance as a whole. The check-in
// times are nil while nobody has checked in.
// swagger:model AttendanceSummary
type AttendanceSummary struct {
	Event        *Event     `json:"event,omitempty"`
	Total        int        `json:"total"`
	FirstCheckIn *time.Time `json:"first_check_in,omitempty"`
	LastCheckIn  *time.Time `json:"last_check_in,omitempty"`
}

// AttendancePage is one page of an event's attendance plus its summary.
type AttendancePage struct {
	Items   []*AttendanceEntry
	Summary AttendanceSummary
}

// AttendanceRepository defines storage operations for attendance records.
type AttendanceRepository interface {
	Exists(ctx context.Context, memberID, eventID int64) (bool, error)
	// Create inserts the record and fills ID and CheckInTime. It returns
	// ErrAlreadyCheckedIn when the unique constraint rejects the row.
	Create(ctx context.Context, a *Attendance) error
	// ListByEvent returns one page of the event's attendance, oldest first,
	// summarized over all of its records. Summary.Event is left nil.
	ListByEvent(ctx context.Context, eventID int64, params PaginationParams) (*AttendancePage, error)
}

// CheckInRequest is a check-in submission as received from the client.
// Exactly one of MemberID (direct) or Name (self-service) selects the path.
type CheckInRequest struct {
	EventID     string
	MemberID    int64
	Name        string
	SecondaryID string
	Token       string
	// ActorID is the authenticated session subject, empty for anonymous
	// kiosk submissions.
	ActorID string
}

// CheckInResult is returned on a successful check-in.
type CheckInResult struct {
	CheckIn *Attendance    `json:"checkIn"`
	Member  MemberIdentity `json:"member"`
}

// CheckInTicket is a freshly issued check-in credential plus the URL it is
// embedded in.
type CheckInTicket struct {
	EventID          int64     `json:"event_id"`
	Token            string    `json:"token"`
	CheckInURL       string    `json:"check_in_url"`
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresInSeconds int64     `json:"expires_in_seconds"`
}

// CheckInService runs the event check-in flow.
type CheckInService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error)
	// IssueTicket issues a check-in credential for the event. A nil ttlHours
	// selects the default lifetime.
	IssueTicket(ctx context.Context, eventID string, ttlHours *float64) (*CheckInTicket, error)
	ListAttendance(ctx context.Context, eventID string, params PaginationParams) (*AttendancePage, error)
}

// QRCodeRenderer turns a URL into a scannable image.
type QRCodeRenderer interface {
	PNG(content string) ([]byte, error)
	DataURL(content string) (string, error)
}
