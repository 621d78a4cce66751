package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flockmanager/internal/domain"
)

// maxEventIDEcho bounds how much of a rejected event id is echoed back.
const maxEventIDEcho = 20

// CheckInDependencies are the collaborators of the check-in service.
type CheckInDependencies struct {
	Events     domain.EventRepository
	Members    domain.MemberRepository
	Attendance domain.AttendanceRepository
	Codec      domain.CheckInTokenCodec
	Resolver   *IdentityResolver
	Email      domain.EmailService
	Dispatcher *Dispatcher
	Metrics    *Metrics
	Logger     *slog.Logger
	// FrontendURL is the base of the check-in page embedded in QR codes.
	FrontendURL string
}

type checkInService struct {
	events      domain.EventRepository
	members     domain.MemberRepository
	attendance  domain.AttendanceRepository
	codec       domain.CheckInTokenCodec
	resolver    *IdentityResolver
	email       domain.EmailService
	dispatcher  *Dispatcher
	metrics     *Metrics
	logger      *slog.Logger
	frontendURL string
	now         func() time.Time
}

func NewCheckInService(deps CheckInDependencies) domain.CheckInService {
	return &checkInService{
		events:      deps.Events,
		members:     deps.Members,
		attendance:  deps.Attendance,
		codec:       deps.Codec,
		resolver:    deps.Resolver,
		email:       deps.Email,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		frontendURL: strings.TrimRight(deps.FrontendURL, "/"),
		now:         time.Now,
	}
}

// ParseEventID parses a path event id. Only positive base-10 integers are
// accepted. Ids beyond the storage key range report ErrEventNotFound.
func ParseEventID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("Invalid event ID: %s. Please scan the QR code again.", truncateRunes(raw, maxEventIDEcho))
	}
	if id > domain.MaxStoredID {
		return 0, domain.ErrEventNotFound
	}
	return id, nil
}

func (s *checkInService) CheckIn(ctx context.Context, req domain.CheckInRequest) (*domain.CheckInResult, error) {
	res, err := s.checkIn(ctx, req)
	s.metrics.checkIn(checkInOutcome(err))
	return res, err
}

func (s *checkInService) checkIn(ctx context.Context, req domain.CheckInRequest) (*domain.CheckInResult, error) {
	eventID, err := ParseEventID(req.EventID)
	if err != nil {
		return nil, err
	}
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(req.Token)
	var member *domain.Member
	switch {
	case req.MemberID != 0:
		if req.MemberID < 0 {
			return nil, domain.NewValidationError("Invalid member_id")
		}
		if req.ActorID == "" {
			return nil, domain.ErrUnauthorized
		}
		if token != "" {
			if err := s.verifyToken(ctx, token, eventID); err != nil {
				return nil, err
			}
		}
		if req.MemberID > domain.MaxStoredID {
			return nil, domain.ErrMemberNotFound
		}
		member, err = s.members.GetByID(ctx, req.MemberID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		if err != nil {
			return nil, err
		}
	case req.Name != "":
		if clampText(req.Name, domain.MaxNameLength) == "" {
			return nil, domain.NewValidationError("Name is required")
		}
		if token == "" {
			return nil, domain.NewValidationError("QR code token is required. Please scan the QR code again.")
		}
		if err := s.verifyToken(ctx, token, eventID); err != nil {
			return nil, err
		}
		member, err = s.resolver.FindForCheckIn(ctx, req.Name, req.SecondaryID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewValidationError("Either member_id or name is required")
	}

	exists, err := s.attendance.Exists(ctx, member.ID, eventID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyCheckedIn
	}

	record := &domain.Attendance{
		MemberID:    member.ID,
		EventID:     eventID,
		QRCodeToken: clampText(req.Token, domain.MaxStoredTokenLength),
	}
	if err := s.attendance.Create(ctx, record); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "member checked in", "event_id", eventID, "member_id", member.ID, "attendance_id", record.ID)

	s.notifyCheckIn(ctx, member, event)
	return &domain.CheckInResult{CheckIn: record, Member: member.Identity()}, nil
}

func (s *checkInService) verifyToken(ctx context.Context, token string, eventID int64) error {
	if _, err := s.codec.Verify(token, eventID); err != nil {
		s.logger.InfoContext(ctx, "check-in token rejected",
			"event_id", eventID,
			"token", tokenPrefix(token),
			"reason", err,
		)
		return err
	}
	return nil
}

func (s *checkInService) notifyCheckIn(ctx context.Context, member *domain.Member, event *domain.Event) {
	if s.email == nil || s.dispatcher == nil || member.Email == "" {
		return
	}
	data := &domain.CheckInConfirmationEmailData{
		Email:      member.Email,
		Name:       member.Name,
		EventTitle: event.Title,
		EventDate:  event.EventDate.Format("Mon, 02 Jan 2006 15:04 MST"),
		Location:   event.Location,
	}
	s.dispatcher.Go(ctx, "checkin_confirmation", func(ctx context.Context) error {
		return s.email.SendCheckInConfirmation(ctx, data)
	})
}

func (s *checkInService) loadEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *checkInService) IssueTicket(ctx context.Context, rawEventID string, ttlHours *float64) (*domain.CheckInTicket, error) {
	eventID, err := ParseEventID(rawEventID)
	if err != nil {
		return nil, err
	}
	ttl, err := ttlFromHours(ttlHours)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	token, err := s.codec.Issue(eventID, ttl)
	if err != nil {
		return nil, err
	}
	expiresAt, _ := s.codec.ExpirationOf(token)
	remaining := math.Floor(expiresAt.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &domain.CheckInTicket{
		EventID:          eventID,
		Token:            token,
		CheckInURL:       CheckInURL(s.frontendURL, eventID, token),
		ExpiresAt:        expiresAt,
		ExpiresInSeconds: int64(remaining),
	}, nil
}

// CheckInURL builds the attendee-facing check-in page URL for a token.
func CheckInURL(frontendURL string, eventID int64, token string) string {
	return fmt.Sprintf("%s/checkin/%d?token=%s&eventId=%d",
		strings.TrimRight(frontendURL, "/"), eventID, url.QueryEscape(token), eventID)
}

// ttlFromHours converts an optional client lifetime in hours. nil selects the
// codec default.
func ttlFromHours(hours *float64) (time.Duration, error) {
	if hours == nil {
		return 0, nil
	}
	h := *hours
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 || h*float64(time.Hour) >= math.MaxInt64 {
		return 0, domain.NewValidationError("Invalid expiration_hours parameter")
	}
	ttl := time.Duration(h * float64(time.Hour))
	if ttl < time.Second {
		return 0, domain.NewValidationError("Invalid expiration_hours parameter")
	}
	return ttl, nil
}

func (s *checkInService) ListAttendance(ctx context.Context, rawEventID string, params domain.PaginationParams) (*domain.AttendancePage, error) {
	eventID, err := ParseEventID(rawEventID)
	if err != nil {
		return nil, err
	}
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	page, err := s.attendance.ListByEvent(ctx, eventID, params)
	if err != nil {
		return nil, err
	}
	page.Summary.Event = event
	return page, nil
}

func checkInOutcome(err error) string {
	switch {
	case err == nil:
		return checkInSuccess
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		return checkInDuplicate
	case errors.Is(err, domain.ErrInvalidCredential):
		return checkInBadToken
	case errors.Is(err, domain.ErrEventNotFound):
		return checkInNoEvent
	case errors.Is(err, domain.ErrMemberNotFound):
		return checkInNoMember
	case errors.Is(err, domain.ErrUnauthorized):
		return checkInForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		return checkInInvalid
	default:
		return checkInFailed
	}
}
