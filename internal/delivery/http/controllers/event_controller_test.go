package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockmanager/internal/delivery/http/helpers"
	"flockmanager/internal/delivery/http/middleware"
	"flockmanager/internal/domain"
)

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func checkInRequest(t *testing.T, eventID string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/checkin", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", eventID)
	return req
}

func TestEventController_CheckIn_Success(t *testing.T) {
	svc := &fakeCheckInService{checkInResult: &domain.CheckInResult{
		CheckIn: &domain.Attendance{ID: 1, MemberID: 7, EventID: 42},
		Member:  domain.MemberIdentity{ID: 7, Name: "Jane Doe"},
	}}
	c := NewEventController(testLogger, svc, &fakeQR{}, false)
	rr := httptest.NewRecorder()

	c.CheckIn(rr, checkInRequest(t, "42", CheckInRequest{Name: "Jane Doe", UOID: "951", QRCodeToken: "tok"}))

	require.Equal(t, http.StatusCreated, rr.Code)
	envelope := decodeEnvelope(t, rr)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Check-in successful", envelope.Message)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	member := data["member"].(map[string]any)
	assert.Equal(t, "Jane Doe", member["name"])
	assert.NotContains(t, member, "email")

	assert.Equal(t, domain.CheckInRequest{EventID: "42", Name: "Jane Doe", SecondaryID: "951", Token: "tok"}, svc.lastCheckIn)
}

func TestEventController_CheckIn_TokenFromQueryAndActor(t *testing.T) {
	svc := &fakeCheckInService{checkInResult: &domain.CheckInResult{CheckIn: &domain.Attendance{}}}
	c := NewEventController(testLogger, svc, &fakeQR{}, false)
	req := checkInRequest(t, "42", CheckInRequest{MemberID: 9})
	req.URL.RawQuery = "token=from-query"
	req = req.WithContext(middleware.SetMemberID(req.Context(), "3"))
	rr := httptest.NewRecorder()

	c.CheckIn(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, int64(9), svc.lastCheckIn.MemberID)
	assert.Equal(t, "from-query", svc.lastCheckIn.Token)
	assert.Equal(t, "3", svc.lastCheckIn.ActorID)
}

func TestEventController_CheckIn_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		production  bool
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"validation message passes through", domain.NewValidationError("Name is required"), false,
			http.StatusBadRequest, helpers.ErrCodeBadRequest, "Name is required"},
		{"expired token", domain.ErrTokenExpired, false,
			http.StatusBadRequest, helpers.ErrCodeBadRequest, msgInvalidCheckInToken},
		{"forged token looks the same", domain.ErrTokenSignature, false,
			http.StatusBadRequest, helpers.ErrCodeBadRequest, msgInvalidCheckInToken},
		{"wrong event", domain.ErrTokenWrongEvent, false,
			http.StatusBadRequest, helpers.ErrCodeBadRequest, msgInvalidCheckInToken},
		{"event not found", domain.ErrEventNotFound, false,
			http.StatusNotFound, helpers.ErrCodeNotFound, msgEventNotFound},
		{"member not found", domain.ErrMemberNotFound, false,
			http.StatusNotFound, helpers.ErrCodeNotFound, msgMemberNotFound},
		{"duplicate", domain.ErrAlreadyCheckedIn, false,
			http.StatusConflict, helpers.ErrCodeConflict, msgAlreadyCheckedIn},
		{"direct path without session", domain.ErrUnauthorized, false,
			http.StatusUnauthorized, helpers.ErrCodeUnauthorized, msgAuthRequired},
		{"storage down", fmt.Errorf("%w: dial tcp", domain.ErrUnavailable), false,
			http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, msgStorageUnavailable},
		{"unexpected in development shows detail", errors.New("boom"), false,
			http.StatusInternalServerError, helpers.ErrCodeInternalError, "boom"},
		{"unexpected in production is generic", errors.New("boom"), true,
			http.StatusInternalServerError, helpers.ErrCodeInternalError, msgCheckInFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, &fakeCheckInService{checkInErr: tt.err}, &fakeQR{}, tt.production)
			rr := httptest.NewRecorder()

			c.CheckIn(rr, checkInRequest(t, "42", CheckInRequest{Name: "x", QRCodeToken: "t"}))

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			assert.False(t, envelope.Success)
			assert.Equal(t, tt.wantCode, envelope.Code)
			assert.Equal(t, tt.wantMessage, envelope.Message)
		})
	}
}

func TestEventController_CheckIn_BadBody(t *testing.T) {
	svc := &fakeCheckInService{}
	c := NewEventController(testLogger, svc, &fakeQR{}, false)

	for name, body := range map[string]string{
		"not json":          "{",
		"unknown field":     `{"nickname":"x"}`,
		"member id as text": `{"member_id":"abc"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/events/42/checkin", bytes.NewBufferString(body))
			req.SetPathValue("id", "42")
			rr := httptest.NewRecorder()
			c.CheckIn(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
	assert.Empty(t, svc.lastCheckIn.EventID, "service must not be called")
}

func testTicket() *domain.CheckInTicket {
	return &domain.CheckInTicket{
		EventID:          42,
		Token:            "tok",
		CheckInURL:       "http://localhost:3000/checkin/42?token=tok&eventId=42",
		ExpiresAt:        time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		ExpiresInSeconds: 86400,
	}
}

func TestEventController_QRCode(t *testing.T) {
	svc := &fakeCheckInService{ticket: testTicket()}
	qr := &fakeQR{}
	c := NewEventController(testLogger, svc, qr, false)
	req := httptest.NewRequest(http.MethodGet, "/events/42/qrcode?expiration_hours=1.5", nil)
	req.SetPathValue("id", "42")
	rr := httptest.NewRecorder()

	c.QRCode(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.lastTTLHours)
	assert.Equal(t, 1.5, *svc.lastTTLHours)
	assert.Equal(t, "42", svc.lastTicketID)
	assert.Equal(t, testTicket().CheckInURL, qr.lastContent)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "data:image/png;base64,AAAA", body.Data["qr_code"])
	assert.Equal(t, "tok", body.Data["token"])
	assert.Equal(t, testTicket().CheckInURL, body.Data["check_in_url"])
	assert.EqualValues(t, 42, body.Data["event_id"])
	assert.EqualValues(t, 86400, body.Data["expires_in_seconds"])
}

func TestEventController_QRCode_DefaultAndInvalidHours(t *testing.T) {
	svc := &fakeCheckInService{ticket: testTicket()}
	c := NewEventController(testLogger, svc, &fakeQR{}, false)

	req := httptest.NewRequest(http.MethodGet, "/events/42/qrcode", nil)
	req.SetPathValue("id", "42")
	rr := httptest.NewRecorder()
	c.QRCode(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, svc.lastTTLHours)

	req = httptest.NewRequest(http.MethodGet, "/events/42/qrcode?expiration_hours=soon", nil)
	req.SetPathValue("id", "42")
	rr = httptest.NewRecorder()
	c.QRCode(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid expiration_hours parameter", decodeEnvelope(t, rr).Message)
	assert.Equal(t, 1, svc.ticketCalls)
}

func TestEventController_QRCode_EventNotFound(t *testing.T) {
	c := NewEventController(testLogger, &fakeCheckInService{ticketErr: domain.ErrEventNotFound}, &fakeQR{}, false)
	req := httptest.NewRequest(http.MethodGet, "/events/999/qrcode", nil)
	req.SetPathValue("id", "999")
	rr := httptest.NewRecorder()

	c.QRCode(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, msgEventNotFound, decodeEnvelope(t, rr).Message)
}

func TestEventController_QRCodeImage(t *testing.T) {
	c := NewEventController(testLogger, &fakeCheckInService{ticket: testTicket()}, &fakeQR{}, false)
	req := httptest.NewRequest(http.MethodGet, "/events/42/qrcode/image", nil)
	req.SetPathValue("id", "42")
	rr := httptest.NewRecorder()

	c.QRCodeImage(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="qr-code-event-42.png"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, []byte("\x89PNG"), rr.Body.Bytes())
}

func TestEventController_QRCodeImage_RenderFailure(t *testing.T) {
	c := NewEventController(testLogger, &fakeCheckInService{ticket: testTicket()}, &fakeQR{err: errors.New("too big")}, true)
	req := httptest.NewRequest(http.MethodGet, "/events/42/qrcode/image", nil)
	req.SetPathValue("id", "42")
	rr := httptest.NewRecorder()

	c.QRCodeImage(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to generate QR code", decodeEnvelope(t, rr).Message)
}

func TestEventController_Attendance(t *testing.T) {
	svc := &fakeCheckInService{
		attendance: []*domain.AttendanceEntry{{MemberName: "Jane Doe"}},
		total:      3,
		event:      &domain.Event{ID: 42, Title: "General Meeting"},
	}
	c := NewEventController(testLogger, svc, &fakeQR{}, false)
	req := httptest.NewRequest(http.MethodGet, "/events/42/attendance?page=2&page_size=1", nil)
	req.SetPathValue("id", "42")
	rr := httptest.NewRecorder()

	c.Attendance(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 1}, svc.lastParams)
	var body struct {
		Data AttendanceListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "Jane Doe", body.Data.Items[0].MemberName)
	assert.Equal(t, helpers.PaginationMeta{Page: 2, PageSize: 1, Total: 3, TotalPages: 3}, body.Data.Pagination)
	assert.Equal(t, 3, body.Data.Summary.Total)
	require.NotNil(t, body.Data.Summary.Event)
	assert.Equal(t, "General Meeting", body.Data.Summary.Event.Title)
}

func TestEventController_Attendance_EmptyIsArray(t *testing.T) {
	c := NewEventController(testLogger, &fakeCheckInService{}, &fakeQR{}, false)
	req := httptest.NewRequest(http.MethodGet, "/events/42/attendance", nil)
	req.SetPathValue("id", "42")
	rr := httptest.NewRecorder()

	c.Attendance(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"items":[]`)
}
