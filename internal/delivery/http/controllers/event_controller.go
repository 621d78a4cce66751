package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	h "flockmanager/internal/delivery/http/helpers"
	"flockmanager/internal/delivery/http/middleware"
	"flockmanager/internal/domain"
)

// CheckInRequest is the request body for POST /events/{id}/checkin. Set
// member_id for a staff check-in, or name and qr_code_token for self-service.
type CheckInRequest struct {
	MemberID    int64  `json:"member_id"`
	Name        string `json:"name"`
	UOID        string `json:"uo_id"`
	QRCodeToken string `json:"qr_code_token"`
}

// QRCodeResponse is the data of GET /events/{id}/qrcode.
type QRCodeResponse struct {
	domain.CheckInTicket
	QRCode string `json:"qr_code"`
}

// AttendanceListResponse is the data of GET /events/{id}/attendance.
type AttendanceListResponse struct {
	Items      []*domain.AttendanceEntry `json:"items"`
	Summary    domain.AttendanceSummary  `json:"summary"`
	Pagination h.PaginationMeta          `json:"pagination"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
	QR      domain.QRCodeRenderer
	errs    errorWriter
}

func NewEventController(logger *slog.Logger, svc domain.CheckInService, qr domain.QRCodeRenderer, production bool) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
		QR:      qr,
		errs:    errorWriter{logger: logger, production: production},
	}
}

// expirationHours reads the optional expiration_hours query parameter.
func expirationHours(r *http.Request) (*float64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("expiration_hours"))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func (c *EventController) issue(w http.ResponseWriter, r *http.Request) (*domain.CheckInTicket, bool) {
	hours, ok := expirationHours(r)
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "Invalid expiration_hours parameter")
		return nil, false
	}
	ticket, err := c.Service.IssueTicket(r.Context(), r.PathValue("id"), hours)
	if err != nil {
		c.errs.checkIn(w, r, err)
		return nil, false
	}
	return ticket, true
}

// QRCode godoc
// @Summary Issue a check-in QR code
// @Description Issues a signed check-in token for the event and returns it with the check-in URL and a PNG data URL encoding that URL.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param expiration_hours query number false "Token lifetime in hours (default 24)"
// @Success 200 {object} helpers.APIResponse "data contains qr_code, token, check_in_url, expires_at"
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Router /events/{id}/qrcode [get]
func (c *EventController) QRCode(w http.ResponseWriter, r *http.Request) {
	ticket, ok := c.issue(w, r)
	if !ok {
		return
	}
	dataURL, err := c.QR.DataURL(ticket.CheckInURL)
	if err != nil {
		c.errs.internal(w, r, err, "Failed to generate QR code")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, "", QRCodeResponse{CheckInTicket: *ticket, QRCode: dataURL})
}

// QRCodeImage godoc
// @Summary Check-in QR code image
// @Description Same as /events/{id}/qrcode but returns the PNG itself.
// @Tags events
// @Produce png
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param expiration_hours query number false "Token lifetime in hours (default 24)"
// @Success 200 {file} binary
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Router /events/{id}/qrcode/image [get]
func (c *EventController) QRCodeImage(w http.ResponseWriter, r *http.Request) {
	ticket, ok := c.issue(w, r)
	if !ok {
		return
	}
	png, err := c.QR.PNG(ticket.CheckInURL)
	if err != nil {
		c.errs.internal(w, r, err, "Failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="qr-code-event-%d.png"`, ticket.EventID))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// CheckIn godoc
// @Summary Check in to an event
// @Description Self-service check-in with name and the scanned QR token, or staff check-in by member_id with a session.
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param body body CheckInRequest true "Check-in"
// @Success 201 {object} helpers.APIResponse "data contains checkIn and member"
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Failure 409 {object} helpers.APIResponse "code: conflict"
// @Failure 503 {object} helpers.APIResponse "code: service_unavailable"
// @Router /events/{id}/checkin [post]
func (c *EventController) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token := req.QRCodeToken
	if strings.TrimSpace(token) == "" {
		token = r.URL.Query().Get("token")
	}
	actor, _ := middleware.MemberIDFromContext(r.Context())
	result, err := c.Service.CheckIn(r.Context(), domain.CheckInRequest{
		EventID:     r.PathValue("id"),
		MemberID:    req.MemberID,
		Name:        req.Name,
		SecondaryID: req.UOID,
		Token:       token,
		ActorID:     actor,
	})
	if err != nil {
		c.errs.checkIn(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, "Check-in successful", result)
}

// Attendance godoc
// @Summary List event attendance
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 50, max 500)"
// @Success 200 {object} helpers.APIResponse "data contains items, summary and pagination"
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 404 {object} helpers.APIResponse "code: not_found"
// @Router /events/{id}/attendance [get]
func (c *EventController) Attendance(w http.ResponseWriter, r *http.Request) {
	params := h.ParsePagination(r)
	page, err := c.Service.ListAttendance(r.Context(), r.PathValue("id"), params)
	if err != nil {
		c.errs.checkIn(w, r, err)
		return
	}
	items := page.Items
	if items == nil {
		items = []*domain.AttendanceEntry{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, "", AttendanceListResponse{
		Items:      items,
		Summary:    page.Summary,
		Pagination: h.NewPaginationMeta(params, page.Summary.Total),
	})
}
