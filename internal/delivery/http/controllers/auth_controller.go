package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	h "flockmanager/internal/delivery/http/helpers"
	"flockmanager/internal/delivery/http/middleware"
	"flockmanager/internal/domain"
)

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	if strings.TrimSpace(l.Email) == "" {
		return []string{"Email is required"}
	}
	return nil
}

// VerifyRequest is the request body for POST /auth/verify. Either IDToken
// (provider path) or Token and Email (development link) must be set.
type VerifyRequest struct {
	IDToken string `json:"idToken"`
	Token   string `json:"token"`
	Email   string `json:"email"`
}

// LoginSuccessResponse documents the data of a successful POST /auth/verify.
type LoginSuccessResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    domain.LoginResult `json:"data"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
	errs    errorWriter
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService, production bool) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
		errs:    errorWriter{logger: logger, production: production},
	}
}

// Login godoc
// @Summary Request a login link
// @Description Sends a sign-in link to the email if it belongs to a member. The response is identical whether or not the email is known.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Member email"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 503 {object} helpers.APIResponse "code: service_unavailable"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.RequestLogin(r.Context(), req.Email); err != nil {
		c.errs.auth(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, domain.LoginRequestedMessage, nil)
}

// Verify godoc
// @Summary Complete a login
// @Description Exchanges a provider ID token, or a development token and email, for a session token. token and email may also be passed as query parameters.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body VerifyRequest false "Credential"
// @Param token query string false "Development login token"
// @Param email query string false "Email the development token was sent to"
// @Success 200 {object} controllers.LoginSuccessResponse
// @Failure 400 {object} helpers.APIResponse "code: bad_request"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "code: service_unavailable"
// @Router /auth/verify [post]
func (c *AuthController) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if r.ContentLength != 0 {
		if !h.DecodeAndValidate(w, r, &req) {
			return
		}
	}
	q := r.URL.Query()
	if req.Token == "" {
		req.Token = q.Get("token")
	}
	if req.Email == "" {
		req.Email = q.Get("email")
	}
	result, err := c.Service.VerifyLogin(r.Context(), domain.VerifyLoginRequest{
		IDToken:  req.IDToken,
		DevToken: req.Token,
		Email:    req.Email,
	})
	if err != nil {
		c.errs.auth(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, "Login successful", result)
}

// Logout godoc
// @Summary Log out
// @Description Sessions are stateless; the client discards its token.
// @Tags auth
// @Produce json
// @Success 200 {object} helpers.APIResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// Me godoc
// @Summary Current member
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the member"
// @Failure 401 {object} helpers.APIResponse "code: unauthorized"
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msgAuthRequired)
		return
	}
	memberID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msgAuthRequired)
		return
	}
	member, err := c.Service.CurrentMember(r.Context(), memberID)
	if err != nil {
		c.errs.auth(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, "", member)
}
