package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"flockmanager/internal/domain"
)

// DefaultDevTokenTTL is the lifetime of a development login token.
const DefaultDevTokenTTL = 15 * time.Minute

const devTokenBytes = 32

// AuthDependencies are the collaborators of the magic-link auth service.
type AuthDependencies struct {
	Members    domain.MemberRepository
	Provider   domain.IdentityProvider
	DevTokens  domain.DevTokenStore
	Sessions   domain.SessionIssuer
	Email      domain.EmailService
	Dispatcher *Dispatcher
	Metrics    *Metrics
	Logger     *slog.Logger

	FrontendURL string
	// Production disables the development token fallback entirely.
	Production     bool
	DevTokenTTL    time.Duration
	ContextTimeout time.Duration
}

type authService struct {
	members        domain.MemberRepository
	provider       domain.IdentityProvider
	devTokens      domain.DevTokenStore
	sessions       domain.SessionIssuer
	email          domain.EmailService
	dispatcher     *Dispatcher
	metrics        *Metrics
	logger         *slog.Logger
	frontendURL    string
	production     bool
	devTokenTTL    time.Duration
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAuthService creates the passwordless login service.
func NewAuthService(deps AuthDependencies) domain.AuthService {
	s := &authService{
		members:        deps.Members,
		provider:       deps.Provider,
		devTokens:      deps.DevTokens,
		sessions:       deps.Sessions,
		email:          deps.Email,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		frontendURL:    strings.TrimRight(deps.FrontendURL, "/"),
		production:     deps.Production,
		devTokenTTL:    deps.DevTokenTTL,
		contextTimeout: deps.ContextTimeout,
		now:            time.Now,
	}
	if s.devTokenTTL <= 0 {
		s.devTokenTTL = DefaultDevTokenTTL
	}
	if s.contextTimeout <= 0 {
		s.contextTimeout = 10 * time.Second
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestLogin sends a login link to a known member. Unknown emails produce
// the same nil result, so callers cannot enumerate accounts.
func (s *authService) RequestLogin(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.NewValidationError("Email is required")
	}
	member, err := s.members.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.InfoContext(ctx, "login requested for unknown email")
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "member lookup failed during login request", "error", err)
		return fmt.Errorf("%w: member lookup", domain.ErrUnavailable)
	}

	link, path := s.issueLink(ctx, email, member)
	s.metrics.loginLink(path)
	if link == "" {
		return nil
	}

	if s.email != nil && s.dispatcher != nil {
		data := &domain.MagicLinkEmailData{
			Email:            email,
			Name:             member.Name,
			Link:             link,
			ExpiresInMinutes: int(s.devTokenTTL / time.Minute),
		}
		s.dispatcher.Go(ctx, "magic_link", func(ctx context.Context) error {
			return s.email.SendMagicLink(ctx, data)
		})
	}
	return nil
}

// issueLink returns the sign-in link and the path that produced it. The
// development fallback is used only outside production and only when the
// provider is unavailable or failed.
func (s *authService) issueLink(ctx context.Context, email string, member *domain.Member) (string, string) {
	status := s.provider.Status(ctx)
	if status.Available {
		pctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
		link, err := s.provider.SignInLink(pctx, email, s.frontendURL+"/verify")
		cancel()
		if err == nil {
			return link, issuedByProvider
		}
		status = domain.ProviderUnavailable(err.Error())
	}

	if s.production || s.devTokens == nil {
		s.logger.ErrorContext(ctx, "identity provider unavailable, no login link issued", "reason", status.Reason)
		return "", issuedNone
	}

	token, err := newDevToken()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate development token", "error", err)
		return "", issuedNone
	}
	rec := domain.DevTokenRecord{
		Email:     email,
		MemberID:  member.ID,
		ExpiresAt: s.now().Add(s.devTokenTTL),
	}
	if err := s.devTokens.Put(ctx, token, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to store development token", "error", err)
		return "", issuedNone
	}
	link := fmt.Sprintf("%s/verify?token=%s&email=%s", s.frontendURL, token, url.QueryEscape(email))
	s.logger.WarnContext(ctx, "identity provider unavailable, issued development login link",
		"reason", status.Reason,
		"token", tokenPrefix(token),
	)
	return link, issuedByDevToken
}

func newDevToken() (string, error) {
	b := make([]byte, devTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *authService) VerifyLogin(ctx context.Context, req domain.VerifyLoginRequest) (*domain.LoginResult, error) {
	devToken := strings.TrimSpace(req.DevToken)
	email := normalizeEmail(req.Email)
	if devToken != "" && email != "" && !s.production && s.devTokens != nil {
		return s.verifyDevToken(ctx, devToken, email)
	}

	idToken := strings.TrimSpace(req.IDToken)
	if idToken == "" {
		return nil, domain.NewValidationError("ID token required")
	}
	pctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	verifiedEmail, err := s.provider.VerifyIDToken(pctx, idToken)
	cancel()
	if err != nil {
		// The provider's own classification wins. Unclassified errors count
		// as an outage only while the provider reports itself unavailable.
		switch {
		case errors.Is(err, domain.ErrUnavailable):
		case errors.Is(err, domain.ErrInvalidCredential), s.provider.Status(ctx).Available:
			s.logger.InfoContext(ctx, "id token rejected", "error", err)
			return nil, domain.ErrInvalidCredential
		}
		s.logger.WarnContext(ctx, "identity provider unavailable during verification", "error", err)
		return nil, fmt.Errorf("%w: identity provider", domain.ErrUnavailable)
	}
	member, err := s.memberByEmail(ctx, verifiedEmail)
	if err != nil {
		return nil, err
	}
	return s.startSession(member)
}

func (s *authService) verifyDevToken(ctx context.Context, token, email string) (*domain.LoginResult, error) {
	rec, err := s.devTokens.Take(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	if rec.Email != email {
		s.logger.WarnContext(ctx, "development token presented with a different email", "token", tokenPrefix(token))
		return nil, domain.ErrInvalidCredential
	}
	if rec.Expired(s.now()) {
		return nil, domain.ErrTokenExpired
	}
	member, err := s.memberByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.metrics.devTokenUsed()
	return s.startSession(member)
}

func (s *authService) memberByEmail(ctx context.Context, email string) (*domain.Member, error) {
	member, err := s.members.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *authService) startSession(member *domain.Member) (*domain.LoginResult, error) {
	token, err := s.sessions.Issue(member)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &domain.LoginResult{Token: token, Member: member}, nil
}

func (s *authService) CurrentMember(ctx context.Context, memberID int64) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}
