package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/api/option"

	"flockmanager/internal/domain"
)

// DefaultOutageCooldown is how long the provider reports itself unavailable
// after Firebase could not be reached.
const DefaultOutageCooldown = 30 * time.Second

// FirebaseConfig selects the Firebase project used for email-link sign in.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	// OutageCooldown overrides DefaultOutageCooldown when positive.
	OutageCooldown time.Duration
}

// authClient is the subset of *auth.Client the provider needs.
type authClient interface {
	EmailSignInLink(ctx context.Context, email string, settings *auth.ActionCodeSettings) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type firebaseProvider struct {
	client   authClient
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	downUntil time.Time
	downCause string
}

func newFirebaseProvider(client authClient, cooldown time.Duration, logger *slog.Logger) *firebaseProvider {
	if cooldown <= 0 {
		cooldown = DefaultOutageCooldown
	}
	return &firebaseProvider{client: client, cooldown: cooldown, logger: logger, now: time.Now}
}

// NewProvider returns a Firebase-backed identity provider. When the project
// is not configured or the SDK cannot be initialised it returns a provider
// that always reports itself unavailable, so callers can fall back.
func NewProvider(ctx context.Context, cfg FirebaseConfig, logger *slog.Logger) domain.IdentityProvider {
	if cfg.ProjectID == "" {
		logger.Warn("identity provider not configured", "reason", "FIREBASE_PROJECT_ID is empty")
		return NewUnavailableProvider("identity provider not configured")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		logger.Error("firebase init failed", "error", err)
		return NewUnavailableProvider("identity provider failed to initialise")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		logger.Error("firebase auth client init failed", "error", err)
		return NewUnavailableProvider("identity provider failed to initialise")
	}
	logger.Info("identity provider ready", "project_id", cfg.ProjectID)
	return newFirebaseProvider(client, cfg.OutageCooldown, logger)
}

// Status reports Unavailable for the cooldown window that follows a failure
// to reach Firebase.
func (p *firebaseProvider) Status(context.Context) domain.ProviderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.now().Before(p.downUntil) {
		return domain.ProviderUnavailable("identity provider unreachable: " + p.downCause)
	}
	return domain.ProviderAvailable()
}

func (p *firebaseProvider) markDown(err error) {
	p.mu.Lock()
	p.downUntil = p.now().Add(p.cooldown)
	p.downCause = err.Error()
	p.mu.Unlock()
	p.logger.Warn("identity provider unreachable", "error", err, "cooldown", p.cooldown)
}

func (p *firebaseProvider) markUp() {
	p.mu.Lock()
	p.downUntil = time.Time{}
	p.downCause = ""
	p.mu.Unlock()
}

// unreachable reports whether err means Firebase itself could not serve the
// call, as opposed to rejecting its input. Errors without an HTTP response
// never reached the API.
func unreachable(err error) bool {
	return errorutils.IsUnavailable(err) ||
		errorutils.IsDeadlineExceeded(err) ||
		errorutils.IsInternal(err) ||
		auth.IsCertificateFetchFailed(err) ||
		errorutils.HTTPResponse(err) == nil
}

func (p *firebaseProvider) SignInLink(ctx context.Context, email, continueURL string) (string, error) {
	link, err := p.client.EmailSignInLink(ctx, email, &auth.ActionCodeSettings{
		URL:             continueURL,
		HandleCodeInApp: false,
	})
	if err != nil {
		if unreachable(err) {
			p.markDown(err)
			return "", fmt.Errorf("%w: generate sign-in link: %w", domain.ErrUnavailable, err)
		}
		return "", fmt.Errorf("generate sign-in link: %w", err)
	}
	p.markUp()
	return link, nil
}

func (p *firebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	tok, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		// The auth predicates type-assert, so err is passed unwrapped.
		if auth.IsIDTokenInvalid(err) || auth.IsTenantIDMismatch(err) {
			return "", fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
		}
		p.markDown(err)
		return "", fmt.Errorf("%w: verify id token: %w", domain.ErrUnavailable, err)
	}
	p.markUp()
	email, _ := tok.Claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: id token has no email claim", domain.ErrInvalidCredential)
	}
	return email, nil
}

// unavailableProvider stands in when no identity provider can be used.
type unavailableProvider struct {
	reason string
}

// NewUnavailableProvider returns a provider that reports Unavailable with
// reason and fails every call.
func NewUnavailableProvider(reason string) domain.IdentityProvider {
	return &unavailableProvider{reason: reason}
}

func (p *unavailableProvider) Status(context.Context) domain.ProviderStatus {
	return domain.ProviderUnavailable(p.reason)
}

func (p *unavailableProvider) SignInLink(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: %s", domain.ErrUnavailable, p.reason)
}

func (p *unavailableProvider) VerifyIDToken(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: %s", domain.ErrUnavailable, p.reason)
}

