// Package auth implements login, registration, logout, and the local
// authentication check against the FocusBuddy API.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"focusbuddy/internal/api"
	"focusbuddy/internal/credential"
	"focusbuddy/internal/state"
	userdomain "focusbuddy/internal/user/domain"
)

// Sentinel errors for the auth service; the CLI maps them to messages.
var (
	ErrInvalidCredentials     = errors.New("incorrect email or password")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrNotAuthenticated       = errors.New("not authenticated")
)

// Navigator is the routing collaborator: it is told when the user must be
// taken to an unauthenticated view. In the CLI this prints a hint; a UI
// front end would switch screens.
type Navigator interface {
	SignInRequired()
}

// Service owns the consumer-facing auth operations. It writes the
// credential only through login/logout; mid-request refresh and forced
// clearing belong to the api pipeline.
type Service struct {
	client *api.Client
	creds  credential.Store
	state  *state.Store
	nav    Navigator
	log    *slog.Logger
	nowF   func() time.Time
}

// NewService returns a Service with the given dependencies. nav may be nil.
func NewService(client *api.Client, creds credential.Store, st *state.Store, nav Navigator, log *slog.Logger) *Service {
	return &Service{
		client: client,
		creds:  creds,
		state:  st,
		nav:    nav,
		log:    log,
		nowF:   time.Now,
	}
}

// Login exchanges email and password for an access token (the OAuth2
// password grant form shape), persists it, and loads the user snapshot.
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return ErrInvalidCredentials
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := s.client.PostForm(ctx, "/auth/token", form, &payload); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := s.creds.SetToken(ctx, payload.AccessToken); err != nil {
		return err
	}
	s.state.SetAuthenticated(true)
	s.log.InfoContext(ctx, "logged in", "email", email)

	if err := s.FetchUser(ctx); err != nil {
		s.log.WarnContext(ctx, "user snapshot fetch after login failed", "error", err)
	}
	return nil
}

// Register creates an account. The caller logs in separately.
func (s *Service) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{
		"name":     strings.TrimSpace(name),
		"email":    strings.TrimSpace(strings.ToLower(email)),
		"password": password,
	}
	if err := s.client.PostJSON(ctx, "/auth/register", body, nil); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return ErrEmailAlreadyRegistered
		}
		return err
	}
	return nil
}

// Logout tells the server goodbye (best-effort), clears the credential
// and all cached state, and signals the navigator. The end state is fully
// logged out even when the server call fails.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.client.PostJSON(ctx, "/auth/logout", nil, nil); err != nil {
		s.log.WarnContext(ctx, "server logout failed", "error", err)
	}
	if _, err := s.creds.Clear(ctx); err != nil {
		return err
	}
	s.state.Reset()
	if s.nav != nil {
		s.nav.SignInRequired()
	}
	return nil
}

// CheckAuth is a synchronous, local authentication check: a credential is
// present and, when it parses as a JWT, its expiry is in the future. No
// server round-trip happens; a token the server has revoked is caught by
// the pipeline on first use. The result is mirrored into the state store.
func (s *Service) CheckAuth(ctx context.Context) bool {
	token, err := s.creds.Token(ctx)
	authed := err == nil && token != "" && !s.expired(token)
	s.state.SetAuthenticated(authed)
	return authed
}

// expired reports whether a JWT credential carries an exp claim in the
// past. Tokens that do not parse are not treated as expired; presence is
// the baseline check and the server stays the authority.
func (s *Service) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(s.nowF())
}

// FetchUser loads the /users/me snapshot into the state store.
func (s *Service) FetchUser(ctx context.Context) error {
	var u userdomain.User
	if err := s.client.GetJSON(ctx, "/users/me", nil, &u); err != nil {
		return err
	}
	s.state.SetUser(&u)
	return nil
}
