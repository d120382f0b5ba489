package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/middleware"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

// Email domains accepted by the OAuth flow and their role mapping.
const (
	studentDomain = "kkumail.com"
	staffDomain   = "kku.ac.th"
)

var (
	// ErrInvalidCredentials indicates a missing user or a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoPasswordSet indicates an OAuth-only account attempted a password login.
	ErrNoPasswordSet = errors.New("no password set for this account")
	// ErrDomainNotAllowed indicates an OAuth identity outside the accepted domains.
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	// ErrEmailTaken indicates a registration against an existing address.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidStudentID indicates an ID that is not 10 digits after normalisation.
	ErrInvalidStudentID = errors.New("student id must be exactly 10 digits")
	// ErrOAuthNotConfigured indicates the Google client is not set up.
	ErrOAuthNotConfigured = errors.New("oauth is not configured")
)

// IdentityVerifier abstracts the OIDC token exchange so tests can stub it.
type IdentityVerifier interface {
	AuthURL(state string) string
	Verify(ctx context.Context, code string) (email, firstName, lastName string, err error)
}

// AuthService handles credential and OAuth logins.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.SessionResponse, error)
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.SessionResponse, error)
	OAuthRedirect(state string) (dto.OAuthRedirectResponse, error)
	OAuthCallback(ctx context.Context, code string) (dto.SessionResponse, error)
}

type authService struct {
	users     repository.UserRepository
	verifier  IdentityVerifier
	validator *validator.Validate
	secret    string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance. The verifier may be nil
// when OAuth is not configured.
func NewAuthService(users repository.UserRepository, verifier IdentityVerifier, validate *validator.Validate, secret string, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		verifier:  verifier,
		validator: validate,
		secret:    secret,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrInvalidCredentials
		}
		return dto.SessionResponse{}, err
	}

	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return dto.SessionResponse{}, ErrNoPasswordSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.SessionResponse{}, ErrInvalidCredentials
	}

	return s.issueSession(user)
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	if emailDomain(payload.Email) != studentDomain {
		return dto.SessionResponse{}, ErrDomainNotAllowed
	}

	studentID, ok := models.NormalizeStudentID(payload.StudentID)
	if !ok {
		return dto.SessionResponse{}, ErrInvalidStudentID
	}

	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		return dto.SessionResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SessionResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.SessionResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}
	hashString := string(hash)

	user := models.User{
		StudentID:    &studentID,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		PasswordHash: &hashString,
		Track:        strings.TrimSpace(payload.Track),
		Roles:        []string{models.RoleStudent},
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("student registered")

	return s.issueSession(user)
}

func (s *authService) OAuthRedirect(state string) (dto.OAuthRedirectResponse, error) {
	if s.verifier == nil {
		return dto.OAuthRedirectResponse{}, ErrOAuthNotConfigured
	}

	return dto.OAuthRedirectResponse{
		URL:   s.verifier.AuthURL(state),
		State: state,
	}, nil
}

func (s *authService) OAuthCallback(ctx context.Context, code string) (dto.SessionResponse, error) {
	if s.verifier == nil {
		return dto.SessionResponse{}, ErrOAuthNotConfigured
	}

	email, firstName, lastName, err := s.verifier.Verify(ctx, code)
	if err != nil {
		return dto.SessionResponse{}, fmt.Errorf("oauth verification failed: %w", err)
	}

	var role string
	switch emailDomain(email) {
	case studentDomain:
		role = models.RoleStudent
	case staffDomain:
		role = models.RoleStaff
	default:
		return dto.SessionResponse{}, ErrDomainNotAllowed
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			FirstName: firstName,
			LastName:  lastName,
			Email:     strings.ToLower(strings.TrimSpace(email)),
			Roles:     []string{role},
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return dto.SessionResponse{}, err
		}
		s.logger.Info().Uint("user_id", user.ID).Str("role", role).Msg("user created from oauth login")
	} else if err != nil {
		return dto.SessionResponse{}, err
	}

	return s.issueSession(user)
}

func (s *authService) issueSession(user models.User) (dto.SessionResponse, error) {
	token, err := middleware.IssueSessionToken(s.secret, middleware.SessionClaims{
		UserID:   user.ID,
		Roles:    user.Roles,
		LastName: user.LastName,
	}, s.now())
	if err != nil {
		return dto.SessionResponse{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return dto.SessionResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}, nil
}

func emailDomain(email string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(email)), "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// GoogleVerifier implements IdentityVerifier against Google's OIDC endpoints.
type GoogleVerifier struct {
	oauth2   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier performs OIDC discovery and builds a verifier.
func NewGoogleVerifier(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to create oidc provider: %w", err)
	}

	return &GoogleVerifier{
		oauth2: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthURL returns the provider consent URL for the given state.
func (g *GoogleVerifier) AuthURL(state string) string {
	return g.oauth2.AuthCodeURL(state)
}

// Verify exchanges the authorization code and extracts the identity claims.
func (g *GoogleVerifier) Verify(ctx context.Context, code string) (string, string, string, error) {
	token, err := g.oauth2.Exchange(ctx, code)
	if err != nil {
		return "", "", "", fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return "", "", "", errors.New("no id_token in token response")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", "", "", fmt.Errorf("id token verification failed: %w", err)
	}

	var claims struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", "", "", fmt.Errorf("failed to parse id token claims: %w", err)
	}

	return claims.Email, claims.GivenName, claims.FamilyName, nil
}
