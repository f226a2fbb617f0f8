// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Handlers only know about HTTP; services only know about business rules;
// repositories only know about SQL. Every service takes its repository as
// an interface, so tests substitute in-memory fakes with no database.
//
// AuthService owns everything identity-related: registration, login,
// password changes, and the reset flow. It sits between the HTTP handlers
// and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//	                   ↘ ResetTokenService, Mailer, Geocoder
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfaisal/fittrack/internal/apperror"
	"github.com/mfaisal/fittrack/internal/auth"
	"github.com/mfaisal/fittrack/internal/geo"
	"github.com/mfaisal/fittrack/internal/mail"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository"
)

const (
	MinPasswordLength = 6
	MaxNameLength     = 100
)

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	resets    *auth.ResetTokenService
	mailer    mail.Mailer
	geocoder  geo.Geocoder
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	resets *auth.ResetTokenService,
	mailer mail.Mailer,
	geocoder geo.Geocoder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		resets:    resets,
		mailer:    mailer,
		geocoder:  geocoder,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput carries the registration form. Address is input-only:
// it is resolved to a Location and then discarded.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Address  string
}

// Register creates an account and logs it in (auto-login: the response
// carries a session token, no separate login round-trip needed).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	// === VALIDATION ===
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(in.Name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if !model.ValidEmail(in.Email) {
		return nil, apperror.ValidationFailed("email", "please provide a valid email address")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	// Admin cannot be self-assigned. Registration accepts user and
	// publisher only; everything else is a 400.
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RolePublisher {
		return nil, apperror.ValidationFailed("role", "role must be user or publisher")
	}

	// === GEOCODING ===
	// The free-text address becomes a structured location. Only the
	// resolved form is stored.
	var location model.Location
	if in.Address != "" {
		loc, err := s.geocoder.Geocode(ctx, in.Address)
		if err != nil {
			return nil, fmt.Errorf("service/auth: geocoding address: %w", err)
		}
		location = loc
	}

	// === HASH + CREATE ===
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         role,
		Location:     location,
		PasswordHash: hash,
	}
	// The repository surfaces a duplicate email as ErrConflict via the
	// UNIQUE constraint — no racy pre-check here.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)

	return s.loginResult(user)
}

// Login authenticates by email and password.
//
// ANTI-ENUMERATION: unknown email and wrong password return the exact
// same error. A caller probing the login endpoint cannot learn which
// addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "please provide an email and password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// NotFound collapses into the same response as a bad password.
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.loginResult(user)
}

// GetUserByID returns the user for the given internal ID. Used by the
// /auth/me handler after the middleware validates the session token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// UpdateDetails changes name and email. Role and password are not
// reachable through this path — they have their own flows.
func (s *AuthService) UpdateDetails(ctx context.Context, userID, name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if !model.ValidEmail(email) {
		return nil, apperror.ValidationFailed("email", "please provide a valid email address")
	}

	return s.users.UpdateDetails(ctx, userID, name, email)
}

// ChangePassword replaces the password for a logged-in user. The current
// password is re-verified even though the session is already
// authenticated — a stolen session alone must not be enough to lock the
// real owner out.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, newPassword string) (*AuthResult, error) {
	if len(newPassword) < MinPasswordLength {
		return nil, apperror.ValidationFailed("newPassword",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
		return nil, apperror.Unauthorized("password is incorrect")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return nil, err
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return s.loginResult(user)
}

// RequestPasswordReset starts the reset flow.
//
// Returns nil for unknown email — same anti-enumeration stance as Login:
// the endpoint always reports "email sent" whether or not an account
// exists. Only the plaintext token goes out in the mail; the database
// holds its sha256.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, resetURLBase string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}

	plain, hash, expiresAt, err := s.resets.Generate()
	if err != nil {
		return fmt.Errorf("service/auth: generating reset token: %w", err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/auth/recover-password/%s", strings.TrimRight(resetURLBase, "/"), plain)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Password reset",
		Body: "You are receiving this email because you (or someone else) requested " +
			"a password reset. Make a PUT request to:\n\n" + resetURL,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		// The stored token is useless if the mail never left. Clear it
		// so the user can retry from a clean slate.
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("failed to clear reset token after mail failure",
				slog.String("userID", user.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return fmt.Errorf("service/auth: sending reset email: %w", err)
	}

	s.logger.Info("password reset email sent", slog.String("userID", user.ID))
	return nil
}

// CompletePasswordReset consumes a reset token and sets a new password.
//
// The lookup key is the sha256 of the presented token, and only rows with
// an unexpired reset window match. The password write and the token clear
// happen in one statement, so the token is single-use: a second attempt
// finds no row and fails the same way as a forged token.
func (s *AuthService) CompletePasswordReset(ctx context.Context, plainToken, newPassword string) (*AuthResult, error) {
	if len(newPassword) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user, err := s.users.GetByResetTokenHash(ctx, s.resets.HashToken(plainToken), s.resets.Now())
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired reset token")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.ResetPassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}

	s.logger.Info("password reset completed", slog.String("userID", user.ID))
	return s.loginResult(user)
}

// loginResult issues a fresh session token for the user.
func (s *AuthService) loginResult(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
