package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssi-studios/auth-service/internal/model"
	"github.com/ssi-studios/auth-service/internal/token"
	"github.com/ssi-studios/auth-service/pkg/apierror"
)

const (
	bcryptCost       = 12
	maxLoginFailures = 5
	lockoutDuration  = 2 * time.Hour
)

// UserStore is the standard-account persistence surface the orchestrator
// needs. Implemented by repository.UserRepository.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (model.Account, error)
	ExistsByEmailOrUsername(ctx context.Context, email string, username string) (bool, error)
	Create(ctx context.Context, u model.Account) error
	RegisterFailedAttempt(ctx context.Context, userID string, maxAttempts int, lockUntil time.Time, now time.Time) (int, *time.Time, error)
	ResetFailedAttempts(ctx context.Context, userID string) error
	SetRemember(ctx context.Context, userID string, remember bool) error
}

type AdminStore interface {
	FindByID(ctx context.Context, id string) (model.AdminAccount, error)
	FindByUsername(ctx context.Context, username string) (model.AdminAccount, error)
}

type SessionStore interface {
	Add(ctx context.Context, s model.Session) error
	TouchByDevice(ctx context.Context, userID string, device string) error
	Remove(ctx context.Context, userID string, sessionID string) error
	RemoveAll(ctx context.Context, userID string) error
	ListActive(ctx context.Context, userID string) ([]model.Session, error)
}

type AuthService struct {
	users    UserStore
	admins   AdminStore
	sessions SessionStore
	codec    *token.Codec
	now      func() time.Time
}

func NewAuthService(users UserStore, admins AdminStore, sessions SessionStore, codec *token.Codec) *AuthService {
	return &AuthService{
		users:    users,
		admins:   admins,
		sessions: sessions,
		codec:    codec,
		now:      time.Now,
	}
}

// ClientInfo describes the requesting device for session records.
type ClientInfo struct {
	Device    string
	IPAddress string
}

// LoginResult carries everything the transport layer needs: the sanitized
// user, both tokens and the remember-me flag driving cookie max-ages.
type LoginResult struct {
	User         model.PublicUser
	AccessToken  string
	RefreshToken string
	Extended     bool
}

func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest, client ClientInfo) (LoginResult, error) {
	if violations := validateSignup(req); len(violations) > 0 {
		return LoginResult{}, apierror.NewValidation(violations)
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		return LoginResult{}, err
	}
	if exists {
		return LoginResult{}, errAccountConflict()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return LoginResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := model.Account{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		TokenVersion: 0,
		RememberMe:   req.Remember,
		Preferences:  model.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, account); err != nil {
		// A concurrent signup can slip past the existence pre-check; the
		// unique index catches it and the outcome stays a conflict.
		if errors.Is(err, model.ErrAccountExists) {
			return LoginResult{}, errAccountConflict()
		}
		return LoginResult{}, err
	}

	return s.openStandardSession(ctx, account, req.Remember, client)
}

func errAccountConflict() *apierror.APIError {
	return apierror.New("CONFLICT", "an account with this email or username already exists", "", http.StatusConflict)
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, client ClientInfo) (LoginResult, error) {
	identifier := strings.TrimSpace(req.Identifier)
	password := req.Password
	hint := strings.ToLower(strings.TrimSpace(req.ClassHint))
	if violations := validateLogin(identifier, password, hint); len(violations) > 0 {
		return LoginResult{}, apierror.NewValidation(violations)
	}

	if hint == "" || hint == string(model.ClassStandard) {
		account, err := s.users.FindByIdentifier(ctx, identifier)
		switch {
		case err == nil:
			// A standard match suppresses the elevated lookup even when
			// the secret is wrong.
			return s.loginStandard(ctx, account, password, req.Remember, client)
		case !errors.Is(err, model.ErrAccountNotFound):
			return LoginResult{}, err
		}
		if hint == string(model.ClassStandard) {
			return LoginResult{}, model.ErrInvalidCredentials
		}
	}

	admin, err := s.admins.FindByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return LoginResult{}, model.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	return s.loginElevated(ctx, admin, password, req.Remember)
}

func (s *AuthService) loginStandard(ctx context.Context, account model.Account, password string, remember bool, client ClientInfo) (LoginResult, error) {
	now := s.now().UTC()
	if account.LockedUntil != nil && account.LockedUntil.After(now) {
		return LoginResult{}, model.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		if _, _, regErr := s.users.RegisterFailedAttempt(ctx, account.ID, maxLoginFailures, now.Add(lockoutDuration), now); regErr != nil {
			return LoginResult{}, regErr
		}
		return LoginResult{}, model.ErrInvalidCredentials
	}

	if err := s.users.ResetFailedAttempts(ctx, account.ID); err != nil {
		return LoginResult{}, err
	}
	if account.RememberMe != remember {
		if err := s.users.SetRemember(ctx, account.ID, remember); err != nil {
			return LoginResult{}, err
		}
	}

	return s.openStandardSession(ctx, account, remember, client)
}

func (s *AuthService) loginElevated(ctx context.Context, admin model.AdminAccount, password string, remember bool) (LoginResult, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, model.ErrInvalidCredentials
	}

	access, err := s.codec.IssueAccessToken(model.AccessClaims{
		UserID:   admin.ID,
		Username: admin.Username,
		Elevated: true,
		Class:    model.ClassElevated,
	}, remember)
	if err != nil {
		return LoginResult{}, err
	}

	refresh, err := s.codec.IssueRefreshToken(model.RefreshClaims{
		UserID: admin.ID,
		Class:  model.ClassElevated,
	}, remember)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		User:         admin.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
		Extended:     remember,
	}, nil
}

// openStandardSession records a device session and issues both tokens.
// The session expiry mirrors the access validity window, which never
// exceeds the refresh validity for the same remember-me setting.
func (s *AuthService) openStandardSession(ctx context.Context, account model.Account, remember bool, client ClientInfo) (LoginResult, error) {
	sessionID, err := randomToken(32)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC()
	session := model.Session{
		ID:           sessionID,
		UserID:       account.ID,
		Device:       client.Device,
		IPAddress:    client.IPAddress,
		LastActivity: now,
		ExpiresAt:    now.Add(token.AccessValidity(remember)),
		CreatedAt:    now,
	}
	if err := s.sessions.Add(ctx, session); err != nil {
		return LoginResult{}, err
	}

	access, err := s.codec.IssueAccessToken(model.AccessClaims{
		UserID:   account.ID,
		Username: account.Username,
		Email:    account.Email,
		Class:    model.ClassStandard,
	}, remember)
	if err != nil {
		return LoginResult{}, err
	}

	refresh, err := s.codec.IssueRefreshToken(model.RefreshClaims{
		UserID:       account.ID,
		Class:        model.ClassStandard,
		TokenVersion: account.TokenVersion,
	}, remember)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		User:         account.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
		Extended:     remember,
	}, nil
}

// RefreshResult carries the new access token and the remember-me setting
// that drives its cookie max-age.
type RefreshResult struct {
	AccessToken string
	Extended    bool
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated; revocation happens through the
// token-version counter alone.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (RefreshResult, error) {
	claims, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return RefreshResult{}, model.ErrInvalidToken
	}

	if claims.Class == model.ClassElevated {
		admin, err := s.admins.FindByID(ctx, claims.UserID)
		if err != nil {
			return RefreshResult{}, err
		}
		access, err := s.codec.IssueAccessToken(model.AccessClaims{
			UserID:   admin.ID,
			Username: admin.Username,
			Elevated: true,
			Class:    model.ClassElevated,
		}, false)
		if err != nil {
			return RefreshResult{}, err
		}
		return RefreshResult{AccessToken: access}, nil
	}

	account, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return RefreshResult{}, err
	}

	if claims.TokenVersion != account.TokenVersion {
		return RefreshResult{}, model.ErrStaleToken
	}

	access, err := s.codec.IssueAccessToken(model.AccessClaims{
		UserID:   account.ID,
		Username: account.Username,
		Email:    account.Email,
		Class:    model.ClassStandard,
	}, account.RememberMe)
	if err != nil {
		return RefreshResult{}, err
	}

	if client.Device != "" {
		// Best effort: a failed touch never fails the refresh.
		_ = s.sessions.TouchByDevice(ctx, account.ID, client.Device)
	}

	return RefreshResult{AccessToken: access, Extended: account.RememberMe}, nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.sessions.ListActive(ctx, userID)
}

func (s *AuthService) RevokeSession(ctx context.Context, userID string, sessionID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.sessions.Remove(ctx, userID, sessionID)
}

// RevokeAllSessions clears the account's sessions and invalidates every
// outstanding refresh token via the version bump inside SessionStore.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.sessions.RemoveAll(ctx, userID)
}

// ValidateAccessToken satisfies the middleware's validator interface.
func (s *AuthService) ValidateAccessToken(tokenString string) (model.AccessClaims, error) {
	return s.codec.VerifyAccessToken(tokenString)
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
