package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssi-studios/auth-service/internal/model"
	"github.com/ssi-studios/auth-service/internal/token"
	"github.com/ssi-studios/auth-service/pkg/apierror"
)

type fakeUserStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{accounts: map[string]*model.Account{}}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		return *a, nil
	}
	return model.Account{}, model.ErrAccountNotFound
}

func (f *fakeUserStore) FindByIdentifier(_ context.Context, identifier string) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(identifier))
	for _, a := range f.accounts {
		if strings.ToLower(a.Email) == needle || strings.ToLower(a.Username) == needle {
			return *a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

func (f *fakeUserStore) ExistsByEmailOrUsername(_ context.Context, email string, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if strings.EqualFold(a.Email, strings.TrimSpace(email)) || strings.EqualFold(a.Username, strings.TrimSpace(username)) {
			return true, nil
		}
	}
	return false, nil
}

// Create mirrors the unique lower(email)/lower(username) indexes.
func (f *fakeUserStore) Create(_ context.Context, u model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if strings.EqualFold(a.Email, u.Email) || strings.EqualFold(a.Username, u.Username) {
			return model.ErrAccountExists
		}
	}
	stored := u
	f.accounts[u.ID] = &stored
	return nil
}

func (f *fakeUserStore) RegisterFailedAttempt(_ context.Context, userID string, maxAttempts int, lockUntil time.Time, now time.Time) (int, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[userID]
	if !ok {
		return 0, nil, model.ErrAccountNotFound
	}

	// Mirrors the repository's single-statement CASE update.
	if a.LockedUntil != nil && !a.LockedUntil.After(now) {
		a.FailedLoginAttempts = 1
		a.LockedUntil = nil
	} else {
		a.FailedLoginAttempts++
		if a.LockedUntil == nil && a.FailedLoginAttempts >= maxAttempts {
			until := lockUntil
			a.LockedUntil = &until
		}
	}
	return a.FailedLoginAttempts, a.LockedUntil, nil
}

func (f *fakeUserStore) ResetFailedAttempts(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[userID]; ok {
		a.FailedLoginAttempts = 0
		a.LockedUntil = nil
	}
	return nil
}

func (f *fakeUserStore) SetRemember(_ context.Context, userID string, remember bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[userID]; ok {
		a.RememberMe = remember
	}
	return nil
}

type fakeAdminStore struct {
	admins map[string]*model.AdminAccount
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{admins: map[string]*model.AdminAccount{}}
}

func (f *fakeAdminStore) FindByID(_ context.Context, id string) (model.AdminAccount, error) {
	if a, ok := f.admins[id]; ok {
		return *a, nil
	}
	return model.AdminAccount{}, model.ErrAccountNotFound
}

func (f *fakeAdminStore) FindByUsername(_ context.Context, username string) (model.AdminAccount, error) {
	needle := strings.ToLower(strings.TrimSpace(username))
	for _, a := range f.admins {
		if strings.ToLower(a.Username) == needle {
			return *a, nil
		}
	}
	return model.AdminAccount{}, model.ErrAccountNotFound
}

type fakeSessionStore struct {
	mu       sync.Mutex
	users    *fakeUserStore
	sessions map[string][]model.Session
	now      func() time.Time
}

func newFakeSessionStore(users *fakeUserStore) *fakeSessionStore {
	return &fakeSessionStore{
		users:    users,
		sessions: map[string][]model.Session{},
		now:      time.Now,
	}
}

func (f *fakeSessionStore) purgeLocked(userID string) {
	now := f.now().UTC()
	kept := make([]model.Session, 0)
	for _, s := range f.sessions[userID] {
		if !s.Expired(now) {
			kept = append(kept, s)
		}
	}
	f.sessions[userID] = kept
}

func (f *fakeSessionStore) Add(_ context.Context, s model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purgeLocked(s.UserID)
	f.sessions[s.UserID] = append(f.sessions[s.UserID], s)
	return nil
}

func (f *fakeSessionStore) TouchByDevice(_ context.Context, userID string, device string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now().UTC()
	for i, s := range f.sessions[userID] {
		if s.Device == device && !s.Expired(now) {
			f.sessions[userID][i].LastActivity = now
			break
		}
	}
	return nil
}

func (f *fakeSessionStore) Remove(_ context.Context, userID string, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make([]model.Session, 0)
	for _, s := range f.sessions[userID] {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	f.sessions[userID] = kept
	return nil
}

func (f *fakeSessionStore) RemoveAll(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[userID] = nil

	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	if a, ok := f.users.accounts[userID]; ok {
		a.TokenVersion++
	}
	return nil
}

func (f *fakeSessionStore) ListActive(_ context.Context, userID string) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purgeLocked(userID)
	return append([]model.Session(nil), f.sessions[userID]...), nil
}

type fixture struct {
	service  *AuthService
	users    *fakeUserStore
	admins   *fakeAdminStore
	sessions *fakeSessionStore
	codec    *token.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := token.NewCodec("unit-test-signing-secret")
	require.NoError(t, err)

	users := newFakeUserStore()
	admins := newFakeAdminStore()
	sessions := newFakeSessionStore(users)

	return &fixture{
		service:  NewAuthService(users, admins, sessions, codec),
		users:    users,
		admins:   admins,
		sessions: sessions,
		codec:    codec,
	}
}

func (f *fixture) seedUser(t *testing.T, username string, email string, password string) model.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	account := model.Account{
		ID:           "user-" + username,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Preferences:  model.DefaultPreferences(),
	}
	require.NoError(t, f.users.Create(context.Background(), account))
	return account
}

func (f *fixture) seedAdmin(t *testing.T, username string, password string) model.AdminAccount {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	admin := model.AdminAccount{
		ID:           "admin-" + username,
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  "Admin " + username,
		Role:         "owner",
	}
	f.admins.admins[admin.ID] = &admin
	return admin
}

var testClient = ClientInfo{Device: "Chrome on Linux", IPAddress: "10.0.0.1"}

func TestSignup(t *testing.T) {
	t.Parallel()

	t.Run("creates account, session and tokens", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.service.Signup(context.Background(), model.SignupRequest{
			Username: "mara",
			Email:    "Mara@Example.com",
			Password: "correct-horse",
		}, testClient)
		require.NoError(t, err)

		assert.Equal(t, "mara", result.User.Username)
		assert.Equal(t, "mara@example.com", result.User.Email)
		assert.Equal(t, model.ClassStandard, result.User.Class)
		require.NotNil(t, result.User.Preferences)
		assert.Equal(t, "light", result.User.Preferences.Theme)

		claims, err := f.codec.VerifyAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, claims.UserID)
		assert.False(t, claims.Elevated)

		refreshClaims, err := f.codec.VerifyRefreshToken(result.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, 0, refreshClaims.TokenVersion)

		sessions, err := f.service.ListSessions(context.Background(), result.User.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, testClient.Device, sessions[0].Device)
	})

	t.Run("collects every validation violation", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Signup(context.Background(), model.SignupRequest{
			Username: "ab",
			Email:    "not-an-email",
			Password: "12",
		}, testClient)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
		assert.GreaterOrEqual(t, len(apiErr.Violations), 3)
	})

	t.Run("rejects duplicate email or username", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		_, err := f.service.Signup(context.Background(), model.SignupRequest{
			Username: "other",
			Email:    "MARA@example.com",
			Password: "correct-horse",
		}, testClient)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "CONFLICT", apiErr.Code)
	})

	t.Run("insert losing a race with a concurrent signup still conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		// The pre-check misses the existing account; the store's uniqueness
		// constraint has to catch the duplicate instead.
		svc := NewAuthService(racingUserStore{f.users}, f.admins, f.sessions, f.codec)

		_, err := svc.Signup(context.Background(), model.SignupRequest{
			Username: "mara",
			Email:    "mara@example.com",
			Password: "correct-horse",
		}, testClient)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "CONFLICT", apiErr.Code)
	})
}

// racingUserStore simulates the window where an identical signup commits
// between the existence pre-check and the insert.
type racingUserStore struct {
	*fakeUserStore
}

func (racingUserStore) ExistsByEmailOrUsername(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("succeeds with email or username", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		for _, identifier := range []string{"mara", "MARA@example.com", "  mara  "} {
			result, err := f.service.Login(context.Background(), model.LoginRequest{
				Identifier: identifier,
				Password:   "correct-horse",
			}, testClient)
			require.NoError(t, err, "identifier %q", identifier)
			assert.Equal(t, "mara", result.User.Username)
		}
	})

	t.Run("wrong password yields invalid credentials and counts the failure", func(t *testing.T) {
		f := newFixture(t)
		account := f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		_, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "wrong",
		}, testClient)
		require.ErrorIs(t, err, model.ErrInvalidCredentials)

		stored, err := f.users.FindByID(context.Background(), account.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.FailedLoginAttempts)
	})

	t.Run("unknown identifier yields invalid credentials", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "nobody",
			Password:   "whatever",
		}, testClient)
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("locks after five failures, even against the correct password", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		for i := 0; i < 5; i++ {
			_, err := f.service.Login(context.Background(), model.LoginRequest{
				Identifier: "mara",
				Password:   "wrong",
			}, testClient)
			require.ErrorIs(t, err, model.ErrInvalidCredentials, "attempt %d", i+1)
		}

		_, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "correct-horse",
		}, testClient)
		require.ErrorIs(t, err, model.ErrAccountLocked)
	})

	t.Run("expired lock admits the next attempt and success resets the counter", func(t *testing.T) {
		f := newFixture(t)
		account := f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		past := time.Now().UTC().Add(-time.Minute)
		f.users.accounts[account.ID].FailedLoginAttempts = 5
		f.users.accounts[account.ID].LockedUntil = &past

		result, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "correct-horse",
		}, testClient)
		require.NoError(t, err)
		assert.Equal(t, "mara", result.User.Username)

		stored, err := f.users.FindByID(context.Background(), account.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.FailedLoginAttempts)
		assert.Nil(t, stored.LockedUntil)
	})

	t.Run("expired lock failed attempt restarts the counter at one", func(t *testing.T) {
		f := newFixture(t)
		account := f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		past := time.Now().UTC().Add(-time.Minute)
		f.users.accounts[account.ID].FailedLoginAttempts = 5
		f.users.accounts[account.ID].LockedUntil = &past

		_, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "wrong",
		}, testClient)
		require.ErrorIs(t, err, model.ErrInvalidCredentials)

		stored, err := f.users.FindByID(context.Background(), account.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.FailedLoginAttempts)
		assert.Nil(t, stored.LockedUntil)
	})

	t.Run("elevated account logs in without a session or lockout", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedAdmin(t, "root", "admin-secret")

		result, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "root",
			Password:   "admin-secret",
		}, testClient)
		require.NoError(t, err)
		assert.Equal(t, model.ClassElevated, result.User.Class)
		assert.Equal(t, "owner", result.User.Role)

		claims, err := f.codec.VerifyAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.Elevated)

		sessions, err := f.sessions.ListActive(context.Background(), admin.ID)
		require.NoError(t, err)
		assert.Empty(t, sessions)

		// Repeated wrong passwords never lock an elevated account.
		for i := 0; i < 6; i++ {
			_, err := f.service.Login(context.Background(), model.LoginRequest{
				Identifier: "root",
				Password:   "wrong",
			}, testClient)
			require.ErrorIs(t, err, model.ErrInvalidCredentials)
		}
	})

	t.Run("standard match shadows an elevated account with the same username", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "root", "root@example.com", "user-secret")
		f.seedAdmin(t, "root", "admin-secret")

		// The admin password fails because resolution short-circuits on
		// the standard match.
		_, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "root",
			Password:   "admin-secret",
		}, testClient)
		require.ErrorIs(t, err, model.ErrInvalidCredentials)

		// A class hint bypasses the standard lookup entirely.
		result, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "root",
			Password:   "admin-secret",
			ClassHint:  "elevated",
		}, testClient)
		require.NoError(t, err)
		assert.Equal(t, model.ClassElevated, result.User.Class)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Login(context.Background(), model.LoginRequest{}, testClient)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
		assert.Len(t, apiErr.Violations, 2)
	})

	t.Run("unknown class hint fails validation instead of resolving elevated", func(t *testing.T) {
		f := newFixture(t)
		f.seedAdmin(t, "root", "admin-secret")

		_, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "root",
			Password:   "admin-secret",
			ClassHint:  "superuser",
		}, testClient)

		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
		require.Len(t, apiErr.Violations, 1)
		assert.Contains(t, apiErr.Violations[0], "class_hint")
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("issues a new access token without rotating the refresh token", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		login, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "correct-horse",
		}, testClient)
		require.NoError(t, err)

		refreshed, err := f.service.Refresh(context.Background(), login.RefreshToken, testClient)
		require.NoError(t, err)

		claims, err := f.codec.VerifyAccessToken(refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, login.User.ID, claims.UserID)

		// The same refresh token keeps working.
		_, err = f.service.Refresh(context.Background(), login.RefreshToken, testClient)
		require.NoError(t, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Refresh(context.Background(), "garbage", testClient)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("rejects tokens for deleted accounts", func(t *testing.T) {
		f := newFixture(t)
		account := f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		refresh, err := f.codec.IssueRefreshToken(model.RefreshClaims{
			UserID: account.ID,
			Class:  model.ClassStandard,
		}, false)
		require.NoError(t, err)

		delete(f.users.accounts, account.ID)

		_, err = f.service.Refresh(context.Background(), refresh, testClient)
		require.ErrorIs(t, err, model.ErrAccountNotFound)
	})

	t.Run("pre-revocation tokens go stale after revoke-all", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		login, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "correct-horse",
		}, testClient)
		require.NoError(t, err)

		require.NoError(t, f.service.RevokeAllSessions(context.Background(), login.User.ID))

		_, err = f.service.Refresh(context.Background(), login.RefreshToken, testClient)
		require.ErrorIs(t, err, model.ErrStaleToken)
	})

	t.Run("refresh advances activity on the matching device session", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		login, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "correct-horse",
		}, testClient)
		require.NoError(t, err)

		later := time.Now().UTC().Add(10 * time.Minute)
		f.sessions.now = func() time.Time { return later }

		_, err = f.service.Refresh(context.Background(), login.RefreshToken, testClient)
		require.NoError(t, err)

		sessions, err := f.service.ListSessions(context.Background(), login.User.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].LastActivity.Equal(later))
	})

	t.Run("refresh is a no-op touch for absent or expired device sessions", func(t *testing.T) {
		f := newFixture(t)
		account := f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		login, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "correct-horse",
		}, testClient)
		require.NoError(t, err)

		// A second device whose session has already expired.
		past := time.Now().UTC().Add(-time.Hour)
		require.NoError(t, f.sessions.Add(context.Background(), model.Session{
			ID: "expired", UserID: account.ID, Device: "Safari on iOS", ExpiresAt: past,
		}))

		later := time.Now().UTC().Add(10 * time.Minute)
		f.sessions.now = func() time.Time { return later }

		// Expired device: refresh still succeeds and touches nothing.
		_, err = f.service.Refresh(context.Background(), login.RefreshToken,
			ClientInfo{Device: "Safari on iOS", IPAddress: "10.0.0.2"})
		require.NoError(t, err)

		// Unknown device: same outcome.
		_, err = f.service.Refresh(context.Background(), login.RefreshToken,
			ClientInfo{Device: "Firefox on Windows", IPAddress: "10.0.0.3"})
		require.NoError(t, err)

		sessions, err := f.service.ListSessions(context.Background(), account.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, testClient.Device, sessions[0].Device)
		assert.False(t, sessions[0].LastActivity.Equal(later))
	})

	t.Run("elevated refresh skips the version check", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedAdmin(t, "root", "admin-secret")

		refresh, err := f.codec.IssueRefreshToken(model.RefreshClaims{
			UserID: admin.ID,
			Class:  model.ClassElevated,
		}, false)
		require.NoError(t, err)

		refreshed, err := f.service.Refresh(context.Background(), refresh, testClient)
		require.NoError(t, err)

		claims, err := f.codec.VerifyAccessToken(refreshed.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.Elevated)
	})
}

func TestSessionManagement(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, f *fixture, device string) LoginResult {
		t.Helper()
		result, err := f.service.Login(context.Background(), model.LoginRequest{
			Identifier: "mara",
			Password:   "correct-horse",
		}, ClientInfo{Device: device, IPAddress: "10.0.0.1"})
		require.NoError(t, err)
		return result
	}

	t.Run("each login adds an independent session", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		result := login(t, f, "Chrome on Linux")
		login(t, f, "Safari on iOS")

		sessions, err := f.service.ListSessions(context.Background(), result.User.ID)
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("expired sessions never surface", func(t *testing.T) {
		f := newFixture(t)
		account := f.seedUser(t, "mara", "mara@example.com", "correct-horse")

		past := time.Now().UTC().Add(-time.Hour)
		require.NoError(t, f.sessions.Add(context.Background(), model.Session{
			ID: "expired", UserID: account.ID, ExpiresAt: past,
		}))
		login(t, f, "Chrome on Linux")

		sessions, err := f.service.ListSessions(context.Background(), account.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.NotEqual(t, "expired", sessions[0].ID)
	})

	t.Run("revoking one session is idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")
		result := login(t, f, "Chrome on Linux")

		sessions, err := f.service.ListSessions(context.Background(), result.User.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)

		require.NoError(t, f.service.RevokeSession(context.Background(), result.User.ID, sessions[0].ID))
		require.NoError(t, f.service.RevokeSession(context.Background(), result.User.ID, sessions[0].ID))

		sessions, err = f.service.ListSessions(context.Background(), result.User.ID)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("revoke-all clears sessions and bumps the token version", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "mara", "mara@example.com", "correct-horse")
		result := login(t, f, "Chrome on Linux")
		login(t, f, "Safari on iOS")
		login(t, f, "Firefox on Windows")

		require.NoError(t, f.service.RevokeAllSessions(context.Background(), result.User.ID))

		sessions, err := f.service.ListSessions(context.Background(), result.User.ID)
		require.NoError(t, err)
		assert.Empty(t, sessions)

		stored, err := f.users.FindByID(context.Background(), result.User.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.TokenVersion)
	})

	t.Run("operations on a missing account fail with not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ListSessions(context.Background(), "ghost")
		require.True(t, errors.Is(err, model.ErrAccountNotFound))

		require.ErrorIs(t, f.service.RevokeSession(context.Background(), "ghost", "s1"), model.ErrAccountNotFound)
		require.ErrorIs(t, f.service.RevokeAllSessions(context.Background(), "ghost"), model.ErrAccountNotFound)
	})
}
