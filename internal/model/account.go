package model

import "time"

// AccountClass distinguishes the two credential stores. A username may
// exist in both classes at once; lookups short-circuit on the standard
// class first.
type AccountClass string

const (
	ClassStandard AccountClass = "standard"
	ClassElevated AccountClass = "elevated"
)

type Account struct {
	ID                  string      `json:"id"`
	Username            string      `json:"username"`
	Email               string      `json:"email"`
	PasswordHash        string      `json:"-"`
	IsVerified          bool        `json:"is_verified"`
	FailedLoginAttempts int         `json:"-"`
	LockedUntil         *time.Time  `json:"-"`
	TokenVersion        int         `json:"-"`
	RememberMe          bool        `json:"remember_me"`
	Preferences         Preferences `json:"preferences"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

type AdminAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Locale        string `json:"locale"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Notifications: true, Locale: "en"}
}

// PublicUser is the sanitized account view returned to clients. It never
// carries the password hash or lockout state.
type PublicUser struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email,omitempty"`
	DisplayName string       `json:"display_name,omitempty"`
	Role        string       `json:"role,omitempty"`
	IsVerified  bool         `json:"is_verified"`
	Class       AccountClass `json:"class"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

func (a Account) Public() PublicUser {
	prefs := a.Preferences
	return PublicUser{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		IsVerified:  a.IsVerified,
		Class:       ClassStandard,
		Preferences: &prefs,
	}
}

func (a AdminAccount) Public() PublicUser {
	return PublicUser{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		IsVerified:  true,
		Class:       ClassElevated,
	}
}

type AccessClaims struct {
	UserID   string       `json:"sub"`
	Username string       `json:"username"`
	Email    string       `json:"email,omitempty"`
	Elevated bool         `json:"elevated"`
	Class    AccountClass `json:"class"`
	Type     string       `json:"typ"`
}

type RefreshClaims struct {
	UserID       string       `json:"sub"`
	Class        AccountClass `json:"class"`
	TokenVersion int          `json:"token_version"`
	Type         string       `json:"typ"`
}
