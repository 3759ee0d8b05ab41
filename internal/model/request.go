package model

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type LoginRequest struct {
	// Identifier accepts an email or a username for standard accounts,
	// a username only for elevated ones.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Remember   bool   `json:"remember"`
	// ClassHint narrows resolution to one account class when set to
	// "standard" or "elevated"; empty tries standard first.
	ClassHint string `json:"class_hint,omitempty"`
}

type AuthResponse struct {
	User        PublicUser `json:"user"`
	AccessToken string     `json:"accessToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}
