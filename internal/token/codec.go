package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ssi-studios/auth-service/internal/model"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	// AccessTTL is the default access-token validity; ExtendedTTL applies
	// when the account opted into remember-me.
	AccessTTL   = 24 * time.Hour
	RefreshTTL  = 7 * 24 * time.Hour
	ExtendedTTL = 30 * 24 * time.Hour
)

// Codec issues and verifies the signed access and refresh tokens. It is a
// pure function of its configuration plus the input: no storage, no caches.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret is required")
	}

	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

// AccessValidity returns the validity window an access token gets for the
// given remember-me preference. Session expiries are derived from the same
// windows so a session can never outlive its refresh token.
func AccessValidity(extended bool) time.Duration {
	if extended {
		return ExtendedTTL
	}
	return AccessTTL
}

func RefreshValidity(extended bool) time.Duration {
	if extended {
		return ExtendedTTL
	}
	return RefreshTTL
}

func (c *Codec) IssueAccessToken(claims model.AccessClaims, extended bool) (string, error) {
	now := c.now().UTC()
	return c.sign(jwt.MapClaims{
		"sub":      claims.UserID,
		"username": claims.Username,
		"email":    claims.Email,
		"elevated": claims.Elevated,
		"class":    string(claims.Class),
		"typ":      typeAccess,
		"iat":      now.Unix(),
		"exp":      now.Add(AccessValidity(extended)).Unix(),
	})
}

func (c *Codec) IssueRefreshToken(claims model.RefreshClaims, extended bool) (string, error) {
	now := c.now().UTC()
	return c.sign(jwt.MapClaims{
		"sub":           claims.UserID,
		"class":         string(claims.Class),
		"token_version": claims.TokenVersion,
		"typ":           typeRefresh,
		"iat":           now.Unix(),
		"exp":           now.Add(RefreshValidity(extended)).Unix(),
	})
}

// VerifyAccessToken checks signature, expiry and token type. Every failure
// mode collapses to ErrInvalidToken so callers cannot distinguish a bad
// signature from an expired or malformed token.
func (c *Codec) VerifyAccessToken(tokenString string) (model.AccessClaims, error) {
	claimsMap, err := c.parse(tokenString, typeAccess)
	if err != nil {
		return model.AccessClaims{}, err
	}

	claims := model.AccessClaims{Type: typeAccess}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Elevated, _ = claimsMap["elevated"].(bool)
	if class, ok := claimsMap["class"].(string); ok {
		claims.Class = model.AccountClass(class)
	}

	if claims.UserID == "" {
		return model.AccessClaims{}, model.ErrInvalidToken
	}

	return claims, nil
}

func (c *Codec) VerifyRefreshToken(tokenString string) (model.RefreshClaims, error) {
	claimsMap, err := c.parse(tokenString, typeRefresh)
	if err != nil {
		return model.RefreshClaims{}, err
	}

	claims := model.RefreshClaims{Type: typeRefresh}
	claims.UserID, _ = claimsMap["sub"].(string)
	if class, ok := claimsMap["class"].(string); ok {
		claims.Class = model.AccountClass(class)
	}
	// JSON numbers decode as float64 in MapClaims.
	if version, ok := claimsMap["token_version"].(float64); ok {
		claims.TokenVersion = int(version)
	}

	if claims.UserID == "" {
		return model.RefreshClaims{}, model.ErrInvalidToken
	}

	return claims, nil
}

func (c *Codec) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *Codec) parse(tokenString string, expectedType string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil || !parsed.Valid {
		return nil, model.ErrInvalidToken
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrInvalidToken
	}

	if typ, _ := claimsMap["typ"].(string); typ != expectedType {
		return nil, model.ErrInvalidToken
	}

	return claimsMap, nil
}
