package identity

import (
	"errors"
	"time"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

var (
	ErrBadCredential = errors.New("bad credential")
	ErrBadToken      = errors.New("bad token")
)

// JWT implements core.Identity with HMAC-signed session tokens. Credential
// checking proper belongs to the upstream account system; this adapter only
// refuses empty signatures and malformed ids.
type JWT struct {
	secret []byte
	ttl    time.Duration
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl}
}

func (j *JWT) Login(sdkAppID int, user domain.UserID, userSig string) (string, error) {
	if _, err := domain.NewUserInfo(user); err != nil {
		return "", err
	}
	if userSig == "" {
		return "", ErrBadCredential
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(user),
		Issuer:    "karaoke",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", err
	}
	log.Info().Str("module", "identity").Int("app", sdkAppID).Str("user", string(user)).Msg("login")
	return token, nil
}

func (j *JWT) Verify(token string) (domain.UserID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return j.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrBadToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrBadToken
	}
	return domain.UserID(claims.Subject), nil
}

func (j *JWT) Logout(user domain.UserID) {
	// Tokens are stateless; logout is bookkeeping for the caller.
	log.Info().Str("module", "identity").Str("user", string(user)).Msg("logout")
}
