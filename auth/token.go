package auth

import (
	"fmt"
	"time"

	"chatter-box/domain"
	"chatter-box/errors"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens. The secret comes from
// configuration; in production it should be loaded from an environment
// variable or a secret manager.
type TokenService struct {
	secret   []byte
	duration time.Duration
}

func NewTokenService(secret []byte, duration time.Duration) *TokenService {
	return &TokenService{secret: secret, duration: duration}
}

// GenerateToken creates a signed JWT for a specific user.
func (t *TokenService) GenerateToken(user domain.User) (string, error) {
	expirationTime := time.Now().Add(t.duration)

	claims := &CustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chatter-box",
		},
	}

	// HS256: HMAC with SHA256, signed with the server secret.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates the signature and expiration of a credential
// and maps its claims to a SessionIdentity. ConnectionID is left zero; the
// transport binds it when the connection is established.
func (t *TokenService) Verify(credential string) (domain.SessionIdentity, error) {
	token, err := jwt.ParseWithClaims(credential, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return domain.SessionIdentity{}, fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return domain.SessionIdentity{}, errors.ErrInvalidCredentials
	}

	return domain.SessionIdentity{
		SubjectID:    claims.UserID,
		SubjectName:  claims.Username,
		Capabilities: claims.Roles,
	}, nil
}
