package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"project-relay/domain"
	"project-relay/errors"
)

// CustomClaims defines the structure of the data stored inside the JWT.
// The identity provider issuing the tokens is external to the relay; the
// relay only verifies signatures against the shared secret.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates bearer credentials against a shared secret.
// It is a pure function holder, no state beyond the key.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a JWT string,
// returning the identity decoded from the claims.
func (v *Verifier) Verify(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return domain.Identity{ID: claims.UserID, Email: claims.Email}, nil
	}

	return domain.Identity{}, errors.ErrAuthFailed
}

// GenerateToken creates a signed JWT for a specific user.
// The relay itself never issues tokens in production; this exists for
// provisioning tooling and tests.
func GenerateToken(secret, userID, email string, authTokenDuration time.Duration) (string, error) {
	expirationTime := time.Now().Add(authTokenDuration)

	claims := &CustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "project-relay",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
