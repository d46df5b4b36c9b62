package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidIssuer  = errors.New("invalid issuer")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Verifier checks HS256 access tokens issued by the auth collaborator.
// The subject claim carries the user id.
type Verifier struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		issuer:    issuer,
		clockSkew: 30 * time.Second,
	}
}

type AccessClaims struct {
	jwt.StandardClaims
}

// Valid overrides the embedded zero-leeway exp/nbf checks; ParseAndValidate
// applies them itself with the clock skew allowance.
func (c *AccessClaims) Valid() error { return nil }

func (v *Verifier) ParseAndValidate(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, ErrInvalidIssuer
	}

	now := time.Now()
	if claims.ExpiresAt > 0 {
		exp := time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)
		if now.After(exp) {
			return nil, ErrTokenExpired
		}
	}
	if claims.NotBefore > 0 {
		nbf := time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)
		if now.Before(nbf) {
			return nil, ErrTokenExpired
		}
	}

	return claims, nil
}

// SubjectAsUserID parses sub into the numeric user id.
func SubjectAsUserID(claims *AccessClaims) (int64, error) {
	if claims == nil || claims.Subject == "" {
		return 0, ErrInvalidSubject
	}
	var id int64
	if _, err := fmt.Sscan(claims.Subject, &id); err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}
	return id, nil
}
