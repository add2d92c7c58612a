// HMAC-signed bearer credential verification. Token issuance (login/OTP)
// lives in the identity service; this side only verifies.
package infra

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"mealmesh/internal/types"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified {userId, role} fact extracted from a credential.
type Claims struct {
	UserID types.ID
	Role   types.Role
}

// TokenVerifier verifies a raw bearer token string and returns the verified
// claims. Both the HTTP middleware and the realtime gateway consume it.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(token string) (*Claims, error) {
	var claims jwtClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	role := types.Role(claims.Role)
	switch role {
	case types.RoleCustomer, types.RoleVendor, types.RoleDeliveryPartner, types.RoleAdmin:
	default:
		return nil, ErrInvalidToken
	}
	return &Claims{UserID: types.ID(claims.Subject), Role: role}, nil
}
