package security

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tradeforge/insight-mining-service/internal/domain"
	"github.com/tradeforge/insight-mining-service/internal/ports"
)

// JWTVerifier validates HS256 bearer tokens issued by the platform gateway
// and extracts the subject and role claims.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(raw string) (ports.TokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ports.TokenClaims{}, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return ports.TokenClaims{}, domain.ErrUnauthorized
	}
	return ports.TokenClaims{SubjectID: claims.Subject, Role: claims.Role}, nil
}
