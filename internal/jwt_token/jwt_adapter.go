package jwttoken

import (
	"vaultledger/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims maps actor claims onto the auth middleware's view.
func ToMiddlewareClaims(claims *ActorClaims) *auth.JWTClaims {
	return &auth.JWTClaims{
		ActorID: claims.Subject,
		Roles:   claims.Roles,
	}
}

// JWTServiceAdapter satisfies auth.JWTValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
