package auth

import (
	"errors"

	"nthanda/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the shape of access tokens minted by the identity service.
// This backend only validates tokens; it never issues them.
type Claims struct {
	UserUID string `json:"user_uid"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessSecret), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserUID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
