package auth

import (
	"errors"
	"time"

	"teenpatti-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const ScopeUser = "user"

type Claims struct {
	SubjectID int64  `json:"subjectId"`
	Scope     string `json:"scope"`
	jwt.RegisteredClaims
}

func GenerateToken(userID int64) (string, error) {
	duration := time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
	claims := Claims{
		SubjectID: userID,
		Scope:     ScopeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   ScopeUser,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GlobalConfig.JWT.Secret))
}

func ParseUserToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.GlobalConfig.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != ScopeUser {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
