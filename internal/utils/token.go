package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// GenerateJWTToken signs a session token for sessionID.
func GenerateJWTToken(sessionID, username string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	claims := jwt.MapClaims{
		"sid":      sessionID,
		"username": username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseJWTToken validates tokenString and returns its session id and username.
func ParseJWTToken(tokenString string, secret []byte) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", "", fmt.Errorf("%w: missing sid", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)
	return sid, username, nil
}
